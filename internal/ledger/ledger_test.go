package ledger

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
	"github.com/iliyamo/tour-agency-booking/internal/model"
)

// fakeState is an in-memory stand-in for the MySQL-backed store. InTx
// serializes transactions with a mutex and restores a snapshot when the
// callback fails, mirroring the rollback behavior of the real store.
type fakeState struct {
	mu           sync.Mutex
	packages     map[uint64]model.TourPackage
	reservations map[uint64]model.Reservation
	nextID       uint64
}

func newFakeState() *fakeState {
	return &fakeState{
		packages:     make(map[uint64]model.TourPackage),
		reservations: make(map[uint64]model.Reservation),
		nextID:       1,
	}
}

func (f *fakeState) InTx(ctx context.Context, fn func(Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapPkg := make(map[uint64]model.TourPackage, len(f.packages))
	for k, v := range f.packages {
		snapPkg[k] = v
	}
	snapRes := make(map[uint64]model.Reservation, len(f.reservations))
	for k, v := range f.reservations {
		snapRes[k] = v
	}
	snapNext := f.nextID

	if err := fn(&fakeStore{st: f}); err != nil {
		f.packages = snapPkg
		f.reservations = snapRes
		f.nextID = snapNext
		return err
	}
	return nil
}

// fakeStore operates on fakeState with the transaction mutex already held.
type fakeStore struct {
	st *fakeState
}

func (s *fakeStore) FindPackage(ctx context.Context, id uint64) (*model.TourPackage, error) {
	p, ok := s.st.packages[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *fakeStore) FindReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, ok := s.st.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := r
	return &cp, nil
}

func (s *fakeStore) SumActiveGuests(ctx context.Context, packageID uint64) (uint64, error) {
	var sum uint64
	for _, r := range s.st.reservations {
		if r.PackageID == packageID && r.Status != model.StatusCancelled {
			sum += uint64(r.NumberOfGuests)
		}
	}
	return sum, nil
}

func (s *fakeStore) AdjustCapacity(ctx context.Context, packageID uint64, delta int32) (bool, error) {
	p, ok := s.st.packages[packageID]
	if !ok {
		return false, ErrNotFound
	}
	if delta < 0 {
		need := uint32(-delta)
		if p.Capacity < need {
			return false, nil
		}
		p.Capacity -= need
	} else {
		p.Capacity += uint32(delta)
	}
	s.st.packages[packageID] = p
	return true, nil
}

func (s *fakeStore) InsertReservation(ctx context.Context, r *model.Reservation) error {
	r.ID = s.st.nextID
	s.st.nextID++
	s.st.reservations[r.ID] = *r
	return nil
}

func (s *fakeStore) UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	r, ok := s.st.reservations[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	s.st.reservations[id] = r
	return nil
}

func (s *fakeStore) DeleteReservation(ctx context.Context, id uint64) error {
	if _, ok := s.st.reservations[id]; !ok {
		return ErrNotFound
	}
	delete(s.st.reservations, id)
	return nil
}

// ---- helpers ----

const agentID = uint64(10)

func client(id uint64) auth.Identity { return auth.Identity{UserID: id, Role: model.RoleClient} }
func agent(id uint64) auth.Identity  { return auth.Identity{UserID: id, Role: model.RoleAgent} }
func admin() auth.Identity           { return auth.Identity{UserID: 1, Role: model.RoleAdmin} }

func seedPackage(st *fakeState, capacity uint32) uint64 {
	id := st.nextID
	st.nextID++
	st.packages[id] = model.TourPackage{ID: id, Capacity: capacity, CreatedByID: agentID, IsActive: true}
	return id
}

func seedReservation(st *fakeState, pkgID, userID uint64, guests uint32, status model.ReservationStatus) uint64 {
	id := st.nextID
	st.nextID++
	st.reservations[id] = model.Reservation{ID: id, UserID: userID, PackageID: pkgID, NumberOfGuests: guests, Status: status}
	return id
}

// ---- CreateReservation ----

func TestCreateReservationOnlyClients(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 10)
	l := New(st)

	for _, id := range []auth.Identity{admin(), agent(agentID)} {
		if _, err := l.CreateReservation(context.Background(), id, pkgID, 2); !errors.Is(err, auth.ErrForbidden) {
			t.Fatalf("role %s: want ErrForbidden, got %v", id.Role, err)
		}
	}
	if len(st.reservations) != 0 {
		t.Fatalf("no reservation should have been written")
	}
}

func TestCreateReservationZeroGuests(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 10)
	l := New(st)

	if _, err := l.CreateReservation(context.Background(), client(2), pkgID, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestCreateReservationMissingPackage(t *testing.T) {
	l := New(newFakeState())
	if _, err := l.CreateReservation(context.Background(), client(2), 404, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCreateReservationAdmission(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 10)
	seedReservation(st, pkgID, 2, 4, model.StatusPending)
	seedReservation(st, pkgID, 3, 3, model.StatusConfirmed)
	seedReservation(st, pkgID, 4, 9, model.StatusCancelled) // cancelled demand does not count
	l := New(st)

	// 4 pending + 3 confirmed = 7 claimed out of 10; 3 more fit, 4 do not.
	if _, err := l.CreateReservation(context.Background(), client(5), pkgID, 4); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded, got %v", err)
	}
	r, err := l.CreateReservation(context.Background(), client(5), pkgID, 3)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Status != model.StatusPending {
		t.Fatalf("new reservation status = %s, want PENDING", r.Status)
	}
	if r.ID == 0 {
		t.Fatalf("reservation did not receive an ID")
	}
	// Admission never touches the package capacity itself.
	if got := st.packages[pkgID].Capacity; got != 10 {
		t.Fatalf("capacity after create = %d, want 10", got)
	}
}

func TestCreateReservationGuestBound(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, math.MaxUint32)
	l := New(st)

	if _, err := l.CreateReservation(context.Background(), client(2), pkgID, model.MaxCapacity+1); !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if len(st.reservations) != 0 {
		t.Fatalf("over-bound reservation was written")
	}
}

func TestAdmissionSumDoesNotWrap(t *testing.T) {
	// Two pre-existing claims of 3 billion guests each: their 32-bit
	// sum would wrap to well under the capacity, admitting anything.
	st := newFakeState()
	pkgID := seedPackage(st, math.MaxUint32)
	seedReservation(st, pkgID, 2, 3_000_000_000, model.StatusPending)
	seedReservation(st, pkgID, 3, 3_000_000_000, model.StatusPending)
	l := New(st)

	if _, err := l.CreateReservation(context.Background(), client(4), pkgID, 1); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded, got %v", err)
	}
}

// ---- TransitionReservation ----

func TestConfirmDebitsCapacity(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 10)
	resID := seedReservation(st, pkgID, 2, 4, model.StatusPending)
	l := New(st)

	r, err := l.TransitionReservation(context.Background(), agent(agentID), resID, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if r.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", r.Status)
	}
	if got := st.packages[pkgID].Capacity; got != 6 {
		t.Fatalf("capacity after confirm = %d, want 6", got)
	}
}

func TestConfirmInsufficientCapacityRollsBack(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 3)
	resID := seedReservation(st, pkgID, 2, 4, model.StatusPending)
	l := New(st)

	if _, err := l.TransitionReservation(context.Background(), admin(), resID, model.StatusConfirmed); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded, got %v", err)
	}
	if got := st.reservations[resID].Status; got != model.StatusPending {
		t.Fatalf("status after failed confirm = %s, want PENDING", got)
	}
	if got := st.packages[pkgID].Capacity; got != 3 {
		t.Fatalf("capacity after failed confirm = %d, want 3", got)
	}
}

func TestConfirmOverBoundGuestsRejected(t *testing.T) {
	// A guest count above the bound would negate the int32 debit and
	// turn the conditional update into an unconditional credit.
	st := newFakeState()
	pkgID := seedPackage(st, math.MaxUint32)
	resID := seedReservation(st, pkgID, 2, 3_000_000_000, model.StatusPending)
	l := New(st)

	if _, err := l.TransitionReservation(context.Background(), admin(), resID, model.StatusConfirmed); !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if got := st.packages[pkgID].Capacity; got != math.MaxUint32 {
		t.Fatalf("capacity after rejected confirm = %d, want %d", got, uint32(math.MaxUint32))
	}
	if got := st.reservations[resID].Status; got != model.StatusPending {
		t.Fatalf("status after rejected confirm = %s, want PENDING", got)
	}
}

func TestTransitionEdges(t *testing.T) {
	cases := []struct {
		name string
		from model.ReservationStatus
		to   model.ReservationStatus
		ok   bool
	}{
		{"pending to confirmed", model.StatusPending, model.StatusConfirmed, true},
		{"pending to cancelled", model.StatusPending, model.StatusCancelled, true},
		{"pending to completed", model.StatusPending, model.StatusCompleted, false},
		{"confirmed to completed", model.StatusConfirmed, model.StatusCompleted, true},
		{"confirmed to cancelled", model.StatusConfirmed, model.StatusCancelled, true},
		{"confirmed to confirmed", model.StatusConfirmed, model.StatusConfirmed, false},
		{"cancelled to confirmed", model.StatusCancelled, model.StatusConfirmed, false},
		{"completed to cancelled", model.StatusCompleted, model.StatusCancelled, false},
		{"cancelled to pending", model.StatusCancelled, model.StatusPending, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newFakeState()
			pkgID := seedPackage(st, 100)
			resID := seedReservation(st, pkgID, 2, 1, tc.from)
			l := New(st)

			_, err := l.TransitionReservation(context.Background(), admin(), resID, tc.to)
			if tc.ok && err != nil {
				t.Fatalf("want success, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("want ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestInvalidEdgeReportedBeforeRole(t *testing.T) {
	// A client asking to re-confirm an already confirmed reservation
	// gets the state machine error, not a permission error.
	st := newFakeState()
	pkgID := seedPackage(st, 10)
	resID := seedReservation(st, pkgID, 2, 1, model.StatusConfirmed)
	l := New(st)

	if _, err := l.TransitionReservation(context.Background(), client(2), resID, model.StatusConfirmed); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestClientCannotConfirm(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 10)
	resID := seedReservation(st, pkgID, 2, 1, model.StatusPending)
	l := New(st)

	if _, err := l.TransitionReservation(context.Background(), client(2), resID, model.StatusConfirmed); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestClientCancelOwnReservation(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 10)
	own := seedReservation(st, pkgID, 2, 1, model.StatusPending)
	other := seedReservation(st, pkgID, 3, 1, model.StatusPending)
	l := New(st)

	if _, err := l.TransitionReservation(context.Background(), client(2), own, model.StatusCancelled); err != nil {
		t.Fatalf("cancel own: %v", err)
	}
	if _, err := l.TransitionReservation(context.Background(), client(2), other, model.StatusCancelled); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("cancel other's: want ErrForbidden, got %v", err)
	}
}

func TestAgentScopedToOwnPackages(t *testing.T) {
	st := newFakeState()
	ownPkg := seedPackage(st, 10)
	foreign := st.nextID
	st.nextID++
	st.packages[foreign] = model.TourPackage{ID: foreign, Capacity: 10, CreatedByID: 99}

	onOwn := seedReservation(st, ownPkg, 2, 1, model.StatusPending)
	onForeign := seedReservation(st, foreign, 2, 1, model.StatusPending)
	l := New(st)

	if _, err := l.TransitionReservation(context.Background(), agent(agentID), onOwn, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm on own package: %v", err)
	}
	if _, err := l.TransitionReservation(context.Background(), agent(agentID), onForeign, model.StatusConfirmed); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("confirm on foreign package: want ErrForbidden, got %v", err)
	}
}

func TestCancelConfirmedCreditsCapacity(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 6) // 4 guests already debited
	resID := seedReservation(st, pkgID, 2, 4, model.StatusConfirmed)
	l := New(st)

	if _, err := l.TransitionReservation(context.Background(), client(2), resID, model.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := st.packages[pkgID].Capacity; got != 10 {
		t.Fatalf("capacity after cancel = %d, want 10", got)
	}
}

func TestCancelPendingDoesNotCredit(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 10)
	resID := seedReservation(st, pkgID, 2, 4, model.StatusPending)
	l := New(st)

	if _, err := l.TransitionReservation(context.Background(), client(2), resID, model.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := st.packages[pkgID].Capacity; got != 10 {
		t.Fatalf("capacity after pending cancel = %d, want 10", got)
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 10)
	resID := seedReservation(st, pkgID, 2, 1, model.StatusPending)
	l := New(st)

	if _, err := l.TransitionReservation(context.Background(), admin(), resID, model.ReservationStatus("BOGUS")); !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

// ---- DeleteReservation ----

func TestDeleteRules(t *testing.T) {
	type tc struct {
		name    string
		caller  auth.Identity
		status  model.ReservationStatus
		ownerID uint64
		wantErr error
	}
	cases := []tc{
		{"admin deletes pending", admin(), model.StatusPending, 2, nil},
		{"admin deletes confirmed", admin(), model.StatusConfirmed, 2, nil},
		{"client deletes own pending", client(2), model.StatusPending, 2, nil},
		{"client deletes own confirmed", client(2), model.StatusConfirmed, 2, auth.ErrForbidden},
		{"client deletes other's pending", client(2), model.StatusPending, 3, auth.ErrForbidden},
		{"agent deletes", agent(agentID), model.StatusPending, 2, auth.ErrForbidden},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			st := newFakeState()
			pkgID := seedPackage(st, 10)
			resID := seedReservation(st, pkgID, c.ownerID, 3, c.status)
			l := New(st)

			err := l.DeleteReservation(context.Background(), c.caller, resID)
			if c.wantErr == nil {
				if err != nil {
					t.Fatalf("delete: %v", err)
				}
				if _, ok := st.reservations[resID]; ok {
					t.Fatalf("reservation still present after delete")
				}
				return
			}
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("want %v, got %v", c.wantErr, err)
			}
			if _, ok := st.reservations[resID]; !ok {
				t.Fatalf("reservation removed despite error")
			}
		})
	}
}

func TestDeleteConfirmedCreditsOnce(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 7) // 3 guests debited at confirmation
	resID := seedReservation(st, pkgID, 2, 3, model.StatusConfirmed)
	l := New(st)

	if err := l.DeleteReservation(context.Background(), admin(), resID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := st.packages[pkgID].Capacity; got != 10 {
		t.Fatalf("capacity after delete = %d, want 10", got)
	}
	if err := l.DeleteReservation(context.Background(), admin(), resID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
	if got := st.packages[pkgID].Capacity; got != 10 {
		t.Fatalf("capacity after repeated delete = %d, want 10", got)
	}
}

// ---- concurrency ----

func TestConcurrentConfirmationsNeverOversell(t *testing.T) {
	st := newFakeState()
	pkgID := seedPackage(st, 5)

	const contenders = 10
	ids := make([]uint64, 0, contenders)
	for i := 0; i < contenders; i++ {
		ids = append(ids, seedReservation(st, pkgID, uint64(100+i), 1, model.StatusPending))
	}
	l := New(st)

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i, resID := range ids {
		wg.Add(1)
		go func(i int, resID uint64) {
			defer wg.Done()
			_, errs[i] = l.TransitionReservation(context.Background(), admin(), resID, model.StatusConfirmed)
		}(i, resID)
	}
	wg.Wait()

	confirmed := 0
	for i, err := range errs {
		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, ErrCapacityExceeded):
		default:
			t.Fatalf("contender %d: unexpected error %v", i, err)
		}
	}
	if confirmed != 5 {
		t.Fatalf("confirmed = %d, want exactly 5", confirmed)
	}
	if got := st.packages[pkgID].Capacity; got != 0 {
		t.Fatalf("capacity after race = %d, want 0", got)
	}
}
