package model

import "testing"

func TestDiscountApply(t *testing.T) {
	cases := []struct {
		name  string
		d     Discount
		price float64
		want  float64
	}{
		{"percentage", Discount{Type: DiscountPercentage, Value: 25}, 400, 300},
		{"percentage max", Discount{Type: DiscountPercentage, Value: 50}, 100, 50},
		{"fixed", Discount{Type: DiscountFixed, Value: 80}, 500, 420},
		{"fixed larger than price", Discount{Type: DiscountFixed, Value: 100}, 60, 0},
		{"unknown type leaves price", Discount{Type: DiscountType("VOUCHER"), Value: 10}, 75, 75},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.d.Apply(c.price); got != c.want {
				t.Fatalf("Apply(%v) = %v, want %v", c.price, got, c.want)
			}
		})
	}
}
