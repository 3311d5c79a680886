package models

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to paid", OrderStatusPending, OrderStatusPaid, true},
		{"pending to failed", OrderStatusPending, OrderStatusPaymentFailed, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"paid to failed", OrderStatusPaid, OrderStatusPaymentFailed, false},
		{"paid to pending", OrderStatusPaid, OrderStatusPending, false},
		{"failed to paid", OrderStatusPaymentFailed, OrderStatusPaid, false},
		{"cancelled to paid", OrderStatusCancelled, OrderStatusPaid, false},
		{"unknown status", OrderStatus("Shipped"), OrderStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if OrderStatusPending.IsTerminal() {
		t.Error("Pending must not be terminal")
	}
	for _, status := range []OrderStatus{OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCancelled} {
		if !status.IsTerminal() {
			t.Errorf("%s must be terminal", status)
		}
	}
}

func TestCartRecomputeTotal(t *testing.T) {
	cart := &Cart{
		Items: []CartItem{
			{UnitPrice: 100, Quantity: 1},
			{UnitPrice: 75, Quantity: 2},
		},
	}
	cart.RecomputeTotal()
	if cart.TotalPrice != 250 {
		t.Errorf("total = %v, want 250", cart.TotalPrice)
	}

	cart.Items = nil
	cart.RecomputeTotal()
	if cart.TotalPrice != 0 {
		t.Errorf("total = %v, want 0 for empty cart", cart.TotalPrice)
	}
}

func TestUserHasRole(t *testing.T) {
	user := &User{Roles: []string{"USER", "ADMIN"}}
	if !user.HasRole("ADMIN") {
		t.Error("expected ADMIN role")
	}
	if user.HasRole("SUPPORT") {
		t.Error("unexpected SUPPORT role")
	}
}
