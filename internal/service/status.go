package service

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pizzastore/api/internal/enum"
)

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// StatusPolicy is the explicit order status transition table.
type StatusPolicy struct {
	transitions map[string][]string
}

// NewStatusPolicy builds the lifecycle
// pending → confirmed → preparing → baking → out_for_delivery → delivered.
// cancelPolicy decides where "cancelled" is reachable from: every
// non-terminal status (any_active) or only pending (pending_only).
func NewStatusPolicy(cancelPolicy string) *StatusPolicy {
	t := map[string][]string{
		enum.OrderStatusPending:        {enum.OrderStatusConfirmed},
		enum.OrderStatusConfirmed:      {enum.OrderStatusPreparing},
		enum.OrderStatusPreparing:      {enum.OrderStatusBaking},
		enum.OrderStatusBaking:         {enum.OrderStatusOutForDelivery},
		enum.OrderStatusOutForDelivery: {enum.OrderStatusDelivered},
	}

	if cancelPolicy == enum.CancelPolicyPendingOnly {
		t[enum.OrderStatusPending] = append(t[enum.OrderStatusPending], enum.OrderStatusCancelled)
	} else {
		for from := range t {
			t[from] = append(t[from], enum.OrderStatusCancelled)
		}
	}

	return &StatusPolicy{transitions: t}
}

// IsValidStatus reports whether s belongs to the fixed status set.
func IsValidStatus(s string) bool {
	return slices.Contains(enum.OrderStatuses, s)
}

// IsTerminal reports whether no transition leaves s.
func (p *StatusPolicy) IsTerminal(s string) bool {
	return len(p.transitions[s]) == 0
}

// Allowed lists the statuses reachable from current in one step.
func (p *StatusPolicy) Allowed(current string) []string {
	return slices.Clone(p.transitions[current])
}

// Validate returns ErrInvalidStatus when next is not a known status and
// ErrInvalidTransition when it is not reachable from current.
func (p *StatusPolicy) Validate(current, next string) error {
	if !IsValidStatus(next) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if !slices.Contains(p.transitions[current], next) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, next)
	}
	return nil
}
