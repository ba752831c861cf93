package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPreparing      = "preparing"
	OrderStatusBaking         = "baking"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusBaking,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ── Group B: Closed sets (CHECK constrained in DB) ──

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	SizeRegular = "regular"
	SizeMedium  = "medium"
	SizeLarge   = "large"
)

// ── Group C: Configurable policies ──

const (
	CancelPolicyAnyActive   = "any_active"
	CancelPolicyPendingOnly = "pending_only"
)

// ── Group D: Feed event types ──

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)
