package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order represents a material request moving through the procurement
// pipeline. Engineer fields are immutable after creation; the responsible
// manager is set exactly once when the order is claimed.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              string    `bun:",pk"`
	EngineerID      string    `bun:"engineer_id"`
	EngineerName    string    `bun:"engineer_name"`
	Materials       string    `bun:"materials"`
	CostCenter      string    `bun:"cost_center"`
	Deadline        time.Time `bun:"deadline"`
	Urgency         Urgency   `bun:"urgency"`
	Status          Status    `bun:"status"`
	ResponsibleID   *string   `bun:"responsible_id,nullzero"`
	ResponsibleName *string   `bun:"responsible_name,nullzero"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero"`
}

// Claimed reports whether a manager already owns the order.
func (o *Order) Claimed() bool {
	return o.ResponsibleID != nil && *o.ResponsibleID != ""
}

// Claimable reports whether the order can still be assumed by a manager.
func (o *Order) Claimable() bool {
	return !o.Claimed() && o.Status == StatusPending
}

// StatusUpdate is an append-only audit row recording one stage advancement.
// Nothing in the application reads these back; they exist for traceability.
type StatusUpdate struct {
	bun.BaseModel `bun:"table:order_updates"`

	ID             string    `bun:",pk"`
	OrderID        string    `bun:"order_id"`
	PreviousStatus Status    `bun:"previous_status"`
	NewStatus      Status    `bun:"new_status"`
	UpdatedBy      string    `bun:"updated_by"`
	UpdatedByName  string    `bun:"updated_by_name"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
