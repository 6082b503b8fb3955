package models

import "time"

type Waiter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name"`
	Code      string    `gorm:"size:20;not null;uniqueIndex" json:"code"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WaiterCallKind string

const (
	WaiterCallCall     WaiterCallKind = "call"
	WaiterCallDelivery WaiterCallKind = "delivery"
	WaiterCallClosing  WaiterCallKind = "closing"
)

func (k WaiterCallKind) Valid() bool {
	return k == WaiterCallCall || k == WaiterCallDelivery || k == WaiterCallClosing
}

// WaiterCall is the audit trail of which waiter was sent to which comanda.
type WaiterCall struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	WaiterID  uint           `gorm:"not null;index" json:"waiter_id"`
	Waiter    *Waiter        `json:"waiter,omitempty"`
	ComandaID uint           `gorm:"not null;index" json:"comanda_id"`
	Kind      WaiterCallKind `gorm:"size:20;not null" json:"kind"`
	CreatedAt time.Time      `json:"created_at"`
}
