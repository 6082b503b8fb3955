package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type ComandaStatus string

const (
	ComandaOpen            ComandaStatus = "open"
	ComandaPrinted         ComandaStatus = "printed"
	ComandaAwaitingPayment ComandaStatus = "awaiting_payment"
	ComandaClosed          ComandaStatus = "closed"
	ComandaCancelled       ComandaStatus = "cancelled"
)

// ActiveComandaStatuses are the states in which a comanda still holds its table.
var ActiveComandaStatuses = []ComandaStatus{ComandaOpen, ComandaPrinted}

func (s ComandaStatus) Terminal() bool {
	return s == ComandaClosed || s == ComandaCancelled
}

func (s ComandaStatus) Valid() bool {
	switch s {
	case ComandaOpen, ComandaPrinted, ComandaAwaitingPayment, ComandaClosed, ComandaCancelled:
		return true
	}
	return false
}

// Comanda is the open tab of one physical table.
type Comanda struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TableID       uint            `gorm:"not null;index" json:"table_id"`
	Table         *Table          `json:"table,omitempty"`
	Status        ComandaStatus   `gorm:"size:20;not null;index" json:"status"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CallingWaiter bool            `gorm:"not null;default:false" json:"calling_waiter"`

	OpenedAt    time.Time  `gorm:"not null" json:"opened_at"`
	PrintedAt   *time.Time `json:"printed_at"`
	ClosedAt    *time.Time `json:"closed_at"`
	FinalizedAt *time.Time `json:"finalized_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	Items []LineItem `json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewComanda(tableID uint, notes string, now time.Time) *Comanda {
	return &Comanda{
		TableID:  tableID,
		Status:   ComandaOpen,
		Total:    decimal.Zero,
		Notes:    notes,
		OpenedAt: now,
	}
}

func (c *Comanda) transitionErr(action string) error {
	return fmt.Errorf("%w: cannot %s a comanda in status %q", ErrInvalidTransition, action, c.Status)
}

// AddItem accumulates the item's subtotal. A printed comanda goes back to open
// since the kitchen has not seen the new item yet.
func (c *Comanda) AddItem(item *LineItem) error {
	if c.Status != ComandaOpen && c.Status != ComandaPrinted {
		return c.transitionErr("add items to")
	}
	c.Total = c.Total.Add(item.Subtotal())
	if c.Status == ComandaPrinted {
		c.Status = ComandaOpen
	}
	return nil
}

func (c *Comanda) MarkPrinted(now time.Time) error {
	if c.Status != ComandaOpen && c.Status != ComandaPrinted {
		return c.transitionErr("print")
	}
	c.Status = ComandaPrinted
	c.PrintedAt = &now
	return nil
}

// Close moves the comanda to awaiting_payment. Freeing the table is up to the caller.
func (c *Comanda) Close(now time.Time) error {
	if c.Status != ComandaOpen && c.Status != ComandaPrinted {
		return c.transitionErr("close")
	}
	c.Status = ComandaAwaitingPayment
	c.ClosedAt = &now
	return nil
}

func (c *Comanda) Finalize(now time.Time) error {
	if c.Status != ComandaAwaitingPayment {
		return c.transitionErr("finalize")
	}
	c.Status = ComandaClosed
	c.FinalizedAt = &now
	c.CallingWaiter = false
	return nil
}

// Cancel works from any non-terminal state and leaves the table untouched.
func (c *Comanda) Cancel(now time.Time) error {
	if c.Status.Terminal() {
		return c.transitionErr("cancel")
	}
	c.Status = ComandaCancelled
	c.CancelledAt = &now
	c.CallingWaiter = false
	return nil
}

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
)

func ParseItemStatus(s string) (ItemStatus, error) {
	switch st := ItemStatus(s); st {
	case ItemPending, ItemPreparing, ItemReady:
		return st, nil
	}
	return "", fmt.Errorf("unknown item status %q", s)
}

// LineItem is one product inside a comanda, priced at order time.
type LineItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ComandaID uint            `gorm:"not null;index" json:"comanda_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Notes     string          `gorm:"type:text" json:"notes"`
	Status    ItemStatus      `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Aggregate item progress reported to the table tablet.
const (
	AggregateReady     = "ready"
	AggregatePreparing = "preparing"
	AggregatePending   = "pending"
	AggregatePartial   = "partial"
)

// AggregateItemStatus folds item statuses into one kitchen progress value.
// An empty comanda counts as pending.
func AggregateItemStatus(statuses []ItemStatus) string {
	var ready, preparing, pending int
	for _, s := range statuses {
		switch s {
		case ItemReady:
			ready++
		case ItemPreparing:
			preparing++
		case ItemPending:
			pending++
		}
	}
	switch {
	case len(statuses) > 0 && ready == len(statuses):
		return AggregateReady
	case preparing > 0:
		return AggregatePreparing
	case pending == len(statuses):
		return AggregatePending
	default:
		return AggregatePartial
	}
}
