package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnknownStatus = errors.New("unknown status")

type OnlineOrderStatus string

const (
	OnlinePending    OnlineOrderStatus = "pending"
	OnlineConfirmed  OnlineOrderStatus = "confirmed"
	OnlinePreparing  OnlineOrderStatus = "preparing"
	OnlineDelivering OnlineOrderStatus = "delivering"
	OnlineDelivered  OnlineOrderStatus = "delivered"
	OnlineCancelled  OnlineOrderStatus = "cancelled"
)

// position on the delivery line; cancelled sits outside it
var onlineStatusRank = map[OnlineOrderStatus]int{
	OnlinePending:    0,
	OnlineConfirmed:  1,
	OnlinePreparing:  2,
	OnlineDelivering: 3,
	OnlineDelivered:  4,
}

func ParseOnlineOrderStatus(s string) (OnlineOrderStatus, error) {
	st := OnlineOrderStatus(s)
	if _, ok := onlineStatusRank[st]; ok || st == OnlineCancelled {
		return st, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownStatus, s)
}

func (s OnlineOrderStatus) Terminal() bool {
	return s == OnlineDelivered || s == OnlineCancelled
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentPix  PaymentMethod = "pix"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentCard || p == PaymentPix
}

type OnlineOrder struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	TrackingCode  string            `gorm:"size:36;not null;uniqueIndex" json:"tracking_code"`
	CustomerID    *uint             `gorm:"index" json:"customer_id"`
	CustomerName  string            `gorm:"size:100;not null" json:"customer_name"`
	Phone         string            `gorm:"size:30;not null;index" json:"phone"`
	Address       string            `gorm:"type:text;not null" json:"address"`
	PaymentMethod PaymentMethod     `gorm:"size:20;not null" json:"payment_method"`
	Notes         string            `gorm:"type:text" json:"notes"`
	Total         decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"total"`
	Status        OnlineOrderStatus `gorm:"size:20;not null;index" json:"status"`

	ConfirmedAt *time.Time `json:"confirmed_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	Items []OnlineOrderItem `json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetStatus applies the delivery lifecycle. Setting the current status again is a
// no-op and reports changed=false, so timestamps are only stamped on first entry.
func (o *OnlineOrder) SetStatus(next OnlineOrderStatus, now time.Time) (bool, error) {
	if next == o.Status {
		return false, nil
	}
	if o.Status.Terminal() {
		return false, fmt.Errorf("%w: order is already %s", ErrInvalidTransition, o.Status)
	}
	if next != OnlineCancelled {
		nextRank, ok := onlineStatusRank[next]
		if !ok {
			return false, fmt.Errorf("%w %q", ErrUnknownStatus, next)
		}
		if nextRank < onlineStatusRank[o.Status] {
			return false, fmt.Errorf("%w: %s -> %s moves backwards", ErrInvalidTransition, o.Status, next)
		}
	}

	o.Status = next
	switch next {
	case OnlineConfirmed:
		if o.ConfirmedAt == nil {
			o.ConfirmedAt = &now
		}
	case OnlineDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case OnlineCancelled:
		o.CancelledAt = &now
	}
	return true, nil
}

type OnlineOrderItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OnlineOrderID uint            `gorm:"not null;index" json:"online_order_id"`
	ProductID     uint            `gorm:"not null;index" json:"product_id"`
	Product       *Product        `json:"product,omitempty"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Notes         string          `gorm:"type:text" json:"notes"`
}

func (i OnlineOrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
