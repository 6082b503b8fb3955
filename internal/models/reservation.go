package models

import (
	"fmt"
	"time"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

const (
	ReservationDateLayout = "2006-01-02"
	ReservationTimeLayout = "15:04"
)

type Reservation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TableID    uint      `gorm:"not null;index:idx_reservation_slot" json:"table_id"`
	Table      *Table    `json:"table,omitempty"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Customer   *Customer `json:"customer,omitempty"`
	// stored as text so slot lookups compare the same way on every driver
	Date      string            `gorm:"size:10;not null;index:idx_reservation_slot" json:"date"`
	Time      string            `gorm:"size:5;not null" json:"time"`
	Status    ReservationStatus `gorm:"size:20;not null;index" json:"status"`
	Notes     string            `gorm:"type:text" json:"notes"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Resolve moves an active reservation to cancelled or completed.
func (r *Reservation) Resolve(next ReservationStatus) error {
	if r.Status != ReservationActive {
		return fmt.Errorf("%w: reservation is already %s", ErrInvalidTransition, r.Status)
	}
	if next != ReservationCancelled && next != ReservationCompleted {
		return fmt.Errorf("%w: %s is not a resolution", ErrInvalidTransition, next)
	}
	r.Status = next
	return nil
}
