package models

import "time"

type TableStatus string

const (
	TableFree     TableStatus = "free"
	TableOccupied TableStatus = "occupied"
	TableReserved TableStatus = "reserved"
)

type Table struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Number    int         `gorm:"not null;uniqueIndex" json:"number"`
	Status    TableStatus `gorm:"size:20;not null;default:free" json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	Comandas []Comanda `json:"-"`
}
