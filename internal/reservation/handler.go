package reservation

import (
	"errors"
	"strings"
	"time"

	"padaria-backend/internal/database"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateReservationRequest struct {
	TableID    uint   `json:"table_id"`
	CustomerID uint   `json:"customer_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	Time       string `json:"time"` // HH:MM
	Notes      string `json:"notes"`
}

var ErrSlotTaken = errors.New("table already reserved for this date and time")

func (r *CreateReservationRequest) validate() error {
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	if r.TableID == 0 || r.CustomerID == 0 {
		return errors.New("table_id and customer_id are required")
	}
	if _, err := time.Parse(models.ReservationDateLayout, r.Date); err != nil {
		return errors.New("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(models.ReservationTimeLayout, r.Time); err != nil {
		return errors.New("time must be HH:MM")
	}
	return nil
}

func preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Table").Preload("Customer")
}

// GET /api/reservations (active only)
func ListReservationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var res []models.Reservation
		err := preload(database.DB).
			Where("status = ?", models.ReservationActive).
			Order("date asc, time asc").
			Find(&res).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list reservations")
		}
		return c.JSON(res)
	}
}

// GET /api/reservations/:id
func GetReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var r models.Reservation
		if err := preload(database.DB).First(&r, id).Error; err != nil {
			return httpx.LookupError(err, "reservation not found")
		}
		return c.JSON(r)
	}
}

// GET /api/reservations/table/:table_id
func ListByTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tableID, err := httpx.ParamID(c, "table_id")
		if err != nil {
			return err
		}
		var res []models.Reservation
		err = preload(database.DB).
			Where("table_id = ? AND status = ?", tableID, models.ReservationActive).
			Order("date asc, time asc").
			Find(&res).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list reservations")
		}
		return c.JSON(res)
	}
}

// POST /api/reservations
func CreateReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateReservationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		r := models.Reservation{
			TableID:    body.TableID,
			CustomerID: body.CustomerID,
			Date:       body.Date,
			Time:       body.Time,
			Status:     models.ReservationActive,
			Notes:      strings.TrimSpace(body.Notes),
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var table models.Table
			if err := tx.First(&table, body.TableID).Error; err != nil {
				return httpx.LookupError(err, "table not found")
			}
			var cust models.Customer
			if err := tx.First(&cust, body.CustomerID).Error; err != nil {
				return httpx.LookupError(err, "customer not found")
			}

			var count int64
			if err := tx.Model(&models.Reservation{}).
				Where("table_id = ? AND date = ? AND time = ? AND status = ?", r.TableID, r.Date, r.Time, models.ReservationActive).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrSlotTaken
			}

			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			r.Table, r.Customer = &table, &cust
			return nil
		})
		if err != nil {
			var fe *fiber.Error
			switch {
			case errors.As(err, &fe):
				return fe
			case errors.Is(err, ErrSlotTaken):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create reservation")
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// PUT /api/reservations/:id/cancel, /complete
func ResolveHandler(next models.ReservationStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var r models.Reservation
		if err := database.DB.First(&r, id).Error; err != nil {
			return httpx.LookupError(err, "reservation not found")
		}
		if err := r.Resolve(next); err != nil {
			return httpx.TransitionError(err)
		}
		if err := database.DB.Model(&models.Reservation{}).Where("id = ?", r.ID).Update("status", r.Status).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update reservation")
		}
		return c.JSON(r)
	}
}
