package waiter

import (
	"errors"
	"fmt"
	"strings"

	"padaria-backend/internal/audit"
	"padaria-backend/internal/auth"
	"padaria-backend/internal/database"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/models"
	"padaria-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateWaiterRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type CallWaiterRequest struct {
	WaiterID *uint                 `json:"waiter_id"`
	Kind     models.WaiterCallKind `json:"kind"`
}

type CallResponse struct {
	ComandaID     uint               `json:"comanda_id"`
	CallingWaiter bool               `json:"calling_waiter"`
	Call          *models.WaiterCall `json:"call,omitempty"`
}

func writeAudit(c *fiber.Ctx, id uint, action models.AuditAction, desc string, before, after any) {
	actor, ok := auth.CurrentActor(c)
	if !ok {
		return
	}
	_ = audit.WriteLog(audit.LogOptions{
		Actor:       actor,
		EntityType:  audit.EntityWaiter,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// GET /api/waiters (active only)
func ListWaitersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var waiters []models.Waiter
		if err := database.DB.Where("active = ?", true).Order("name asc").Find(&waiters).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list waiters")
		}
		return c.JSON(waiters)
	}
}

// POST /api/admin/waiters
func CreateWaiterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWaiterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Code = strings.TrimSpace(body.Code)
		if body.Name == "" || body.Code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and code are required")
		}

		var count int64
		database.DB.Model(&models.Waiter{}).Where("code = ?", body.Code).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("waiter code %s already in use", body.Code))
		}

		w := models.Waiter{Name: body.Name, Code: body.Code, Active: true}
		if err := database.DB.Create(&w).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create waiter")
		}

		writeAudit(c, w.ID, models.AuditActionCreate, fmt.Sprintf("Waiter created: %s", w.Name), nil, w)
		return c.Status(fiber.StatusCreated).JSON(w)
	}
}

// PUT /api/admin/waiters/:id/deactivate
func DeactivateWaiterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var w models.Waiter
		if err := database.DB.First(&w, id).Error; err != nil {
			return httpx.LookupError(err, "waiter not found")
		}
		before := w

		w.Active = false
		if err := database.DB.Model(&w).Update("active", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not deactivate waiter")
		}

		writeAudit(c, w.ID, models.AuditActionUpdate, fmt.Sprintf("Waiter deactivated: %s", w.Name), before, w)
		return c.JSON(w)
	}
}

// GET /api/waiters/:id/calls
func ListCallsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var w models.Waiter
		if err := database.DB.First(&w, id).Error; err != nil {
			return httpx.LookupError(err, "waiter not found")
		}

		var calls []models.WaiterCall
		if err := database.DB.Where("waiter_id = ?", id).Order("created_at desc, id desc").Find(&calls).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list calls")
		}
		return c.JSON(calls)
	}
}

// POST /api/comandas/:id/call-waiter
// Public: the QR menu on the table calls it. A waiter may be named in the body
// or as ?waiter_id=.
func CallWaiterHandler(pub realtime.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body CallWaiterRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		if body.WaiterID == nil {
			if q := c.QueryInt("waiter_id"); q > 0 {
				wid := uint(q)
				body.WaiterID = &wid
			}
		}
		if body.Kind == "" {
			body.Kind = models.WaiterCallCall
		}
		if !body.Kind.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "kind must be call, delivery or closing")
		}

		var (
			cmd  models.Comanda
			call *models.WaiterCall
		)
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Preload("Table").First(&cmd, id).Error; err != nil {
				return httpx.LookupError(err, "comanda not found")
			}
			if cmd.Status.Terminal() {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("comanda is %s", cmd.Status))
			}

			if body.WaiterID != nil {
				var w models.Waiter
				if err := tx.Where("id = ? AND active = ?", *body.WaiterID, true).First(&w).Error; err != nil {
					return httpx.LookupError(err, "waiter not found")
				}
				call = &models.WaiterCall{WaiterID: w.ID, ComandaID: cmd.ID, Kind: body.Kind}
				if err := tx.Create(call).Error; err != nil {
					return err
				}
			}

			cmd.CallingWaiter = true
			return tx.Model(&models.Comanda{}).Where("id = ?", cmd.ID).Update("calling_waiter", true).Error
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not call waiter")
		}

		ev := realtime.Event{Type: realtime.EventWaiterCalled, ComandaID: cmd.ID, Status: string(body.Kind)}
		if cmd.Table != nil {
			ev.TableNumber = cmd.Table.Number
		}
		if call != nil {
			ev.WaiterID = call.WaiterID
		}
		pub.Publish(c.UserContext(), ev)

		return c.JSON(CallResponse{ComandaID: cmd.ID, CallingWaiter: true, Call: call})
	}
}

// PUT /api/comandas/:id/acknowledge-waiter
func AcknowledgeHandler(pub realtime.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var cmd models.Comanda
		if err := database.DB.Preload("Table").First(&cmd, id).Error; err != nil {
			return httpx.LookupError(err, "comanda not found")
		}
		if err := database.DB.Model(&models.Comanda{}).Where("id = ?", cmd.ID).Update("calling_waiter", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not acknowledge call")
		}

		ev := realtime.Event{Type: realtime.EventWaiterAcknowledged, ComandaID: cmd.ID}
		if cmd.Table != nil {
			ev.TableNumber = cmd.Table.Number
		}
		pub.Publish(c.UserContext(), ev)

		return c.JSON(CallResponse{ComandaID: cmd.ID, CallingWaiter: false})
	}
}
