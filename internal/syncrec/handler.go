package syncrec

import (
	"encoding/json"
	"strings"
	"time"

	"padaria-backend/internal/database"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateSyncRequest struct {
	DeviceID  string               `json:"device_id"`
	Operation models.SyncOperation `json:"operation"`
	TableName string               `json:"table_name"`
	Payload   json.RawMessage      `json:"payload"`
}

// POST /api/sync
func CreateSyncHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSyncRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.DeviceID = strings.TrimSpace(body.DeviceID)
		body.TableName = strings.TrimSpace(body.TableName)
		switch {
		case body.DeviceID == "" || body.TableName == "":
			return fiber.NewError(fiber.StatusBadRequest, "device_id and table_name are required")
		case !body.Operation.Valid():
			return fiber.NewError(fiber.StatusBadRequest, "operation must be create, update or delete")
		case len(body.Payload) == 0 || !json.Valid(body.Payload):
			return fiber.NewError(fiber.StatusBadRequest, "payload must be valid JSON")
		}

		rec := models.SyncRecord{
			UUID:        uuid.NewString(),
			DeviceID:    body.DeviceID,
			Operation:   body.Operation,
			TargetTable: body.TableName,
			Payload:     string(body.Payload),
		}
		if err := database.DB.Create(&rec).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not queue sync record")
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// GET /api/sync/pending (oldest first, the order they must be replayed in)
func PendingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Where("synced = ?", false)
		if device := c.Query("device_id"); device != "" {
			dbq = dbq.Where("device_id = ?", device)
		}

		var recs []models.SyncRecord
		if err := dbq.Order("created_at asc, id asc").Find(&recs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list sync records")
		}
		return c.JSON(recs)
	}
}

// PUT /api/sync/:id/mark-synced
// Marking twice keeps the first synced_at.
func MarkSyncedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var rec models.SyncRecord
		if err := database.DB.First(&rec, id).Error; err != nil {
			return httpx.LookupError(err, "sync record not found")
		}
		if rec.Synced {
			return c.JSON(rec)
		}

		now := time.Now()
		rec.Synced = true
		rec.SyncedAt = &now
		if err := database.DB.Model(&models.SyncRecord{}).Where("id = ?", rec.ID).Updates(map[string]any{
			"synced":    true,
			"synced_at": now,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not mark record")
		}
		return c.JSON(rec)
	}
}
