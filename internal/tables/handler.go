package tables

import (
	"fmt"

	"padaria-backend/internal/audit"
	"padaria-backend/internal/auth"
	"padaria-backend/internal/config"
	"padaria-backend/internal/database"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TableResponse struct {
	ID     uint               `json:"id"`
	Number int                `json:"number"`
	Status models.TableStatus `json:"status"`
}

type CreateTableRequest struct {
	Number int `json:"number"`
}

type MenuLinkResponse struct {
	TableID     uint   `json:"table_id"`
	TableNumber int    `json:"table_number"`
	MenuURL     string `json:"menu_url"`
}

func toResponse(t *models.Table) TableResponse {
	return TableResponse{ID: t.ID, Number: t.Number, Status: t.Status}
}

func load(c *fiber.Ctx) (*models.Table, error) {
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	var t models.Table
	if err := database.DB.First(&t, id).Error; err != nil {
		return nil, httpx.LookupError(err, "table not found")
	}
	return &t, nil
}

// GET /api/tables
func ListTablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Table{})
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var tables []models.Table
		if err := dbq.Order("number asc").Find(&tables).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list tables")
		}

		res := make([]TableResponse, 0, len(tables))
		for i := range tables {
			res = append(res, toResponse(&tables[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/tables
func CreateTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Number <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "number must be positive")
		}

		var count int64
		database.DB.Model(&models.Table{}).Where("number = ?", body.Number).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("table %d already exists", body.Number))
		}

		t := models.Table{Number: body.Number, Status: models.TableFree}
		if err := database.DB.Create(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create table")
		}

		if actor, ok := auth.CurrentActor(c); ok {
			_ = audit.WriteLog(audit.LogOptions{
				Actor:       actor,
				EntityType:  audit.EntityTable,
				EntityID:    t.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Table %d created", t.Number),
				After:       t,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&t))
	}
}

// GET /api/tables/:id
func GetTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := load(c)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(t))
	}
}

// PUT /api/tables/:id/reserve
func ReserveTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := load(c)
		if err != nil {
			return err
		}
		if t.Status == models.TableOccupied {
			return fiber.NewError(fiber.StatusConflict, "table is occupied")
		}

		t.Status = models.TableReserved
		if err := database.DB.Model(t).Update("status", t.Status).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not reserve table")
		}
		return c.JSON(toResponse(t))
	}
}

// PUT /api/tables/:id/release
func ReleaseTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := load(c)
		if err != nil {
			return err
		}

		t.Status = models.TableFree
		if err := database.DB.Model(t).Update("status", t.Status).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not release table")
		}
		return c.JSON(toResponse(t))
	}
}

// GET /api/tables/:id/menu-link
// The desktop client renders the QR image from menu_url.
func MenuLinkHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := load(c)
		if err != nil {
			return err
		}
		return c.JSON(MenuLinkResponse{
			TableID:     t.ID,
			TableNumber: t.Number,
			MenuURL:     fmt.Sprintf("%s/menu/%d", cfg.PublicBaseURL, t.ID),
		})
	}
}
