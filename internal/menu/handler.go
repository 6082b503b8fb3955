// Package menu serves the table QR menu, the only catalog view customers reach
// without logging in.
package menu

import (
	"padaria-backend/internal/catalog"
	"padaria-backend/internal/database"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type Section struct {
	Category string                    `json:"category"`
	Products []catalog.ProductResponse `json:"products"`
}

type Response struct {
	TableID     uint      `json:"table_id"`
	TableNumber int       `json:"table_number"`
	ComandaID   *uint     `json:"comanda_id"`
	Categories  []Section `json:"categories"`
}

// GET /api/menu/:table_id
func MenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tableID, err := httpx.ParamID(c, "table_id")
		if err != nil {
			return err
		}

		var table models.Table
		if err := database.DB.First(&table, tableID).Error; err != nil {
			return httpx.LookupError(err, "table not found")
		}

		var products []models.Product
		if err := database.DB.Where("available = ?", true).
			Order("category asc, name asc").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load menu")
		}

		res := Response{TableID: table.ID, TableNumber: table.Number, Categories: make([]Section, 0)}

		// the customer needs the open comanda to call a waiter from the menu
		var open models.Comanda
		err = database.DB.Where("table_id = ? AND status IN ?", table.ID, models.ActiveComandaStatuses).
			Order("id desc").
			Limit(1).
			Find(&open).Error
		if err == nil && open.ID != 0 {
			res.ComandaID = &open.ID
		}

		for i := range products {
			p := &products[i]
			if n := len(res.Categories); n == 0 || res.Categories[n-1].Category != p.Category {
				res.Categories = append(res.Categories, Section{Category: p.Category})
			}
			last := &res.Categories[len(res.Categories)-1]
			last.Products = append(last.Products, catalog.ToResponse(p))
		}
		return c.JSON(res)
	}
}
