package catalog

import (
	"fmt"
	"strings"

	"padaria-backend/internal/audit"
	"padaria-backend/internal/auth"
	"padaria-backend/internal/database"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Available   bool            `json:"available"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Available   *bool           `json:"available"` // defaults to true
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Available   *bool            `json:"available"`
}

type AvailabilityRequest struct {
	Available bool `json:"available"`
}

func ToResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		Description: p.Description,
		Available:   p.Available,
	}
}

func toResponses(products []models.Product) []ProductResponse {
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, ToResponse(&products[i]))
	}
	return res
}

func validPrice(p decimal.Decimal) bool {
	return p.GreaterThan(decimal.Zero)
}

// GET /api/products?category=Pães (only available products)
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{}).Where("available = ?", true)
		if category := strings.TrimSpace(c.Query("category")); category != "" {
			dbq = dbq.Where("category = ?", category)
		}

		var products []models.Product
		if err := dbq.Order("category asc, name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list products")
		}
		return c.JSON(toResponses(products))
	}
}

// GET /api/admin/products, unavailable ones included
func ListAllProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Order("category asc, name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list products")
		}
		return c.JSON(toResponses(products))
	}
}

// GET /api/products/category/:category
func ListByCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		category := strings.TrimSpace(c.Params("category"))
		var products []models.Product
		if err := database.DB.
			Where("category = ? AND available = ?", category, true).
			Order("name asc").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list products")
		}
		return c.JSON(toResponses(products))
	}
}

// GET /api/products/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		categories, err := Categories()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list categories")
		}
		return c.JSON(categories)
	}
}

// Categories returns the distinct product categories in name order.
func Categories() ([]string, error) {
	categories := make([]string, 0)
	err := database.DB.Model(&models.Product{}).
		Distinct("category").
		Order("category asc").
		Pluck("category", &categories).Error
	return categories, err
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var p models.Product
		if err := database.DB.First(&p, id).Error; err != nil {
			return httpx.LookupError(err, "product not found")
		}
		return c.JSON(ToResponse(&p))
	}
}

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Category = strings.TrimSpace(body.Category)
		if body.Name == "" || body.Category == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and category are required")
		}
		if !validPrice(body.Price) {
			return fiber.NewError(fiber.StatusBadRequest, "price must be greater than zero")
		}

		p := models.Product{
			Name:        body.Name,
			Price:       body.Price.Round(2),
			Category:    body.Category,
			Description: strings.TrimSpace(body.Description),
			Available:   body.Available == nil || *body.Available,
		}
		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create product")
		}

		writeAudit(c, p.ID, models.AuditActionCreate, fmt.Sprintf("Product created: %s", p.Name), nil, p)
		return c.Status(fiber.StatusCreated).JSON(ToResponse(&p))
	}
}

// PUT /api/admin/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.First(&p, id).Error; err != nil {
			return httpx.LookupError(err, "product not found")
		}
		before := p

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name cannot be empty")
			}
			p.Name = name
		}
		if body.Category != nil {
			category := strings.TrimSpace(*body.Category)
			if category == "" {
				return fiber.NewError(fiber.StatusBadRequest, "category cannot be empty")
			}
			p.Category = category
		}
		if body.Price != nil {
			if !validPrice(*body.Price) {
				return fiber.NewError(fiber.StatusBadRequest, "price must be greater than zero")
			}
			p.Price = body.Price.Round(2)
		}
		if body.Description != nil {
			p.Description = strings.TrimSpace(*body.Description)
		}
		if body.Available != nil {
			p.Available = *body.Available
		}

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update product")
		}

		writeAudit(c, p.ID, models.AuditActionUpdate, fmt.Sprintf("Product updated: %s", p.Name), before, p)
		return c.JSON(ToResponse(&p))
	}
}

// PUT /api/admin/products/:id/availability
func SetAvailabilityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body AvailabilityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var p models.Product
		if err := database.DB.First(&p, id).Error; err != nil {
			return httpx.LookupError(err, "product not found")
		}
		before := p

		p.Available = body.Available
		if err := database.DB.Model(&p).Update("available", p.Available).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update product")
		}

		writeAudit(c, p.ID, models.AuditActionUpdate, fmt.Sprintf("Product %s available=%v", p.Name, p.Available), before, p)
		return c.JSON(ToResponse(&p))
	}
}

// DELETE /api/admin/products/:id
// Products already sold stay in the catalog; mark them unavailable instead.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.First(&p, id).Error; err != nil {
			return httpx.LookupError(err, "product not found")
		}

		var used, usedOnline int64
		database.DB.Model(&models.LineItem{}).Where("product_id = ?", id).Count(&used)
		database.DB.Model(&models.OnlineOrderItem{}).Where("product_id = ?", id).Count(&usedOnline)
		if used+usedOnline > 0 {
			return fiber.NewError(fiber.StatusConflict, "product has been ordered, mark it unavailable instead")
		}

		if err := database.DB.Delete(&models.Product{}, id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete product")
		}

		writeAudit(c, p.ID, models.AuditActionDelete, fmt.Sprintf("Product deleted: %s", p.Name), p, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func writeAudit(c *fiber.Ctx, id uint, action models.AuditAction, desc string, before, after any) {
	actor, ok := auth.CurrentActor(c)
	if !ok {
		return
	}
	_ = audit.WriteLog(audit.LogOptions{
		Actor:       actor,
		EntityType:  audit.EntityProduct,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}
