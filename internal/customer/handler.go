package customer

import (
	"errors"
	"fmt"
	"strings"

	"padaria-backend/internal/audit"
	"padaria-backend/internal/auth"
	"padaria-backend/internal/database"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// NormalizePhone keeps digits and a leading '+', so "(11) 9999-0000" and
// "11 99990000" are the same customer. Input without digits normalizes to "".
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	if digits == 0 {
		return ""
	}
	return b.String()
}

// FindOrCreate links an order to the customer with this phone, creating one on
// first contact. An existing customer keeps their stored name and address.
func FindOrCreate(tx *gorm.DB, name, phone, address string) (*models.Customer, error) {
	phone = NormalizePhone(phone)
	var cust models.Customer
	err := tx.Where("phone = ?", phone).First(&cust).Error
	if err == nil {
		return &cust, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cust = models.Customer{Name: name, Phone: phone, Address: address}
	if err := tx.Create(&cust).Error; err != nil {
		return nil, err
	}
	return &cust, nil
}

// GET /api/customers
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customers []models.Customer
		if err := database.DB.Order("name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list customers")
		}
		return c.JSON(customers)
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var cust models.Customer
		if err := database.DB.First(&cust, id).Error; err != nil {
			return httpx.LookupError(err, "customer not found")
		}
		return c.JSON(cust)
	}
}

// GET /api/customers/phone/:phone
func GetByPhoneHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		phone := NormalizePhone(c.Params("phone"))
		if phone == "" {
			return fiber.NewError(fiber.StatusBadRequest, "invalid phone")
		}
		var cust models.Customer
		if err := database.DB.Where("phone = ?", phone).First(&cust).Error; err != nil {
			return httpx.LookupError(err, "customer not found")
		}
		return c.JSON(cust)
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Phone = NormalizePhone(body.Phone)
		if body.Name == "" || body.Phone == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name and phone are required")
		}

		var count int64
		database.DB.Model(&models.Customer{}).Where("phone = ?", body.Phone).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "a customer with this phone already exists")
		}

		cust := models.Customer{Name: body.Name, Phone: body.Phone, Address: strings.TrimSpace(body.Address)}
		if err := database.DB.Create(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create customer")
		}

		if actor, ok := auth.CurrentActor(c); ok {
			_ = audit.WriteLog(audit.LogOptions{
				Actor:       actor,
				EntityType:  audit.EntityCustomer,
				EntityID:    cust.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Customer created: %s", cust.Name),
				After:       cust,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(cust)
	}
}
