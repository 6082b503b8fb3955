package online

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"padaria-backend/internal/customer"
	"padaria-backend/internal/database"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/models"
	"padaria-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderItemRequest struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

type CreateOrderRequest struct {
	CustomerName  string               `json:"customer_name"`
	Phone         string               `json:"phone"`
	Address       string               `json:"address"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Notes         string               `json:"notes"`
	Items         []OrderItemRequest   `json:"items"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type OrderItemResponse struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Notes       string          `json:"notes"`
}

type OrderResponse struct {
	ID            uint                     `json:"id"`
	TrackingCode  string                   `json:"tracking_code"`
	CustomerID    *uint                    `json:"customer_id"`
	CustomerName  string                   `json:"customer_name"`
	Phone         string                   `json:"phone"`
	Address       string                   `json:"address"`
	PaymentMethod models.PaymentMethod     `json:"payment_method"`
	Notes         string                   `json:"notes"`
	Total         decimal.Decimal          `json:"total"`
	Status        models.OnlineOrderStatus `json:"status"`
	CreatedAt     time.Time                `json:"created_at"`
	ConfirmedAt   *time.Time               `json:"confirmed_at"`
	DeliveredAt   *time.Time               `json:"delivered_at"`
	CancelledAt   *time.Time               `json:"cancelled_at"`
	Items         []OrderItemResponse      `json:"items,omitempty"`
}

// TrackResponse is what the customer sees; no phone or address.
type TrackResponse struct {
	TrackingCode string                   `json:"tracking_code"`
	Status       models.OnlineOrderStatus `json:"status"`
	Total        decimal.Decimal          `json:"total"`
	CreatedAt    time.Time                `json:"created_at"`
	ConfirmedAt  *time.Time               `json:"confirmed_at"`
	DeliveredAt  *time.Time               `json:"delivered_at"`
	CancelledAt  *time.Time               `json:"cancelled_at"`
	Items        []OrderItemResponse      `json:"items"`
}

func itemResponses(items []models.OnlineOrderItem) []OrderItemResponse {
	res := make([]OrderItemResponse, 0, len(items))
	for _, it := range items {
		r := OrderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal(),
			Notes:     it.Notes,
		}
		if it.Product != nil {
			r.ProductName = it.Product.Name
		}
		res = append(res, r)
	}
	return res
}

func toResponse(o *models.OnlineOrder, withItems bool) OrderResponse {
	res := OrderResponse{
		ID:            o.ID,
		TrackingCode:  o.TrackingCode,
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		Phone:         o.Phone,
		Address:       o.Address,
		PaymentMethod: o.PaymentMethod,
		Notes:         o.Notes,
		Total:         o.Total,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		ConfirmedAt:   o.ConfirmedAt,
		DeliveredAt:   o.DeliveredAt,
		CancelledAt:   o.CancelledAt,
	}
	if withItems {
		res.Items = itemResponses(o.Items)
	}
	return res
}

func loadOrder(db *gorm.DB, query string, arg any) (*models.OnlineOrder, error) {
	var o models.OnlineOrder
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.Product").
		Where(query, arg).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *CreateOrderRequest) validate() error {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.Phone = customer.NormalizePhone(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	switch {
	case r.CustomerName == "":
		return errors.New("customer_name is required")
	case r.Phone == "":
		return errors.New("phone is required")
	case r.Address == "":
		return errors.New("address is required")
	case !r.PaymentMethod.Valid():
		return errors.New("payment_method must be cash, card or pix")
	case len(r.Items) == 0:
		return errors.New("order has no items")
	}
	for i, it := range r.Items {
		if it.ProductID == 0 {
			return fmt.Errorf("item %d: product_id is required", i+1)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be at least 1", i+1)
		}
	}
	return nil
}

// POST /api/online-orders (public)
func CreateOrderHandler(pub realtime.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := body.validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		order := models.OnlineOrder{
			TrackingCode:  uuid.NewString(),
			CustomerName:  body.CustomerName,
			Phone:         body.Phone,
			Address:       body.Address,
			PaymentMethod: body.PaymentMethod,
			Notes:         strings.TrimSpace(body.Notes),
			Total:         decimal.Zero,
			Status:        models.OnlinePending,
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			for i, req := range body.Items {
				var p models.Product
				if err := tx.First(&p, req.ProductID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("item %d: product %d not found", i+1, req.ProductID))
					}
					return err
				}
				if !p.Available {
					return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("item %d: %s is not available", i+1, p.Name))
				}
				item := models.OnlineOrderItem{
					ProductID: p.ID,
					Product:   &p,
					Quantity:  req.Quantity,
					UnitPrice: p.Price,
					Notes:     req.Notes,
				}
				order.Total = order.Total.Add(item.Subtotal())
				order.Items = append(order.Items, item)
			}

			cust, err := customer.FindOrCreate(tx, body.CustomerName, body.Phone, body.Address)
			if err != nil {
				return err
			}
			order.CustomerID = &cust.ID

			items := order.Items
			order.Items = nil
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			for i := range items {
				items[i].OnlineOrderID = order.ID
				if err := tx.Omit(clause.Associations).Create(&items[i]).Error; err != nil {
					return err
				}
			}
			order.Items = items
			return nil
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create order")
		}

		pub.Publish(c.UserContext(), realtime.Event{
			Type:    realtime.EventOnlineOrderCreated,
			OrderID: order.ID,
			Status:  string(order.Status),
		})
		return c.Status(fiber.StatusCreated).JSON(toResponse(&order, true))
	}
}

// GET /api/online-orders (newest first)
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.OnlineOrder{})
		if s := c.Query("status"); s != "" {
			st, err := models.ParseOnlineOrderStatus(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			dbq = dbq.Where("status = ?", st)
		}

		var orders []models.OnlineOrder
		if err := dbq.Order("created_at desc, id desc").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list orders")
		}

		res := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			res = append(res, toResponse(&orders[i], false))
		}
		return c.JSON(res)
	}
}

// GET /api/online-orders/:id
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		o, err := loadOrder(database.DB, "id = ?", id)
		if err != nil {
			return httpx.LookupError(err, "order not found")
		}
		return c.JSON(toResponse(o, true))
	}
}

// GET /api/online-orders/track/:code (public)
func TrackOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.TrimSpace(c.Params("code"))
		if _, err := uuid.Parse(code); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		o, err := loadOrder(database.DB, "tracking_code = ?", code)
		if err != nil {
			return httpx.LookupError(err, "order not found")
		}
		return c.JSON(TrackResponse{
			TrackingCode: o.TrackingCode,
			Status:       o.Status,
			Total:        o.Total,
			CreatedAt:    o.CreatedAt,
			ConfirmedAt:  o.ConfirmedAt,
			DeliveredAt:  o.DeliveredAt,
			CancelledAt:  o.CancelledAt,
			Items:        itemResponses(o.Items),
		})
	}
}

// PUT /api/online-orders/:id/status?status=confirmed
func UpdateStatusHandler(pub realtime.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		raw := c.Query("status")
		if raw == "" && len(c.Body()) > 0 {
			var body StatusRequest
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
			raw = body.Status
		}
		next, err := models.ParseOnlineOrderStatus(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var o models.OnlineOrder
		if err := database.DB.First(&o, id).Error; err != nil {
			return httpx.LookupError(err, "order not found")
		}

		changed, err := o.SetStatus(next, time.Now())
		if err != nil {
			return httpx.TransitionError(err)
		}
		if changed {
			if err := database.DB.Omit(clause.Associations).Save(&o).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not update order")
			}
			pub.Publish(c.UserContext(), realtime.Event{
				Type:    realtime.EventOnlineOrderStatus,
				OrderID: o.ID,
				Status:  string(o.Status),
			})
		}
		return c.JSON(toResponse(&o, false))
	}
}
