package comanda

import (
	"errors"
	"time"

	"padaria-backend/internal/database"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/models"
	"padaria-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateComandaRequest struct {
	TableID uint   `json:"table_id"`
	Notes   string `json:"notes"`
}

type AddItemRequest struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

type ItemStatusRequest struct {
	Status string `json:"status"`
}

type ItemResponse struct {
	ID          uint              `json:"id"`
	ProductID   uint              `json:"product_id"`
	ProductName string            `json:"product_name"`
	Quantity    int               `json:"quantity"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Notes       string            `json:"notes"`
	Status      models.ItemStatus `json:"status"`
}

type ComandaResponse struct {
	ID            uint                 `json:"id"`
	TableID       uint                 `json:"table_id"`
	TableNumber   int                  `json:"table_number"`
	Status        models.ComandaStatus `json:"status"`
	Total         decimal.Decimal      `json:"total"`
	Notes         string               `json:"notes"`
	CallingWaiter bool                 `json:"calling_waiter"`
	OpenedAt      time.Time            `json:"opened_at"`
	PrintedAt     *time.Time           `json:"printed_at"`
	ClosedAt      *time.Time           `json:"closed_at"`
	FinalizedAt   *time.Time           `json:"finalized_at"`
	CancelledAt   *time.Time           `json:"cancelled_at"`
	ItemCount     int                  `json:"item_count"`
	Items         []ItemResponse       `json:"items,omitempty"`
}

type AggregateStatusResponse struct {
	ComandaID     uint                 `json:"comanda_id"`
	Status        models.ComandaStatus `json:"status"`
	ItemsStatus   string               `json:"items_status"`
	Pending       int                  `json:"pending"`
	Preparing     int                  `json:"preparing"`
	Ready         int                  `json:"ready"`
	CallingWaiter bool                 `json:"calling_waiter"`
}

func itemResponse(i *models.LineItem) ItemResponse {
	res := ItemResponse{
		ID:        i.ID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
		Subtotal:  i.Subtotal(),
		Notes:     i.Notes,
		Status:    i.Status,
	}
	if i.Product != nil {
		res.ProductName = i.Product.Name
	}
	return res
}

// ToResponse renders a comanda; items are listed only when they were loaded.
func ToResponse(c *models.Comanda, withItems bool) ComandaResponse {
	res := ComandaResponse{
		ID:            c.ID,
		TableID:       c.TableID,
		Status:        c.Status,
		Total:         c.Total,
		Notes:         c.Notes,
		CallingWaiter: c.CallingWaiter,
		OpenedAt:      c.OpenedAt,
		PrintedAt:     c.PrintedAt,
		ClosedAt:      c.ClosedAt,
		FinalizedAt:   c.FinalizedAt,
		CancelledAt:   c.CancelledAt,
		ItemCount:     len(c.Items),
	}
	if c.Table != nil {
		res.TableNumber = c.Table.Number
	}
	if withItems {
		res.Items = make([]ItemResponse, 0, len(c.Items))
		for i := range c.Items {
			res.Items = append(res.Items, itemResponse(&c.Items[i]))
		}
	}
	return res
}

func serviceError(err error) error {
	switch {
	case errors.Is(err, ErrComandaNotFound), errors.Is(err, ErrTableNotFound),
		errors.Is(err, ErrProductNotFound), errors.Is(err, ErrItemNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrTableBusy):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrProductUnavailable), errors.Is(err, ErrInvalidQuantity):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return httpx.TransitionError(err)
}

func tableNumber(c *models.Comanda) int {
	if c.Table != nil {
		return c.Table.Number
	}
	return 0
}

func list(c *fiber.Ctx, statuses ...models.ComandaStatus) error {
	dbq := database.DB.Preload("Table").Preload("Items")
	if len(statuses) > 0 {
		dbq = dbq.Where("status IN ?", statuses)
	}

	var comandas []models.Comanda
	if err := dbq.Order("opened_at desc, id desc").Find(&comandas).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list comandas")
	}

	res := make([]ComandaResponse, 0, len(comandas))
	for i := range comandas {
		res = append(res, ToResponse(&comandas[i], false))
	}
	return c.JSON(res)
}

// GET /api/comandas?status=open
func ListComandasHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s := c.Query("status"); s != "" {
			st := models.ComandaStatus(s)
			if !st.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "unknown status "+s)
			}
			return list(c, st)
		}
		return list(c)
	}
}

// GET /api/comandas/open
func ListOpenHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return list(c, models.ComandaOpen)
	}
}

// GET /api/comandas/for-printing
// Active comandas that have something to print, oldest first.
func ListForPrintingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var comandas []models.Comanda
		err := database.DB.Preload("Table").Preload("Items.Product").
			Where("status IN ?", models.ActiveComandaStatuses).
			Where("EXISTS (SELECT 1 FROM line_items WHERE line_items.comanda_id = comandas.id)").
			Order("opened_at asc").
			Find(&comandas).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list comandas")
		}

		res := make([]ComandaResponse, 0, len(comandas))
		for i := range comandas {
			res = append(res, ToResponse(&comandas[i], true))
		}
		return c.JSON(res)
	}
}

// GET /api/comandas/calling
func ListCallingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var comandas []models.Comanda
		err := database.DB.Preload("Table").Preload("Items").
			Where("calling_waiter = ?", true).
			Where("status NOT IN ?", []models.ComandaStatus{models.ComandaClosed, models.ComandaCancelled}).
			Order("updated_at asc").
			Find(&comandas).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list comandas")
		}

		res := make([]ComandaResponse, 0, len(comandas))
		for i := range comandas {
			res = append(res, ToResponse(&comandas[i], false))
		}
		return c.JSON(res)
	}
}

// POST /api/comandas
func CreateComandaHandler(pub realtime.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateComandaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.TableID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "table_id is required")
		}

		cmd, err := Open(body.TableID, body.Notes, time.Now())
		if err != nil {
			return serviceError(err)
		}

		pub.Publish(c.UserContext(), realtime.Event{
			Type:        realtime.EventComandaOpened,
			ComandaID:   cmd.ID,
			TableNumber: tableNumber(cmd),
			Status:      string(cmd.Status),
		})
		return c.Status(fiber.StatusCreated).JSON(ToResponse(cmd, true))
	}
}

// GET /api/comandas/:id
func GetComandaHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		cmd, err := Load(database.DB, id)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(ToResponse(cmd, true))
	}
}

// POST /api/comandas/:id/items
func AddItemHandler(pub realtime.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body AddItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
		}
		if body.Quantity == 0 {
			body.Quantity = 1
		}

		item, cmd, err := AddItem(id, body.ProductID, body.Quantity, body.Notes)
		if err != nil {
			return serviceError(err)
		}

		pub.Publish(c.UserContext(), realtime.Event{
			Type:        realtime.EventComandaItemAdded,
			ComandaID:   cmd.ID,
			TableNumber: tableNumber(cmd),
			Status:      string(cmd.Status),
		})
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"item":    itemResponse(item),
			"total":   cmd.Total,
			"status":  cmd.Status,
			"comanda": cmd.ID,
		})
	}
}

// GET /api/comandas/:id/items
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		cmd, err := Load(database.DB, id)
		if err != nil {
			return serviceError(err)
		}

		res := make([]ItemResponse, 0, len(cmd.Items))
		for i := range cmd.Items {
			res = append(res, itemResponse(&cmd.Items[i]))
		}
		return c.JSON(res)
	}
}

// PUT /api/items/:id/status?status=ready
// The status may also come as a JSON body.
func UpdateItemStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		raw := c.Query("status")
		if raw == "" && len(c.Body()) > 0 {
			var body ItemStatusRequest
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
			raw = body.Status
		}
		status, err := models.ParseItemStatus(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		item, err := SetItemStatus(id, status)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(itemResponse(item))
	}
}

// GET /api/comandas/:id/status
func AggregateStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		cmd, err := Load(database.DB, id)
		if err != nil {
			return serviceError(err)
		}

		res := AggregateStatusResponse{
			ComandaID:     cmd.ID,
			Status:        cmd.Status,
			CallingWaiter: cmd.CallingWaiter,
		}
		statuses := make([]models.ItemStatus, 0, len(cmd.Items))
		for _, it := range cmd.Items {
			statuses = append(statuses, it.Status)
			switch it.Status {
			case models.ItemPending:
				res.Pending++
			case models.ItemPreparing:
				res.Preparing++
			case models.ItemReady:
				res.Ready++
			}
		}
		res.ItemsStatus = models.AggregateItemStatus(statuses)
		return c.JSON(res)
	}
}

// PUT /api/comandas/:id/print, /close, /finalize, /cancel
func TransitionHandler(action Action, pub realtime.Publisher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		cmd, err := Transition(id, action, time.Now())
		if err != nil {
			return serviceError(err)
		}

		pub.Publish(c.UserContext(), realtime.Event{
			Type:        realtime.EventComandaStatus,
			ComandaID:   cmd.ID,
			TableNumber: tableNumber(cmd),
			Status:      string(cmd.Status),
		})
		return c.JSON(ToResponse(cmd, true))
	}
}

// GET /api/comandas/:id/ticket?encoding=cp850
func TicketHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		cmd, err := Load(database.DB, id)
		if err != nil {
			return serviceError(err)
		}

		text := RenderTicket(cmd, time.Now())
		switch enc := c.Query("encoding", EncodingUTF8); enc {
		case EncodingUTF8:
			c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
			return c.SendString(text)
		case EncodingCP850:
			raw, err := EncodeCP850(text)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not encode ticket")
			}
			c.Set(fiber.HeaderContentType, "text/plain; charset=IBM850")
			return c.Send(raw)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "unknown encoding "+enc)
		}
	}
}
