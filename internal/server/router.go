package server

import (
	"padaria-backend/internal/audit"
	"padaria-backend/internal/auth"
	"padaria-backend/internal/catalog"
	"padaria-backend/internal/comanda"
	"padaria-backend/internal/config"
	"padaria-backend/internal/customer"
	"padaria-backend/internal/dashboard"
	"padaria-backend/internal/httpx"
	"padaria-backend/internal/menu"
	"padaria-backend/internal/models"
	"padaria-backend/internal/online"
	"padaria-backend/internal/realtime"
	"padaria-backend/internal/reservation"
	"padaria-backend/internal/syncrec"
	"padaria-backend/internal/tables"
	"padaria-backend/internal/waiter"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// New builds the API. Public routes are registered before the JWT middleware
// so they never reach it.
func New(cfg *config.Config, pub realtime.Publisher) *fiber.App {
	if pub == nil {
		pub = realtime.Nop
	}

	app := fiber.New(fiber.Config{
		AppName:      "padaria-backend",
		ErrorHandler: httpx.ErrorHandler,
		BodyLimit:    10 * 1024 * 1024, // spreadsheet imports
	})

	app.Use(recover.New())
	app.Use(httpx.RequestID())
	app.Use(httpx.Logger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOriginList(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Public: web menu, table tablets and delivery customers
	api.Get("/menu/:table_id", menu.MenuHandler())
	api.Get("/products", catalog.ListProductsHandler())
	api.Get("/products/categories", catalog.ListCategoriesHandler())
	api.Get("/products/category/:category", catalog.ListByCategoryHandler())
	api.Get("/products/:id", catalog.GetProductHandler())
	api.Post("/comandas/:id/call-waiter", waiter.CallWaiterHandler(pub))
	api.Post("/online-orders", online.CreateOrderHandler(pub))
	api.Get("/online-orders/track/:code", online.TrackOrderHandler())

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateUserHandler())
	adminRoutes.Post("/tables", tables.CreateTableHandler())
	adminRoutes.Get("/products", catalog.ListAllProductsHandler())
	adminRoutes.Post("/products", catalog.CreateProductHandler())
	adminRoutes.Post("/products/import", catalog.ImportProductsHandler())
	adminRoutes.Put("/products/:id", catalog.UpdateProductHandler())
	adminRoutes.Put("/products/:id/availability", catalog.SetAvailabilityHandler())
	adminRoutes.Delete("/products/:id", catalog.DeleteProductHandler())
	adminRoutes.Post("/waiters", waiter.CreateWaiterHandler())
	adminRoutes.Put("/waiters/:id/deactivate", waiter.DeactivateWaiterHandler())
	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	// Tables
	protected.Get("/tables", tables.ListTablesHandler())
	protected.Get("/tables/:id", tables.GetTableHandler())
	protected.Put("/tables/:id/reserve", tables.ReserveTableHandler())
	protected.Put("/tables/:id/release", tables.ReleaseTableHandler())
	protected.Get("/tables/:id/menu-link", tables.MenuLinkHandler(cfg))

	// Comandas
	protected.Get("/comandas", comanda.ListComandasHandler())
	protected.Get("/comandas/open", comanda.ListOpenHandler())
	protected.Get("/comandas/for-printing", comanda.ListForPrintingHandler())
	protected.Get("/comandas/calling", comanda.ListCallingHandler())
	protected.Post("/comandas", comanda.CreateComandaHandler(pub))
	protected.Get("/comandas/:id", comanda.GetComandaHandler())
	protected.Post("/comandas/:id/items", comanda.AddItemHandler(pub))
	protected.Get("/comandas/:id/items", comanda.ListItemsHandler())
	protected.Get("/comandas/:id/status", comanda.AggregateStatusHandler())
	protected.Get("/comandas/:id/ticket", comanda.TicketHandler())
	protected.Put("/comandas/:id/print", comanda.TransitionHandler(comanda.ActionPrint, pub))
	protected.Put("/comandas/:id/close", comanda.TransitionHandler(comanda.ActionClose, pub))
	protected.Put("/comandas/:id/finalize", comanda.TransitionHandler(comanda.ActionFinalize, pub))
	protected.Put("/comandas/:id/cancel", comanda.TransitionHandler(comanda.ActionCancel, pub))
	protected.Put("/comandas/:id/acknowledge-waiter", waiter.AcknowledgeHandler(pub))
	protected.Put("/items/:id/status", comanda.UpdateItemStatusHandler())

	// Waiters
	protected.Get("/waiters", waiter.ListWaitersHandler())
	protected.Get("/waiters/:id/calls", waiter.ListCallsHandler())

	// Online orders
	protected.Get("/online-orders", online.ListOrdersHandler())
	protected.Get("/online-orders/:id", online.GetOrderHandler())
	protected.Put("/online-orders/:id/status", online.UpdateStatusHandler(pub))

	// Customers
	protected.Get("/customers", customer.ListCustomersHandler())
	protected.Get("/customers/phone/:phone", customer.GetByPhoneHandler())
	protected.Get("/customers/:id", customer.GetCustomerHandler())
	protected.Post("/customers", customer.CreateCustomerHandler())

	// Reservations
	protected.Get("/reservations", reservation.ListReservationsHandler())
	protected.Get("/reservations/table/:table_id", reservation.ListByTableHandler())
	protected.Get("/reservations/:id", reservation.GetReservationHandler())
	protected.Post("/reservations", reservation.CreateReservationHandler())
	protected.Put("/reservations/:id/cancel", reservation.ResolveHandler(models.ReservationCancelled))
	protected.Put("/reservations/:id/complete", reservation.ResolveHandler(models.ReservationCompleted))

	// Offline sync
	protected.Post("/sync", syncrec.CreateSyncHandler())
	protected.Get("/sync/pending", syncrec.PendingHandler())
	protected.Put("/sync/:id/mark-synced", syncrec.MarkSyncedHandler())

	// Dashboard
	protected.Get("/dashboard/sales-chart", dashboard.SalesChartHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	return app
}
