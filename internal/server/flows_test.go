package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"padaria-backend/internal/audit"
	"padaria-backend/internal/menu"
	"padaria-backend/internal/models"
	"padaria-backend/internal/online"
	"padaria-backend/internal/realtime"
	"padaria-backend/internal/waiter"

	"github.com/shopspring/decimal"
)

func TestOnlineOrderLifecycle(t *testing.T) {
	e := newEnv(t)
	pao := e.product("Pão de Queijo", "2.50", "Pães", true)
	suco := e.product("Suco de Laranja", "6.00", "Bebidas", true)

	order := map[string]any{
		"customer_name":  "Ana",
		"phone":          "(11) 98888-7777",
		"address":        "Rua das Flores, 10",
		"payment_method": "pix",
		"items": []map[string]any{
			{"product_id": pao.ID, "quantity": 4},
			{"product_id": suco.ID, "quantity": 1, "notes": "sem gelo"},
		},
	}

	var created online.OrderResponse
	e.expect(http.StatusCreated, http.MethodPost, "/api/online-orders", "", order, &created)
	if !created.Total.Equal(decimal.RequireFromString("16")) {
		t.Fatalf("total = %s, want 16", created.Total)
	}
	if created.Status != models.OnlinePending || created.TrackingCode == "" || created.CustomerID == nil {
		t.Fatalf("created = %+v", created)
	}

	// second order from the same phone reuses the customer
	var again online.OrderResponse
	e.expect(http.StatusCreated, http.MethodPost, "/api/online-orders", "", order, &again)
	if again.CustomerID == nil || *again.CustomerID != *created.CustomerID {
		t.Fatalf("customer not reused: %v vs %v", again.CustomerID, created.CustomerID)
	}

	bad := map[string]any{"customer_name": "Ana", "phone": "11", "address": "x", "payment_method": "cheque",
		"items": []map[string]any{{"product_id": pao.ID, "quantity": 1}}}
	e.expect(http.StatusBadRequest, http.MethodPost, "/api/online-orders", "", bad, nil)

	// a phone with no digits counts as missing
	noDigits := map[string]any{"customer_name": "Ana", "phone": "+", "address": "Rua das Flores, 10", "payment_method": "pix",
		"items": []map[string]any{{"product_id": pao.ID, "quantity": 1}}}
	e.expect(http.StatusBadRequest, http.MethodPost, "/api/online-orders", "", noDigits, nil)

	statusURL := func(s string) string { return fmt.Sprintf("/api/online-orders/%d/status?status=%s", created.ID, s) }
	e.expect(http.StatusBadRequest, http.MethodPut, statusURL("lost"), e.staff, nil, nil)

	var updated online.OrderResponse
	e.expect(http.StatusOK, http.MethodPut, statusURL("confirmed"), e.staff, nil, &updated)
	confirmedAt := updated.ConfirmedAt
	if confirmedAt == nil {
		t.Fatal("confirmed_at not stamped")
	}
	e.expect(http.StatusOK, http.MethodPut, statusURL("confirmed"), e.staff, nil, &updated)
	if !updated.ConfirmedAt.Equal(*confirmedAt) {
		t.Fatalf("confirmed_at re-stamped")
	}

	e.expect(http.StatusOK, http.MethodPut, statusURL("delivered"), e.staff, nil, &updated)
	e.expect(http.StatusConflict, http.MethodPut, statusURL("preparing"), e.staff, nil, nil)
	e.expect(http.StatusConflict, http.MethodPut, statusURL("cancelled"), e.staff, nil, nil)

	var tracked online.TrackResponse
	e.expect(http.StatusOK, http.MethodGet, "/api/online-orders/track/"+created.TrackingCode, "", nil, &tracked)
	if tracked.Status != models.OnlineDelivered || len(tracked.Items) != 2 {
		t.Fatalf("tracked = %+v", tracked)
	}
	e.expect(http.StatusNotFound, http.MethodGet, "/api/online-orders/track/not-a-code", "", nil, nil)

	statusEvents := 0
	for _, typ := range e.events.types() {
		if typ == realtime.EventOnlineOrderStatus {
			statusEvents++
		}
	}
	if statusEvents != 2 {
		t.Fatalf("status events = %d, want 2 (no event for a repeated status)", statusEvents)
	}

	var list []online.OrderResponse
	e.expect(http.StatusOK, http.MethodGet, "/api/online-orders", e.staff, nil, &list)
	if len(list) != 2 || list[0].ID != again.ID {
		t.Fatalf("list not newest first: %+v", list)
	}
}

func TestCallAndAcknowledgeWaiter(t *testing.T) {
	e := newEnv(t)
	var w models.Waiter
	e.expect(http.StatusCreated, http.MethodPost, "/api/admin/waiters", e.admin, map[string]any{"name": "João", "code": "G01"}, &w)
	e.expect(http.StatusConflict, http.MethodPost, "/api/admin/waiters", e.admin, map[string]any{"name": "Outro", "code": "G01"}, nil)

	c := e.openComanda(e.table(5).ID)
	callURL := fmt.Sprintf("/api/comandas/%d/call-waiter", c.ID)

	var called waiter.CallResponse
	e.expect(http.StatusOK, http.MethodPost, callURL, "", map[string]any{"waiter_id": w.ID}, &called)
	if !called.CallingWaiter || called.Call == nil || called.Call.Kind != models.WaiterCallCall {
		t.Fatalf("call = %+v", called)
	}
	e.expect(http.StatusNotFound, http.MethodPost, callURL, "", map[string]any{"waiter_id": 999}, nil)

	var calling []struct {
		ID uint `json:"id"`
	}
	e.expect(http.StatusOK, http.MethodGet, "/api/comandas/calling", e.staff, nil, &calling)
	if len(calling) != 1 || calling[0].ID != c.ID {
		t.Fatalf("calling = %+v", calling)
	}

	var calls []models.WaiterCall
	e.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/waiters/%d/calls", w.ID), e.staff, nil, &calls)
	if len(calls) != 1 || calls[0].ComandaID != c.ID {
		t.Fatalf("calls = %+v", calls)
	}

	e.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/comandas/%d/acknowledge-waiter", c.ID), e.staff, nil, nil)
	e.expect(http.StatusOK, http.MethodGet, "/api/comandas/calling", e.staff, nil, &calling)
	if len(calling) != 0 {
		t.Fatalf("still calling: %+v", calling)
	}

	e.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/admin/waiters/%d/deactivate", w.ID), e.admin, nil, nil)
	var active []models.Waiter
	e.expect(http.StatusOK, http.MethodGet, "/api/waiters", e.staff, nil, &active)
	if len(active) != 0 {
		t.Fatalf("deactivated waiter still listed: %+v", active)
	}
	// a deactivated waiter can no longer be dispatched
	e.expect(http.StatusNotFound, http.MethodPost, callURL, "", map[string]any{"waiter_id": w.ID}, nil)
}

func TestReservationSlotConflict(t *testing.T) {
	e := newEnv(t)
	tbl := e.table(3)

	var cust models.Customer
	e.expect(http.StatusCreated, http.MethodPost, "/api/customers", e.staff,
		map[string]any{"name": "Carla", "phone": "11 97777-6666"}, &cust)
	e.expect(http.StatusConflict, http.MethodPost, "/api/customers", e.staff,
		map[string]any{"name": "Carla B", "phone": "(11) 97777-6666"}, nil)
	e.expect(http.StatusOK, http.MethodGet, "/api/customers/phone/11977776666", e.staff, nil, nil)

	slot := map[string]any{"table_id": tbl.ID, "customer_id": cust.ID, "date": "2026-12-24", "time": "19:30"}
	var first models.Reservation
	e.expect(http.StatusCreated, http.MethodPost, "/api/reservations", e.staff, slot, &first)
	e.expect(http.StatusConflict, http.MethodPost, "/api/reservations", e.staff, slot, nil)

	later := map[string]any{"table_id": tbl.ID, "customer_id": cust.ID, "date": "2026-12-24", "time": "21:00"}
	e.expect(http.StatusCreated, http.MethodPost, "/api/reservations", e.staff, later, nil)

	badDate := map[string]any{"table_id": tbl.ID, "customer_id": cust.ID, "date": "24/12/2026", "time": "19:30"}
	e.expect(http.StatusBadRequest, http.MethodPost, "/api/reservations", e.staff, badDate, nil)
	noCustomer := map[string]any{"table_id": tbl.ID, "customer_id": 999, "date": "2026-12-25", "time": "19:30"}
	e.expect(http.StatusNotFound, http.MethodPost, "/api/reservations", e.staff, noCustomer, nil)

	e.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/reservations/%d/cancel", first.ID), e.staff, nil, nil)
	e.expect(http.StatusConflict, http.MethodPut, fmt.Sprintf("/api/reservations/%d/complete", first.ID), e.staff, nil, nil)

	// the cancelled slot is free again
	e.expect(http.StatusCreated, http.MethodPost, "/api/reservations", e.staff, slot, nil)

	var byTable []models.Reservation
	e.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/reservations/table/%d", tbl.ID), e.staff, nil, &byTable)
	if len(byTable) != 2 {
		t.Fatalf("active reservations = %d, want 2", len(byTable))
	}
}

func TestSyncRecordsQueue(t *testing.T) {
	e := newEnv(t)

	e.expect(http.StatusBadRequest, http.MethodPost, "/api/sync", e.staff,
		map[string]any{"device_id": "tablet-1", "operation": "create", "table_name": "comandas"}, nil)
	e.expect(http.StatusBadRequest, http.MethodPost, "/api/sync", e.staff,
		map[string]any{"device_id": "tablet-1", "operation": "merge", "table_name": "comandas", "payload": map[string]any{}}, nil)

	var rec models.SyncRecord
	e.expect(http.StatusCreated, http.MethodPost, "/api/sync", e.staff, map[string]any{
		"device_id":  "tablet-1",
		"operation":  "create",
		"table_name": "comandas",
		"payload":    map[string]any{"table_id": 1},
	}, &rec)
	if rec.UUID == "" || rec.Synced {
		t.Fatalf("record = %+v", rec)
	}

	var pending []models.SyncRecord
	e.expect(http.StatusOK, http.MethodGet, "/api/sync/pending", e.staff, nil, &pending)
	if len(pending) != 1 {
		t.Fatalf("pending = %d", len(pending))
	}

	var marked, again models.SyncRecord
	e.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/sync/%d/mark-synced", rec.ID), e.staff, nil, &marked)
	e.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/sync/%d/mark-synced", rec.ID), e.staff, nil, &again)
	if marked.SyncedAt == nil || again.SyncedAt == nil || !marked.SyncedAt.Equal(*again.SyncedAt) {
		t.Fatalf("synced_at changed: %v then %v", marked.SyncedAt, again.SyncedAt)
	}

	e.expect(http.StatusOK, http.MethodGet, "/api/sync/pending", e.staff, nil, &pending)
	if len(pending) != 0 {
		t.Fatalf("pending after sync = %d", len(pending))
	}
}

func TestAuthAndRoles(t *testing.T) {
	e := newEnv(t)

	e.expect(http.StatusUnauthorized, http.MethodGet, "/api/tables", "", nil, nil)
	e.expect(http.StatusUnauthorized, http.MethodGet, "/api/tables", "not-a-token", nil, nil)
	e.expect(http.StatusForbidden, http.MethodPost, "/api/admin/tables", e.staff, map[string]any{"number": 9}, nil)
	e.expect(http.StatusCreated, http.MethodPost, "/api/admin/tables", e.admin, map[string]any{"number": 9}, nil)
	e.expect(http.StatusConflict, http.MethodPost, "/api/admin/tables", e.admin, map[string]any{"number": 9}, nil)

	// an admin already exists in every env
	e.expect(http.StatusForbidden, http.MethodPost, "/api/auth/register-admin", "",
		map[string]any{"name": "Dono", "email": "dono@padaria.test", "password": "password123"}, nil)

	var login struct {
		Token string `json:"token"`
	}
	e.expect(http.StatusOK, http.MethodPost, "/api/auth/login", "",
		map[string]any{"email": "ADMIN@padaria.test", "password": "password123"}, &login)
	e.expect(http.StatusOK, http.MethodGet, "/api/auth/me", login.Token, nil, nil)
	e.expect(http.StatusUnauthorized, http.MethodPost, "/api/auth/login", "",
		map[string]any{"email": "admin@padaria.test", "password": "wrong-password"}, nil)

	e.expect(http.StatusCreated, http.MethodPost, "/api/admin/users", e.admin,
		map[string]any{"name": "Garçom", "email": "garcom@padaria.test", "password": "password123"}, nil)
	e.expect(http.StatusBadRequest, http.MethodPost, "/api/admin/users", e.admin,
		map[string]any{"name": "Curto", "email": "curto@padaria.test", "password": "123"}, nil)
}

func TestAuditUndoRestoresProduct(t *testing.T) {
	e := newEnv(t)

	var p struct {
		ID    uint            `json:"id"`
		Price decimal.Decimal `json:"price"`
	}
	e.expect(http.StatusCreated, http.MethodPost, "/api/admin/products", e.admin,
		map[string]any{"name": "Sonho", "price": 5, "category": "Doces"}, &p)
	e.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/admin/products/%d", p.ID), e.admin,
		map[string]any{"price": 6.5}, &p)
	if !p.Price.Equal(decimal.RequireFromString("6.5")) {
		t.Fatalf("price after update = %s", p.Price)
	}

	var logs []audit.AuditLogResponse
	e.expect(http.StatusOK, http.MethodGet, "/api/audit-logs?entity_type=product", e.staff, nil, &logs)
	if len(logs) != 2 || logs[0].Action != models.AuditActionUpdate {
		t.Fatalf("logs = %+v", logs)
	}

	undoURL := fmt.Sprintf("/api/admin/audit-logs/%d/undo", logs[0].ID)
	e.expect(http.StatusForbidden, http.MethodPost, undoURL, e.staff, nil, nil)
	e.expect(http.StatusOK, http.MethodPost, undoURL, e.admin, nil, nil)
	e.expect(http.StatusConflict, http.MethodPost, undoURL, e.admin, nil, nil)

	e.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), "", nil, &p)
	if !p.Price.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("price after undo = %s, want 5", p.Price)
	}
}

func TestAuditUndoRefusesWhenProductWasOrdered(t *testing.T) {
	e := newEnv(t)
	tbl := e.table(4)

	var p models.Product
	e.expect(http.StatusCreated, http.MethodPost, "/api/admin/products", e.admin,
		map[string]any{"name": "Quindim", "price": 4, "category": "Doces"}, &p)
	c := e.openComanda(tbl.ID)
	e.expect(http.StatusCreated, http.MethodPost, fmt.Sprintf("/api/comandas/%d/items", c.ID), e.staff,
		map[string]any{"product_id": p.ID, "quantity": 1}, nil)

	var logs []audit.AuditLogResponse
	e.expect(http.StatusOK, http.MethodGet, "/api/audit-logs?entity_type=product", e.staff, nil, &logs)
	if len(logs) != 1 || logs[0].Action != models.AuditActionCreate {
		t.Fatalf("logs = %+v", logs)
	}

	var res struct {
		Error string `json:"error"`
	}
	e.expect(http.StatusConflict, http.MethodPost, fmt.Sprintf("/api/admin/audit-logs/%d/undo", logs[0].ID), e.admin, nil, &res)
	if strings.Contains(strings.ToUpper(res.Error), "FOREIGN KEY") {
		t.Fatalf("driver text leaked: %q", res.Error)
	}

	var count int64
	e.db.Model(&models.Product{}).Where("id = ?", p.ID).Count(&count)
	if count != 1 {
		t.Fatal("ordered product was deleted by undo")
	}
}

func TestPublicMenu(t *testing.T) {
	e := newEnv(t)
	tbl := e.table(7)
	e.product("Pão Francês", "0.50", "Pães", true)
	e.product("Brigadeiro", "3.00", "Doces", true)
	e.product("Torta", "9.00", "Doces", false)

	var m menu.Response
	e.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/menu/%d", tbl.ID), "", nil, &m)
	if m.TableNumber != 7 || m.ComandaID != nil {
		t.Fatalf("menu = %+v", m)
	}
	if len(m.Categories) != 2 || m.Categories[0].Category != "Doces" || len(m.Categories[0].Products) != 1 {
		t.Fatalf("categories = %+v", m.Categories)
	}

	c := e.openComanda(tbl.ID)
	e.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/menu/%d", tbl.ID), "", nil, &m)
	if m.ComandaID == nil || *m.ComandaID != c.ID {
		t.Fatalf("menu comanda = %v, want %d", m.ComandaID, c.ID)
	}

	e.expect(http.StatusNotFound, http.MethodGet, "/api/menu/999", "", nil, nil)

	var link struct {
		MenuURL string `json:"menu_url"`
	}
	e.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/tables/%d/menu-link", tbl.ID), e.staff, nil, &link)
	if want := fmt.Sprintf("http://padaria.test/menu/%d", tbl.ID); link.MenuURL != want {
		t.Fatalf("menu_url = %s, want %s", link.MenuURL, want)
	}
}
