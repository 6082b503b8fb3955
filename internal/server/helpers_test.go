package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"padaria-backend/internal/auth"
	"padaria-backend/internal/config"
	"padaria-backend/internal/database/dbtest"
	"padaria-backend/internal/models"
	"padaria-backend/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(_ context.Context, e realtime.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []realtime.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	t      *testing.T
	app    *fiber.App
	db     *gorm.DB
	events *recorder
	admin  string // bearer tokens
	staff  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	cfg := &config.Config{
		JWTSecret:     "test-secret-test-secret-test-secret",
		CORSOrigins:   "*",
		PublicBaseURL: "http://padaria.test",
	}
	rec := &recorder{}
	e := &env{t: t, app: New(cfg, rec), db: db, events: rec}
	e.admin = e.token(cfg, "admin@padaria.test", models.RoleAdmin)
	e.staff = e.token(cfg, "caixa@padaria.test", models.RoleStaff)
	return e
}

func (e *env) token(cfg *config.Config, email string, role models.UserRole) string {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		e.t.Fatal(err)
	}
	u := models.User{Name: string(role), Email: email, PasswordHash: string(hash), Role: role}
	if err := e.db.Create(&u).Error; err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	tok, err := auth.GenerateToken(cfg.JWTSecret, &u)
	if err != nil {
		e.t.Fatal(err)
	}
	return tok
}

// do sends a request; body is JSON-encoded unless it is already a []byte.
func (e *env) do(method, path, token string, body any) (int, []byte) {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

// expect fails the test unless the status matches, then decodes into v.
func (e *env) expect(want int, method, path, token string, body, v any) {
	e.t.Helper()
	status, out := e.do(method, path, token, body)
	if status != want {
		e.t.Fatalf("%s %s: status %d, want %d: %s", method, path, status, want, out)
	}
	if v != nil {
		if err := json.Unmarshal(out, v); err != nil {
			e.t.Fatalf("%s %s: decode: %v: %s", method, path, err, out)
		}
	}
}

func (e *env) table(number int) models.Table {
	e.t.Helper()
	t := models.Table{Number: number, Status: models.TableFree}
	if err := e.db.Create(&t).Error; err != nil {
		e.t.Fatal(err)
	}
	return t
}

func (e *env) product(name, price, category string, available bool) models.Product {
	e.t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Category: category, Available: available}
	if err := e.db.Create(&p).Error; err != nil {
		e.t.Fatal(err)
	}
	return p
}

func (e *env) tableStatus(id uint) models.TableStatus {
	e.t.Helper()
	var t models.Table
	if err := e.db.First(&t, id).Error; err != nil {
		e.t.Fatal(err)
	}
	return t.Status
}
