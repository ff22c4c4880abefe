package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aisgo/ais-edu/database"
	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/middleware"
	"github.com/aisgo/ais-edu/resource"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"
)

var testConfig = fiber.TestConfig{Timeout: 5 * time.Second}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Count   *int64          `json:"count"`
}

func newTestApp(t *testing.T, auth middleware.AuthConfig) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := database.NewDB(database.Config{Driver: database.DriverSQLite, LogLevel: "silent"}, logger.NewNop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	reg := resource.NewRegistry(db, resource.Options{})
	if err := resource.RegisterAll(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	app := NewApp(AppParams{
		Config:   Config{},
		Logger:   logger.NewNop(),
		Registry: reg,
		Auth:     auth,
		DB:       db,
	})
	return app, db
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...func(http.Header)) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, h := range headers {
		h(req.Header)
	}
	resp, err := app.Test(req, testConfig)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("%s %s: decode %s: %v", method, path, raw, err)
	}
	return resp.StatusCode, env
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(env.Data, &m); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return m
}

func TestResourceLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t, middleware.AuthConfig{})

	status, env := do(t, app, http.MethodPost, "/api/routes", `{"title":"Intro to Go","topic":"golang"}`)
	if status != http.StatusCreated || env.Message != "Route created successfully" {
		t.Fatalf("create: %d %+v", status, env)
	}
	id := dataMap(t, env)["id"].(string)

	status, env = do(t, app, http.MethodGet, "/api/routes?title=intro", "")
	if status != http.StatusOK || env.Count == nil || *env.Count != 1 {
		t.Fatalf("list: %d %+v", status, env)
	}
	page := dataMap(t, env)
	if page["totalDocs"].(float64) != 1 || page["page"].(float64) != 1 || page["limit"].(float64) != 10 {
		t.Fatalf("unexpected page: %v", page)
	}

	status, env = do(t, app, http.MethodPatch, "/api/routes/"+id, `{"topic":"go"}`)
	if status != http.StatusOK || dataMap(t, env)["topic"] != "go" {
		t.Fatalf("update: %d %+v", status, env)
	}
	status, env = do(t, app, http.MethodPut, "/api/routes/"+id, `{"title":"Go"}`)
	if status != http.StatusOK || dataMap(t, env)["title"] != "Go" {
		t.Fatalf("put: %d %+v", status, env)
	}

	status, env = do(t, app, http.MethodDelete, "/api/routes/"+id, "")
	if status != http.StatusOK || env.Message != "Route successfully deleted" {
		t.Fatalf("delete: %d %+v", status, env)
	}

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		status, env = do(t, app, method, "/api/routes/"+id, `{"title":"again"}`)
		if status != http.StatusNotFound || env.Success || env.Message != "Route not found" {
			t.Fatalf("%s after delete: %d %+v", method, status, env)
		}
	}
}

func TestListParameterErrors(t *testing.T) {
	app, _ := newTestApp(t, middleware.AuthConfig{})

	for _, q := range []string{"page=0", "page=abc", "limit=-1", "sort=nope"} {
		status, env := do(t, app, http.MethodGet, "/api/cards?"+q, "")
		if status != http.StatusBadRequest || env.Success {
			t.Fatalf("%s: expected 400, got %d %+v", q, status, env)
		}
	}
}

func TestHistoryRoutesAreReadOnly(t *testing.T) {
	app, _ := newTestApp(t, middleware.AuthConfig{})

	status, _ := do(t, app, http.MethodPost, "/api/histories", `{"collectionName":"routes"}`)
	if status != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for history create, got %d", status)
	}
	status, env := do(t, app, http.MethodGet, "/api/histories", "")
	if status != http.StatusOK || *env.Count != 0 {
		t.Fatalf("history list: %d %+v", status, env)
	}
}

func TestSignedActorBecomesAuthor(t *testing.T) {
	auth := middleware.AuthConfig{Enabled: true, Issuer: "gateway", Secret: "s3cret"}
	app, _ := newTestApp(t, auth)

	const actorID = "01HZX3J8M1QKZ0V5Y6W7T8R9S0"
	headers, err := middleware.Sign(auth, middleware.Claims{ID: actorID, Role: "mentor"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	status, env := do(t, app, http.MethodPost, "/api/routes", `{"title":"Signed"}`, headers.Apply)
	if status != http.StatusCreated || dataMap(t, env)["authorId"] != actorID {
		t.Fatalf("expected author from actor: %d %+v", status, env)
	}

	status, env = do(t, app, http.MethodGet, "/api/routes", "")
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("expected 401 without headers, got %d", status)
	}

	opaque, err := middleware.Sign(auth, middleware.Claims{ID: "user-42"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	status, env = do(t, app, http.MethodPost, "/api/routes", `{"title":"Opaque"}`, opaque.Apply)
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("expected 401 for non-document actor, got %d %+v", status, env)
	}
}

func TestRootAndHealthEndpoints(t *testing.T) {
	app, _ := newTestApp(t, middleware.AuthConfig{})

	status, env := do(t, app, http.MethodGet, "/", "")
	if status != http.StatusOK || !env.Success || env.Message != "ais-edu API is running" {
		t.Fatalf("root: %d %+v", status, env)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), testConfig)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
			t.Fatalf("%s: %d %v", path, resp.StatusCode, body)
		}
	}

	status, env = do(t, app, http.MethodGet, "/api/unknown", "")
	if status != http.StatusNotFound || env.Success {
		t.Fatalf("unknown collection: %d %+v", status, env)
	}
}

func TestReadyzReportsFailure(t *testing.T) {
	app := fiber.New()
	registerHealthEndpoints(app, map[string]checkFunc{
		"database": func(context.Context) error { return context.DeadlineExceeded },
	}, time.Second)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/readyz", nil), testConfig)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestBuildListenConfig(t *testing.T) {
	cfg := buildListenConfig(ListenOptions{})
	if cfg.ListenerNetwork != "tcp4" {
		t.Fatalf("unexpected listener network: %s", cfg.ListenerNetwork)
	}

	cfg = buildListenConfig(ListenOptions{
		ListenerNetwork:    "tcp6",
		ShutdownTimeout:    2 * time.Second,
		UnixSocketFileMode: 0o771,
		TLSMinVersion:      772,
	})
	if cfg.ListenerNetwork != "tcp6" || cfg.ShutdownTimeout != 2*time.Second || cfg.UnixSocketFileMode == 0 || cfg.TLSMinVersion != 772 {
		t.Fatalf("unexpected listen config: %+v", cfg)
	}
}
