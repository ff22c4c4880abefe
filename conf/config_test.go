package conf

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aisgo/ais-edu/database"
	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/mq"
	"github.com/aisgo/ais-edu/resource"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestExpandEnvPlaceholders(t *testing.T) {
	t.Setenv("EDU_TEST_HOST", "db.internal")
	t.Setenv("EDU_TEST_EMPTY", "")

	cases := map[string]string{
		"${EDU_TEST_HOST}":               "db.internal",
		"${EDU_TEST_EMPTY:-fallback}":    "fallback",
		"${EDU_TEST_MISSING:-5432}":      "5432",
		"${EDU_TEST_MISSING}":            "",
		"host=${EDU_TEST_HOST} port=1":   "host=db.internal port=1",
		"plain $EDU_TEST_HOST untouched": "plain $EDU_TEST_HOST untouched",
	}
	for in, want := range cases {
		if got := expandEnvPlaceholders(in); got != want {
			t.Fatalf("expand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadMergesFileEnvAndDefaults(t *testing.T) {
	t.Setenv("EDU_TEST_DB_NAME", "edu_test")
	t.Setenv("EDU_SERVER_PORT", "9090")
	t.Setenv("EDU_CONTROLLER_TIMEOUT", "7s")

	dir := writeConfig(t, `
database:
  driver: postgres
  host: localhost
  dbname: ${EDU_TEST_DB_NAME:-edu}
controller:
  default_limit: 20
  protected_fields: [stripeCustomerId]
mq:
  type: kafka
  kafka:
    brokers: [k1:9092, k2:9092]
audit:
  publish: true
  topic: edu.audit
`)

	cfg, err := Load(dir, "config")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("env should override port, got %d", cfg.Server.Port)
	}
	if cfg.Server.AppName != "ais-edu" {
		t.Fatalf("default app name lost: %q", cfg.Server.AppName)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DBName != "edu_test" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Controller.Timeout != 7*time.Second || cfg.Controller.DefaultLimit != 20 {
		t.Fatalf("unexpected controller config: %+v", cfg.Controller)
	}
	if cfg.MQ.Type != mq.TypeKafka || len(cfg.MQ.Kafka.Brokers) != 2 || cfg.MQ.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected mq config: %+v", cfg.MQ.Kafka)
	}
	if cfg.MQ.Kafka.Producer.RetryMax != 3 {
		t.Fatalf("kafka producer defaults lost: %+v", cfg.MQ.Kafka.Producer)
	}
	if !cfg.Audit.Enabled || !cfg.Audit.Publish || cfg.Audit.Topic != "edu.audit" {
		t.Fatalf("unexpected audit config: %+v", cfg.Audit)
	}

	opts := cfg.Controller.Options()
	if opts.Paginator.DefaultLimit != 20 || !opts.Guard.Denied("stripeCustomerId") || !opts.Guard.Denied("role") {
		t.Fatalf("unexpected controller options: %+v", opts.Paginator)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "missing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.MQ.Type != mq.TypeNone || cfg.Auth.Enabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"log level":     func(c *AppConfig) { c.Logger.Level = "loud" },
		"auth secret":   func(c *AppConfig) { c.Auth.Enabled = true },
		"redis limiter": func(c *AppConfig) { c.RateLimit.Store = "redis" },
		"kafka brokers": func(c *AppConfig) { c.MQ.Type = mq.TypeKafka; c.MQ.Kafka.Brokers = nil },
		"mq type":       func(c *AppConfig) { c.MQ.Type = "rabbit" },
		"publish":       func(c *AppConfig) { c.Audit.Publish = true },
		"port":          func(c *AppConfig) { c.Server.Port = 70000 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestExtraProtectedFieldsKeepBuiltIns(t *testing.T) {
	db, err := database.NewDB(database.Config{Driver: database.DriverSQLite, LogLevel: "silent"}, logger.NewNop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	opts := ControllerConfig{ProtectedFields: []string{"stripeCustomerId"}}.Options()
	reg := resource.NewRegistry(db, opts)
	if err := resource.RegisterAll(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	users, _ := reg.Handler("users")

	ctx := context.Background()
	r := users.Create(ctx, nil, []byte(`{"email":"ana@example.com","name":"Ana"}`))
	if r.Status != 201 {
		t.Fatalf("create: %d %s", r.Status, r.Body.Message)
	}
	id := r.Body.Data.(map[string]any)["id"].(string)

	r = users.Update(ctx, nil, id, []byte(`{"role":"superadmin","email":"evil@x.io","tokensBalance":1000000}`))
	if r.Status != 200 {
		t.Fatalf("update: %d %s", r.Status, r.Body.Message)
	}
	raw, _ := json.Marshal(r.Body.Data)
	var doc struct {
		Role          string  `json:"role"`
		Email         string  `json:"email"`
		TokensBalance float64 `json:"tokensBalance"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Role != "user" || doc.Email != "ana@example.com" || doc.TokensBalance != 0 {
		t.Fatalf("protected fields changed: %+v", doc)
	}
}
