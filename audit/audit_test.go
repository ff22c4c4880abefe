package audit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/aisgo/ais-edu/database"
	"github.com/aisgo/ais-edu/entity"
	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/mq"
	"github.com/aisgo/ais-edu/resource"
	"github.com/aisgo/ais-edu/response"
	"github.com/aisgo/ais-edu/utils/id-generator/ulid"

	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"
)

type fakeProducer struct {
	mu   sync.Mutex
	msgs []*mq.Message
	fail error
}

func (p *fakeProducer) SendSync(_ context.Context, msg *mq.Message) (*mq.SendResult, error) {
	return nil, p.SendAsync(context.Background(), msg, nil)
}

func (p *fakeProducer) SendAsync(_ context.Context, msg *mq.Message, cb mq.SendCallback) error {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
	if cb != nil {
		cb(&mq.SendResult{Topic: msg.Topic}, p.fail)
	}
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) sent() []*mq.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*mq.Message(nil), p.msgs...)
}

func openDB(t *testing.T) *gorm.DB {
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
	return db
}

func setup(t *testing.T, cfg Config, producer mq.Producer) *resource.Registry {
	t.Helper()
	db := openDB(t)
	rec := NewRecorder(db, producer, cfg, logger.NewNop())
	reg := resource.NewRegistry(db, resource.Options{Sink: rec})
	if err := resource.RegisterAll(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return reg
}

func handler(t *testing.T, reg *resource.Registry, collection string) resource.Handler {
	t.Helper()
	h, ok := reg.Handler(collection)
	if !ok {
		t.Fatalf("collection %s not registered", collection)
	}
	return h
}

func historyFor(t *testing.T, reg *resource.Registry, id string) map[string]map[string]any {
	t.Helper()
	r := handler(t, reg, "histories").List(context.Background(), map[string]string{"documentId": id, "limit": "50"})
	if r.Status != http.StatusOK {
		t.Fatalf("list histories: %d %s", r.Status, r.Body.Message)
	}
	page := r.Body.Data.(*response.Page)
	out := make(map[string]map[string]any, len(page.Docs))
	for _, doc := range page.Docs {
		out[doc["operation"].(string)] = doc
	}
	return out
}

func TestDiff(t *testing.T) {
	before := map[string]any{
		"title":     "old",
		"tags":      []any{"a", "b"},
		"updatedAt": "2026-01-01T00:00:00Z",
		"cardCount": float64(2),
		"removed":   "x",
	}
	after := map[string]any{
		"title":     "new",
		"tags":      []any{"a", "b"},
		"updatedAt": "2026-01-02T00:00:00Z",
		"cardCount": float64(3),
		"added":     true,
	}

	want := database.JSONB{
		"title":     map[string]any{"from": "old", "to": "new"},
		"cardCount": map[string]any{"from": float64(2), "to": float64(3)},
		"removed":   map[string]any{"from": "x", "to": nil},
		"added":     map[string]any{"from": nil, "to": true},
	}
	if d := cmp.Diff(want, Diff(before, after)); d != "" {
		t.Fatalf("diff mismatch (-want +got):\n%s", d)
	}

	if got := Diff(after, after); len(got) != 0 {
		t.Fatalf("expected empty diff, got %v", got)
	}
}

func TestBuildHistory(t *testing.T) {
	id := ulid.GenerateString()
	actorID := ulid.GenerateString()
	row, err := BuildHistory(resource.Mutation{
		Collection: "routes",
		DocumentID: id,
		Operation:  entity.OpCreate,
		Actor:      &resource.Actor{ID: strings.ToLower(actorID)},
		After:      map[string]any{"title": "t"},
	})
	if err != nil {
		t.Fatalf("BuildHistory: %v", err)
	}
	if row.ActorID == nil || *row.ActorID != actorID {
		t.Fatalf("unexpected actor: %v", row.ActorID)
	}
	if row.FullDocumentBefore != nil || string(row.FullDocumentAfter) != `{"title":"t"}` {
		t.Fatalf("unexpected snapshots: %s / %s", row.FullDocumentBefore, row.FullDocumentAfter)
	}

	if _, err := BuildHistory(resource.Mutation{Collection: "routes", DocumentID: "nope", Operation: entity.OpCreate}); err == nil {
		t.Fatalf("expected validation error for malformed document id")
	}
	if _, err := BuildHistory(resource.Mutation{Collection: "routes", DocumentID: id, Operation: "purge"}); err == nil {
		t.Fatalf("expected validation error for unknown operation")
	}
}

func TestRecorderStoresLifecycle(t *testing.T) {
	producer := &fakeProducer{}
	cfg := DefaultConfig()
	cfg.Publish = true
	reg := setup(t, cfg, producer)
	routes := handler(t, reg, "routes")
	ctx := context.Background()

	actor := &resource.Actor{ID: ulid.GenerateString(), Role: "admin"}
	r := routes.Create(ctx, actor, []byte(`{"title":"Go basics","topic":"go"}`))
	if r.Status != http.StatusCreated {
		t.Fatalf("create: %d %s", r.Status, r.Body.Message)
	}
	id := r.Body.Data.(map[string]any)["id"].(string)

	if r = routes.Update(ctx, actor, id, []byte(`{"title":"Go advanced"}`)); r.Status != http.StatusOK {
		t.Fatalf("update: %d %s", r.Status, r.Body.Message)
	}
	if r = routes.SoftDelete(ctx, actor, id); r.Status != http.StatusOK {
		t.Fatalf("delete: %d %s", r.Status, r.Body.Message)
	}

	rows := historyFor(t, reg, id)
	if len(rows) != 3 {
		t.Fatalf("expected 3 history rows, got %d", len(rows))
	}

	created := rows[entity.OpCreate]
	if created["collectionName"] != "routes" || created["actorId"] != actor.ID {
		t.Fatalf("unexpected create row: %v", created)
	}
	if created["fullDocumentBefore"] != nil {
		t.Fatalf("create must have no before snapshot")
	}

	diff := rows[entity.OpUpdate]["diff"].(map[string]any)
	want := map[string]any{"title": map[string]any{"from": "Go basics", "to": "Go advanced"}}
	if d := cmp.Diff(want, diff); d != "" {
		t.Fatalf("update diff mismatch (-want +got):\n%s", d)
	}

	deleted := rows[entity.OpSoftDelete]["diff"].(map[string]any)
	if _, ok := deleted["deleted"]; !ok {
		t.Fatalf("soft delete diff should include deleted flag: %v", deleted)
	}

	msgs := producer.sent()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 published events, got %d", len(msgs))
	}
	if msgs[0].Topic != cfg.Topic || msgs[0].Key != "routes/"+id || msgs[0].Properties["operation"] != entity.OpCreate {
		t.Fatalf("unexpected event: %+v", msgs[0])
	}
}

func TestRecorderAuditsHistoryDeletion(t *testing.T) {
	reg := setup(t, DefaultConfig(), nil)
	ctx := context.Background()

	r := handler(t, reg, "routes").Create(ctx, nil, []byte(`{"title":"Audited"}`))
	if r.Status != http.StatusCreated {
		t.Fatalf("create: %d %s", r.Status, r.Body.Message)
	}
	routeID := r.Body.Data.(map[string]any)["id"].(string)
	historyID := historyFor(t, reg, routeID)[entity.OpCreate]["id"].(string)

	actor := &resource.Actor{ID: ulid.GenerateString()}
	if r = handler(t, reg, "histories").SoftDelete(ctx, actor, historyID); r.Status != http.StatusOK {
		t.Fatalf("delete history: %d %s", r.Status, r.Body.Message)
	}

	if rows := historyFor(t, reg, routeID); len(rows) != 0 {
		t.Fatalf("deleted history row still listed: %v", rows)
	}
	rows := historyFor(t, reg, historyID)
	row, ok := rows[entity.OpSoftDelete]
	if len(rows) != 1 || !ok {
		t.Fatalf("expected one softDelete row for the history entry, got %v", rows)
	}
	if row["collectionName"] != "histories" || row["actorId"] != actor.ID {
		t.Fatalf("unexpected audit-of-audit row: %v", row)
	}
}

func TestRecorderDisabledAndPublishFailure(t *testing.T) {
	producer := &fakeProducer{fail: errors.New("broker down")}
	reg := setup(t, Config{Enabled: true, Publish: true}, producer)
	routes := handler(t, reg, "routes")

	r := routes.Create(context.Background(), nil, []byte(`{"title":"t"}`))
	if r.Status != http.StatusCreated {
		t.Fatalf("publish failure must not change result: %d", r.Status)
	}
	id := r.Body.Data.(map[string]any)["id"].(string)
	if rows := historyFor(t, reg, id); len(rows) != 1 || rows[entity.OpCreate]["actorId"] != nil {
		t.Fatalf("expected anonymous create row, got %v", rows)
	}

	off := setup(t, Config{Enabled: false}, nil)
	r = handler(t, off, "routes").Create(context.Background(), nil, []byte(`{"title":"t"}`))
	id = r.Body.Data.(map[string]any)["id"].(string)
	if rows := historyFor(t, off, id); len(rows) != 0 {
		t.Fatalf("disabled recorder stored %d rows", len(rows))
	}
}

func TestRecorderSurvivesCanceledContext(t *testing.T) {
	db := openDB(t)
	if err := db.AutoMigrate(&entity.History{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	rec := NewRecorder(db, nil, DefaultConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, resource.Mutation{
		Collection: "cards",
		DocumentID: ulid.GenerateString(),
		Operation:  entity.OpCreate,
		After:      map[string]any{"front": "q"},
	})

	var n int64
	if err := db.Model(&entity.History{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected row despite canceled request, got %d", n)
	}
}
