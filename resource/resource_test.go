package resource

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aisgo/ais-edu/database"
	"github.com/aisgo/ais-edu/entity"
	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/response"
	"github.com/aisgo/ais-edu/utils/id-generator/ulid"
)

type captureSink struct {
	mu   sync.Mutex
	muts []Mutation
}

func (s *captureSink) Record(_ context.Context, m Mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muts = append(s.muts, m)
}

func (s *captureSink) ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.muts))
	for _, m := range s.muts {
		out = append(out, m.Collection+":"+m.Operation)
	}
	return out
}

func setupRegistry(t *testing.T, sink MutationSink) *Registry {
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

	reg := NewRegistry(db, Options{Sink: sink})
	if err := RegisterAll(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return reg
}

func handler(t *testing.T, reg *Registry, collection string) Handler {
	t.Helper()
	h, ok := reg.Handler(collection)
	if !ok {
		t.Fatalf("collection %s not registered", collection)
	}
	return h
}

func mustStatus(t *testing.T, r response.Reply, want int) {
	t.Helper()
	if r.Status != want {
		t.Fatalf("unexpected status: got=%d want=%d message=%q", r.Status, want, r.Body.Message)
	}
	if r.Body.Success != (want < 400) {
		t.Fatalf("success flag mismatch for status %d", want)
	}
}

func docOf(t *testing.T, r response.Reply) map[string]any {
	t.Helper()
	doc, ok := r.Body.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected document data, got %T", r.Body.Data)
	}
	return doc
}

func pageOf(t *testing.T, r response.Reply) *response.Page {
	t.Helper()
	page, ok := r.Body.Data.(*response.Page)
	if !ok {
		t.Fatalf("expected page data, got %T", r.Body.Data)
	}
	return page
}

func createRoute(t *testing.T, h Handler, actor *Actor, body string) map[string]any {
	t.Helper()
	r := h.Create(context.Background(), actor, []byte(body))
	mustStatus(t, r, http.StatusCreated)
	return docOf(t, r)
}

func TestCreateAuthorFromActor(t *testing.T) {
	reg := setupRegistry(t, nil)
	routes := handler(t, reg, "routes")
	actor := &Actor{ID: ulid.GenerateString(), Role: "user"}

	doc := createRoute(t, routes, actor, `{"title":"Álgebra I","topic":"Mathematics"}`)
	if doc["authorId"] != actor.ID {
		t.Fatalf("expected authorId from actor, got %v", doc["authorId"])
	}
	if doc["deleted"] != false || doc["language"] != "es" || doc["published"] != true {
		t.Fatalf("unexpected defaults: %v", doc)
	}

	anon := createRoute(t, routes, nil, `{"title":"Álgebra II"}`)
	if anon["authorId"] != nil {
		t.Fatalf("expected authorId unset without actor, got %v", anon["authorId"])
	}

	// 操作人优先于载荷
	other := ulid.GenerateString()
	doc = createRoute(t, routes, actor, fmt.Sprintf(`{"title":"x","authorId":%q}`, other))
	if doc["authorId"] != actor.ID {
		t.Fatalf("actor must win over payload authorId")
	}

	lower := &Actor{ID: strings.ToLower(actor.ID)}
	doc = createRoute(t, routes, lower, `{"title":"y"}`)
	if doc["authorId"] != actor.ID {
		t.Fatalf("actor id should be normalized, got %v", doc["authorId"])
	}

	// 非文档 ID 的操作人按匿名处理
	doc = createRoute(t, routes, &Actor{ID: "user-42"}, `{"title":"z"}`)
	if doc["authorId"] != nil {
		t.Fatalf("non-document actor must not become author, got %v", doc["authorId"])
	}
}

func TestCreateIgnoresSystemFields(t *testing.T) {
	reg := setupRegistry(t, nil)
	routes := handler(t, reg, "routes")

	fixed := ulid.GenerateString()
	doc := createRoute(t, routes, nil, fmt.Sprintf(`{"id":%q,"title":"t","deleted":true,"deletedAt":"2020-01-01T00:00:00Z"}`, fixed))
	if doc["id"] == fixed || doc["deleted"] != false || doc["deletedAt"] != nil {
		t.Fatalf("system fields must not be client-assigned: %v", doc)
	}
}

func TestCreateValidationErrors(t *testing.T) {
	reg := setupRegistry(t, nil)
	ctx := context.Background()
	routes := handler(t, reg, "routes")

	r := routes.Create(ctx, nil, []byte(`{"topic":"no title"}`))
	mustStatus(t, r, http.StatusBadRequest)
	if !strings.Contains(r.Body.Message, "Route validation failed") || !strings.Contains(r.Body.Message, "title") {
		t.Fatalf("unexpected message: %q", r.Body.Message)
	}

	r = routes.Create(ctx, nil, []byte(`{"title":`))
	mustStatus(t, r, http.StatusBadRequest)

	r = routes.Create(ctx, nil, []byte(`{"title":42}`))
	mustStatus(t, r, http.StatusBadRequest)
	if !strings.Contains(r.Body.Message, "title: invalid value") {
		t.Fatalf("unexpected type error message: %q", r.Body.Message)
	}

	plans := handler(t, reg, "plans")
	mustStatus(t, plans.Create(ctx, nil, []byte(`{"name":"pro"}`)), http.StatusCreated)
	r = plans.Create(ctx, nil, []byte(`{"name":"pro"}`))
	mustStatus(t, r, http.StatusBadRequest)
}

func TestSoftDeleteLifecycle(t *testing.T) {
	sink := &captureSink{}
	reg := setupRegistry(t, sink)
	ctx := context.Background()
	routes := handler(t, reg, "routes")
	actor := &Actor{ID: ulid.GenerateString()}

	created := createRoute(t, routes, actor, `{"title":"Física","topic":"Physics"}`)
	id := created["id"].(string)

	mustStatus(t, routes.GetOne(ctx, id), http.StatusOK)
	mustStatus(t, routes.GetOne(ctx, strings.ToLower(id)), http.StatusOK)

	del := routes.SoftDelete(ctx, actor, id)
	mustStatus(t, del, http.StatusOK)
	if del.Body.Message != "Route successfully deleted" {
		t.Fatalf("unexpected message: %q", del.Body.Message)
	}

	ctrl, _ := reg.Handler("routes")
	raw, err := ctrl.(*Controller[entity.Route, *entity.Route]).repo.FindByIDUnscoped(ctx, id)
	if err != nil {
		t.Fatalf("raw lookup: %v", err)
	}
	if !raw.IsDeleted() || raw.DeletedAt == nil || raw.DeletedBy == nil || *raw.DeletedBy != actor.ID {
		t.Fatalf("delete triple not set: %+v", raw.BaseModel)
	}

	for name, r := range map[string]response.Reply{
		"getOne":     routes.GetOne(ctx, id),
		"update":     routes.Update(ctx, actor, id, []byte(`{"title":"changed"}`)),
		"softDelete": routes.SoftDelete(ctx, actor, id),
	} {
		mustStatus(t, r, http.StatusNotFound)
		if r.Body.Message != "Route not found" {
			t.Fatalf("%s: unexpected message %q", name, r.Body.Message)
		}
	}

	after, err := ctrl.(*Controller[entity.Route, *entity.Route]).repo.FindByIDUnscoped(ctx, id)
	if err != nil {
		t.Fatalf("raw lookup: %v", err)
	}
	if after.Title != "Física" || !after.UpdatedAt.Equal(raw.UpdatedAt) || !after.DeletedAt.Equal(*raw.DeletedAt) {
		t.Fatalf("deleted document was mutated: %+v", after)
	}

	list := routes.List(ctx, map[string]string{})
	mustStatus(t, list, http.StatusOK)
	if page := pageOf(t, list); page.TotalDocs != 0 || len(page.Docs) != 0 {
		t.Fatalf("deleted document listed: %+v", page)
	}

	if got := sink.ops(); strings.Join(got, ",") != "routes:create,routes:softDelete" {
		t.Fatalf("unexpected mutations: %v", got)
	}
}

func TestNotFoundIsIndistinguishable(t *testing.T) {
	reg := setupRegistry(t, nil)
	ctx := context.Background()
	cards := handler(t, reg, "cards")

	for _, id := range []string{"not-an-id", ulid.GenerateString(), "", "01ARZ3NDEKTSV4RRFFQ69G5FA"} {
		r := cards.GetOne(ctx, id)
		mustStatus(t, r, http.StatusNotFound)
		if r.Body.Message != "Card not found" {
			t.Fatalf("id %q: unexpected message %q", id, r.Body.Message)
		}
	}
}

func TestUpdateGuardsProtectedFields(t *testing.T) {
	reg := setupRegistry(t, nil)
	ctx := context.Background()
	users := handler(t, reg, "users")

	r := users.Create(ctx, nil, []byte(`{"email":"Ana@Example.com","name":"Ana","passwordHash":"h1","tokensBalance":5}`))
	mustStatus(t, r, http.StatusCreated)
	created := docOf(t, r)
	id := created["id"].(string)
	if created["email"] != "ana@example.com" {
		t.Fatalf("expected normalized email, got %v", created["email"])
	}
	if _, ok := created["passwordHash"]; ok {
		t.Fatalf("passwordHash must not be serialized")
	}

	r = users.Update(ctx, &Actor{ID: "root", Role: "superadmin"}, id, []byte(`{
		"name":"Ana Lucía",
		"role":"admin",
		"email":"evil@example.com",
		"tokensBalance":1000000,
		"passwordHash":"h2",
		"deleted":true,
		"deletedAt":"2020-01-01T00:00:00Z",
		"deletedBy":"root"
	}`))
	mustStatus(t, r, http.StatusOK)
	doc := docOf(t, r)
	if doc["name"] != "Ana Lucía" {
		t.Fatalf("permitted field not updated: %v", doc["name"])
	}
	if doc["role"] != "user" || doc["email"] != "ana@example.com" || doc["tokensBalance"] != float64(5) {
		t.Fatalf("protected fields changed: %v", doc)
	}
	if doc["deleted"] != false || doc["deletedAt"] != nil || doc["deletedBy"] != nil {
		t.Fatalf("delete markers changed through update: %v", doc)
	}

	ctrl, _ := reg.Handler("users")
	stored, err := ctrl.(*Controller[entity.User, *entity.User]).repo.FindByIDUnscoped(ctx, id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.PasswordHash != "h1" || stored.Role != "user" || stored.TokensBalance != 5 {
		t.Fatalf("protected fields persisted: %+v", stored)
	}
}

func TestUpdateShallowMerge(t *testing.T) {
	reg := setupRegistry(t, nil)
	ctx := context.Background()
	routes := handler(t, reg, "routes")

	created := createRoute(t, routes, nil, `{"title":"t","topic":"keep","metadata":{"estimatedDurationMin":30,"difficulty":"bajo"}}`)
	id := created["id"].(string)

	r := routes.Update(ctx, nil, id, []byte(`{"metadata":{"difficulty":"alto"},"unknownField":1,"createdAt":"2000-01-01T00:00:00Z"}`))
	mustStatus(t, r, http.StatusOK)
	doc := docOf(t, r)
	meta := doc["metadata"].(map[string]any)
	if meta["difficulty"] != "alto" || meta["estimatedDurationMin"] != float64(0) {
		t.Fatalf("nested object must be replaced wholesale: %v", meta)
	}
	if doc["topic"] != "keep" || strings.HasPrefix(doc["createdAt"].(string), "2000") {
		t.Fatalf("untouched fields changed: %v", doc)
	}
	if _, ok := doc["unknownField"]; ok {
		t.Fatalf("unknown field persisted")
	}

	r = routes.Update(ctx, nil, id, []byte(`{"metadata":{"difficulty":"imposible"}}`))
	mustStatus(t, r, http.StatusBadRequest)
}

func TestListFilters(t *testing.T) {
	reg := setupRegistry(t, nil)
	ctx := context.Background()
	routes := handler(t, reg, "routes")

	math := createRoute(t, routes, nil, `{"title":"Álgebra","topic":"Mathematics","cardCount":3}`)
	createRoute(t, routes, nil, `{"title":"Óptica","topic":"Physics 100%","isPremiumOnly":true}`)

	cases := []struct {
		query map[string]string
		want  int
	}{
		{map[string]string{"topic": "math"}, 1},
		{map[string]string{"topic": "MATH"}, 1},
		{map[string]string{"topic": "Physics"}, 1},
		{map[string]string{"topic": "Chemistry"}, 0},
		{map[string]string{"topic": "100%"}, 1},
		{map[string]string{"topic": "%"}, 1},
		{map[string]string{"topic": "_"}, 0},
		{map[string]string{"id": strings.ToLower(math["id"].(string))}, 1},
		{map[string]string{"cardCount": "3"}, 1},
		{map[string]string{"cardCount": "three"}, 0},
		{map[string]string{"isPremiumOnly": "true"}, 1},
		{map[string]string{"deleted": "true"}, 0},
		{map[string]string{"deleted": "false"}, 2},
		{map[string]string{"metadata": "x"}, 0},
		{map[string]string{"nope": "x"}, 0},
		{map[string]string{"page": "1", "limit": "5"}, 2},
	}
	for _, tc := range cases {
		r := routes.List(ctx, tc.query)
		mustStatus(t, r, http.StatusOK)
		page := pageOf(t, r)
		if int(page.TotalDocs) != tc.want || len(page.Docs) != tc.want {
			t.Fatalf("query %v: got %d docs (total %d), want %d", tc.query, len(page.Docs), page.TotalDocs, tc.want)
		}
		if *r.Body.Count != page.TotalDocs {
			t.Fatalf("count must equal totalDocs")
		}
	}
}

func TestListFilterByReference(t *testing.T) {
	reg := setupRegistry(t, nil)
	ctx := context.Background()
	cards := handler(t, reg, "cards")

	routeA, routeB := ulid.GenerateString(), ulid.GenerateString()
	for i, routeID := range []string{routeA, routeA, routeB} {
		body := fmt.Sprintf(`{"routeId":%q,"title":"card %d","order":%d}`, strings.ToLower(routeID), i, i)
		mustStatus(t, cards.Create(ctx, nil, []byte(body)), http.StatusCreated)
	}

	page := pageOf(t, cards.List(ctx, map[string]string{"routeId": strings.ToLower(routeA)}))
	if page.TotalDocs != 2 {
		t.Fatalf("expected 2 cards for route, got %d", page.TotalDocs)
	}
	for _, d := range page.Docs {
		if d["routeId"] != routeA {
			t.Fatalf("reference not normalized: %v", d["routeId"])
		}
	}

	// order 是保留字，排序需正确转义
	page = pageOf(t, cards.List(ctx, map[string]string{"sort": "order"}))
	if page.Docs[0]["order"] != float64(2) {
		t.Fatalf("expected descending order, got %v", page.Docs[0]["order"])
	}
}

func TestListPagination(t *testing.T) {
	reg := setupRegistry(t, nil)
	ctx := context.Background()
	routes := handler(t, reg, "routes")

	for i := 1; i <= 25; i++ {
		createRoute(t, routes, nil, fmt.Sprintf(`{"title":"route %02d"}`, i))
	}

	r := routes.List(ctx, map[string]string{"page": "2", "limit": "10"})
	mustStatus(t, r, http.StatusOK)
	page := pageOf(t, r)
	if page.TotalDocs != 25 || len(page.Docs) != 10 || page.TotalPages != 3 {
		t.Fatalf("unexpected page: total=%d docs=%d pages=%d", page.TotalDocs, len(page.Docs), page.TotalPages)
	}
	// 降序：第 2 页为第 15 ~ 6 个创建的文档
	if page.Docs[0]["title"] != "route 15" || page.Docs[9]["title"] != "route 06" {
		t.Fatalf("unexpected slice: first=%v last=%v", page.Docs[0]["title"], page.Docs[9]["title"])
	}
	if !page.HasPrevPage || !page.HasNextPage || *page.PrevPage != 1 || *page.NextPage != 3 {
		t.Fatalf("unexpected navigation: %+v", page)
	}

	page = pageOf(t, routes.List(ctx, map[string]string{}))
	if page.Page != 1 || page.Limit != 10 || page.Docs[0]["title"] != "route 25" {
		t.Fatalf("unexpected defaults: page=%d limit=%d first=%v", page.Page, page.Limit, page.Docs[0]["title"])
	}

	page = pageOf(t, routes.List(ctx, map[string]string{"page": "9"}))
	if len(page.Docs) != 0 || page.TotalDocs != 25 || page.HasNextPage {
		t.Fatalf("page past the end must be empty: %+v", page)
	}

	for _, q := range []map[string]string{
		{"page": "abc"},
		{"page": "0"},
		{"limit": "-1"},
		{"limit": "1.5"},
		{"sort": "nope"},
		{"sort": "metadata"},
	} {
		mustStatus(t, routes.List(ctx, q), http.StatusBadRequest)
	}
}

func TestHistoryIsImmutable(t *testing.T) {
	reg := setupRegistry(t, nil)
	ctx := context.Background()
	histories := handler(t, reg, "histories")
	if !histories.Immutable() {
		t.Fatalf("histories must be immutable")
	}

	body := fmt.Sprintf(`{"collectionName":"routes","documentId":%q,"operation":"create"}`, ulid.GenerateString())
	mustStatus(t, histories.Create(ctx, nil, []byte(body)), http.StatusBadRequest)

	row := &entity.History{CollectionName: "routes", DocumentID: ulid.GenerateString(), Operation: entity.OpCreate}
	if err := histories.(*Controller[entity.History, *entity.History]).repo.Create(ctx, row); err != nil {
		t.Fatalf("seed history: %v", err)
	}
	id := row.ID

	mustStatus(t, histories.GetOne(ctx, id), http.StatusOK)
	mustStatus(t, histories.Update(ctx, nil, id, []byte(`{"reason":"x"}`)), http.StatusBadRequest)
	mustStatus(t, histories.SoftDelete(ctx, nil, id), http.StatusOK)
	mustStatus(t, histories.GetOne(ctx, id), http.StatusNotFound)
}

func TestRegisterAllCatalogue(t *testing.T) {
	reg := setupRegistry(t, nil)
	seen := make(map[string]bool)
	authored := 0
	for _, m := range reg.models {
		e, ok := m.(entity.Entity)
		if !ok {
			t.Fatalf("registered model %T is not an entity", m)
		}
		name := e.TableName()
		if seen[name] {
			t.Fatalf("duplicate table %s", name)
		}
		seen[name] = true
		if e.HasAuthorField() {
			if _, ok := e.(entity.Authored); !ok {
				t.Fatalf("%s declares authorId without SetAuthorID", e.ModelName())
			}
			authored++
		}
		if _, ok := reg.Handler(name); !ok {
			t.Fatalf("%s migrated but not routable", name)
		}
	}
	if len(seen) != 16 || authored != 1 {
		t.Fatalf("unexpected catalogue: tables=%d authored=%d", len(seen), authored)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := setupRegistry(t, nil)
	if _, err := Register[entity.Route](reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if len(reg.Handlers()) != 16 || reg.Handlers()[0].Collection() != "users" {
		t.Fatalf("unexpected registration order")
	}
}

func TestExpiredDeadlineIsInternal(t *testing.T) {
	reg := setupRegistry(t, nil)
	h := handler(t, reg, "routes")
	doc := createRoute(t, h, nil, `{"title":"Deadline"}`)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	r := h.GetOne(ctx, doc["id"].(string))
	mustStatus(t, r, http.StatusInternalServerError)
	if strings.Contains(r.Body.Message, "deadline") {
		t.Fatalf("internal detail leaked: %q", r.Body.Message)
	}
}
