package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aisgo/ais-edu/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type note struct {
	BaseModel
	Title string `gorm:"column:title"`
	Code  string `gorm:"column:code;uniqueIndex"`
	Views int    `gorm:"column:views"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&note{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateAssignsULID(t *testing.T) {
	repo := NewRepository[note](setupTestDB(t))
	n := &note{Title: "a", Code: "A"}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(n.ID) != 26 {
		t.Fatalf("expected ULID id, got %q", n.ID)
	}
	if n.CreatedAt.IsZero() || n.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps set")
	}
	if n.IsDeleted() || n.DeletedAt != nil {
		t.Fatalf("new record must not be deleted")
	}
}

func TestCreateDuplicateIsValidation(t *testing.T) {
	repo := NewRepository[note](setupTestDB(t))
	ctx := context.Background()
	if err := repo.Create(ctx, &note{Code: "dup"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, &note{Code: "dup"})
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error on duplicate, got %v", err)
	}
}

func TestSoftDeleteLifecycle(t *testing.T) {
	repo := NewRepository[note](setupTestDB(t))
	ctx := context.Background()

	n := &note{Title: "x", Code: "X"}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("create: %v", err)
	}

	actor := "01HZZZZZZZZZZZZZZZZZZZZZZZ"
	if err := repo.SoftDelete(ctx, n.ID, &actor); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if res, err := repo.FindPage(ctx, 1, 10); err != nil || res.Total != 0 || len(res.List) != 0 {
		t.Fatalf("deleted record must be invisible, got %+v / %v", res, err)
	}

	raw, err := repo.FindByIDUnscoped(ctx, n.ID)
	if err != nil {
		t.Fatalf("unscoped lookup: %v", err)
	}
	if !raw.IsDeleted() || raw.DeletedAt == nil || raw.DeletedBy == nil || *raw.DeletedBy != actor {
		t.Fatalf("unexpected soft delete triple: %+v", raw.BaseModel)
	}
	firstDeletedAt := *raw.DeletedAt

	if err := repo.SoftDelete(ctx, n.ID, nil); !errors.IsNotFound(err) {
		t.Fatalf("second delete must be not found, got %v", err)
	}
	raw, _ = repo.FindByIDUnscoped(ctx, n.ID)
	if !raw.DeletedAt.Equal(firstDeletedAt) || raw.DeletedBy == nil {
		t.Fatalf("deleted_at/deleted_by must not change on repeated delete")
	}

	raw.Title = "resurrect"
	if err := repo.Update(ctx, raw); !errors.IsNotFound(err) {
		t.Fatalf("update of deleted record must be not found, got %v", err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Fatalf("deleted record must not be counted, got %d", n)
	}
}

func TestUpdateWritesZeroValuesAndKeepsCreatedAt(t *testing.T) {
	repo := NewRepository[note](setupTestDB(t))
	ctx := context.Background()

	n := &note{Title: "t", Code: "C", Views: 5}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("create: %v", err)
	}
	created := n.CreatedAt
	before := n.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	n.Views = 0
	n.CreatedAt = time.Time{}
	if err := repo.Update(ctx, n, ColumnCreatedAt); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.FindByIDUnscoped(ctx, n.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Views != 0 {
		t.Fatalf("zero value must be persisted, got %d", got.Views)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed: %v -> %v", created, got.CreatedAt)
	}
	if got.UpdatedAt.Before(before) {
		t.Fatalf("updated_at went backwards")
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	repo := NewRepository[note](setupTestDB(t))
	n := &note{Title: "ghost"}
	n.ID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	if err := repo.Update(context.Background(), n); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if c, _ := repo.Count(context.Background()); c != 0 {
		t.Fatalf("update must not insert")
	}
}

func TestFindPage(t *testing.T) {
	repo := NewRepository[note](setupTestDB(t))
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if err := repo.Create(ctx, &note{Views: i, Code: fmt.Sprintf("n-%02d", i)}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	res, err := repo.FindPage(ctx, 3, 10, WithOrder(clause.OrderByColumn{Column: clause.Column{Name: "views"}, Desc: true}))
	if err != nil {
		t.Fatalf("find page: %v", err)
	}
	if res.Total != 25 || res.Pages != 3 || len(res.List) != 5 {
		t.Fatalf("unexpected page: total=%d pages=%d len=%d", res.Total, res.Pages, len(res.List))
	}
	if res.List[0].Views != 4 || res.List[4].Views != 0 {
		t.Fatalf("unexpected ordering: first=%d last=%d", res.List[0].Views, res.List[4].Views)
	}

	res, err = repo.FindPage(ctx, 9, 10)
	if err != nil || len(res.List) != 0 || res.Total != 25 {
		t.Fatalf("page past the end should be empty: %+v %v", res, err)
	}

	scoped, err := repo.FindPage(ctx, 1, 10, WithScopes(func(db *gorm.DB) *gorm.DB {
		return db.Where("views >= ?", 20)
	}))
	if err != nil || scoped.Total != 5 {
		t.Fatalf("unexpected scoped total: %+v %v", scoped, err)
	}
}

func TestTransactionRollback(t *testing.T) {
	repo := NewRepository[note](setupTestDB(t))
	ctx := context.Background()

	err := repo.Transaction(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, &note{Code: "T1"}); err != nil {
			return err
		}
		return errors.Validation("abort")
	})
	if !errors.IsValidation(err) {
		t.Fatalf("expected biz error passthrough, got %v", err)
	}
	if c, _ := repo.Count(ctx); c != 0 {
		t.Fatalf("expected rollback, got %d rows", c)
	}
}
