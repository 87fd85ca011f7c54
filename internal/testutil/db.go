// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go-distribution-ws/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the full schema. A
// single connection serializes transactions the way row locks would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// User inserts an account with the given role, onboarded by creator (nil for a root).
func User(t *testing.T, db *gorm.DB, role model.Role, creator *model.User) *model.User {
	t.Helper()
	id := uuid.New()
	u := &model.User{
		Username: fmt.Sprintf("%s-%s", role, id.String()[:8]),
		Email:    fmt.Sprintf("%s-%s@example.com", role, id.String()[:8]),
		Password: "x",
		Role:     role,
		Tier:     model.DefaultTier,
		Phone:    "08" + id.String()[:8],
	}
	u.ID = id
	if creator != nil {
		u.CreatedByID = &creator.ID
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// Product inserts a stock line owned by owner.
func Product(t *testing.T, db *gorm.DB, owner *model.User, name string, price, cost int64, qty int) *model.Product {
	t.Helper()
	expiry := time.Now().AddDate(1, 0, 0)
	p := &model.Product{
		UserID:        owner.ID,
		Name:          name,
		Category:      "general",
		ProductPrice:  decimal.NewFromInt(price),
		PurchasePrice: decimal.NewFromInt(cost),
		HET:           decimal.NewFromInt(price),
		Quantity:      qty,
		ExpiredDate:   &expiry,
		Position:      "rack A",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// Publisher records every emitted event.
type Publisher struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

type Event struct {
	Name    string
	Payload interface{}
}

func (p *Publisher) Emit(event string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, Event{Name: event, Payload: payload})
	return p.Err
}

func (p *Publisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Events)
}

// Notifications returns every emitted notification payload in order.
func (p *Publisher) Notifications() []*model.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*model.Notification
	for _, e := range p.Events {
		if n, ok := e.Payload.(*model.Notification); ok {
			out = append(out, n)
		}
	}
	return out
}
