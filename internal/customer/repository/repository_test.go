package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/brpag/gateway/internal/customer/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&customerdomain.Customer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestInsertAndFindByCpfCnpj(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	customer := &customerdomain.Customer{
		ID:         node.Generate(),
		Name:       "Maria Silva",
		Email:      "maria@example.com",
		CpfCnpj:    "12345678901",
		ExternalID: "cus_001",
	}
	if err := repo.Insert(ctx, db, customer); err != nil {
		t.Fatalf("insert: %v", err)
	}

	found, err := repo.FindByCpfCnpj(ctx, db, "12345678901")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil {
		t.Fatal("expected customer, got nil")
	}
	if found.ExternalID != "cus_001" {
		t.Fatalf("expected cus_001, got %s", found.ExternalID)
	}
}

func TestFindByCpfCnpjMiss(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()

	found, err := repo.FindByCpfCnpj(context.Background(), db, "00000000000")
	if err != nil {
		t.Fatalf("unexpected error on miss: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil on miss, got %+v", found)
	}
}

func TestUpdateExternalID(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	customer := &customerdomain.Customer{
		ID:      node.Generate(),
		Name:    "Joao Souza",
		Email:   "joao@example.com",
		CpfCnpj: "98765432100",
	}
	if err := repo.Insert(ctx, db, customer); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.UpdateExternalID(ctx, db, customer.ID, "cus_002"); err != nil {
		t.Fatalf("update external id: %v", err)
	}

	found, err := repo.FindByID(ctx, db, customer.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ExternalID != "cus_002" {
		t.Fatalf("expected cus_002, got %s", found.ExternalID)
	}
}
