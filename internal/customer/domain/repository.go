package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	// FindByCpfCnpj returns nil without error when no customer matches.
	FindByCpfCnpj(ctx context.Context, db *gorm.DB, cpfCnpj string) (*Customer, error)
	UpdateExternalID(ctx context.Context, db *gorm.DB, id snowflake.ID, externalID string) error
}

var ErrCustomerNotFound = errors.New("customer_not_found")
