package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*Payment, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status PaymentStatus) (*Payment, error)
	UpdateInvoiceURL(ctx context.Context, db *gorm.DB, id snowflake.ID, url string) error
	UpdatePixData(ctx context.Context, db *gorm.DB, id snowflake.ID, code, qrcode string) error
	MarkError(ctx context.Context, db *gorm.DB, id snowflake.ID, message string) error
}
