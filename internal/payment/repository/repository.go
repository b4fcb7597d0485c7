package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
	"gorm.io/gorm"
)

type gormRepository struct{}

// Provide builds the gorm-backed payment repository.
func Provide() paymentdomain.Repository {
	return &gormRepository{}
}

func (r *gormRepository) Insert(ctx context.Context, db *gorm.DB, payment *paymentdomain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *gormRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*paymentdomain.Payment, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).First(&payment, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status paymentdomain.PaymentStatus) (*paymentdomain.Payment, error) {
	parsed, err := paymentdomain.ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	if err := r.updateFields(ctx, db, id, map[string]any{"status": parsed}); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, db, id)
}

func (r *gormRepository) UpdateInvoiceURL(ctx context.Context, db *gorm.DB, id snowflake.ID, url string) error {
	return r.updateFields(ctx, db, id, map[string]any{"invoice_url": url})
}

func (r *gormRepository) UpdatePixData(ctx context.Context, db *gorm.DB, id snowflake.ID, code, qrcode string) error {
	return r.updateFields(ctx, db, id, map[string]any{
		"pix_code":   code,
		"pix_qrcode": qrcode,
	})
}

func (r *gormRepository) MarkError(ctx context.Context, db *gorm.DB, id snowflake.ID, message string) error {
	return r.updateFields(ctx, db, id, map[string]any{
		"status":        paymentdomain.StatusError,
		"error_message": message,
	})
}

func (r *gormRepository) updateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	result := db.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return paymentdomain.ErrPaymentNotFound
	}
	return nil
}
