package postprocess

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobKind selects the post-processing task to run for a payment.
type JobKind string

const (
	KindBoleto     JobKind = "boleto"
	KindCreditCard JobKind = "credit_card"
	KindPix        JobKind = "pix"
)

// KindForMethod maps a payment method to its post-processing task.
func KindForMethod(method paymentdomain.PaymentMethod) (JobKind, error) {
	switch method {
	case paymentdomain.MethodBoleto:
		return KindBoleto, nil
	case paymentdomain.MethodCreditCard:
		return KindCreditCard, nil
	case paymentdomain.MethodPix:
		return KindPix, nil
	default:
		return "", paymentdomain.ErrInvalidMethod
	}
}

const (
	jobStatusQueued  = "queued"
	jobStatusRunning = "running"
	jobStatusDone    = "done"
	jobStatusFailed  = "failed"
)

// Job is one pending post-processing unit. The queue delivers at least once:
// a job claimed by a crashed worker is reclaimed after its lease expires, so
// tasks must tolerate re-execution.
type Job struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	PaymentID snowflake.ID      `gorm:"not null;uniqueIndex:idx_payment_jobs_payment_kind"`
	Kind      JobKind           `gorm:"type:text;not null;uniqueIndex:idx_payment_jobs_payment_kind"`
	Status    string            `gorm:"type:text;not null;default:'queued'"`
	Attempts  int               `gorm:"not null;default:0"`
	RunAfter  time.Time         `gorm:"not null;index"`
	LastError *string           `gorm:"type:text"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Job) TableName() string { return "payment_jobs" }

// Queue inserts post-processing jobs into the payment_jobs table.
type Queue struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewQueue(db *gorm.DB, genID *snowflake.Node) *Queue {
	return &Queue{db: db, genID: genID}
}

// Enqueue stores exactly one job for the payment, selected by its method.
// Re-enqueueing the same payment is a no-op, so dispatch stays idempotent
// under client retries of the surrounding request.
func (q *Queue) Enqueue(ctx context.Context, payment *paymentdomain.Payment) error {
	if q == nil || q.db == nil || q.genID == nil {
		return errors.New("queue_unavailable")
	}
	if payment == nil {
		return paymentdomain.ErrPaymentNotFound
	}
	kind, err := KindForMethod(payment.Method)
	if err != nil {
		return err
	}

	payload := datatypes.JSONMap{
		"payment_method": string(payment.Method),
		"external_id":    payment.ExternalID,
	}

	now := time.Now().UTC()
	return q.db.WithContext(ctx).Exec(
		`INSERT INTO payment_jobs (id, payment_id, kind, status, attempts, run_after, payload, created_at, updated_at)
		 VALUES (?, ?, ?, 'queued', 0, ?, ?, ?, ?)
		 ON CONFLICT (payment_id, kind) DO NOTHING`,
		q.genID.Generate(),
		payment.ID,
		kind,
		now,
		payload,
		now,
		now,
	).Error
}
