package postprocess

import (
	"context"
	"errors"
	"time"

	"github.com/brpag/gateway/internal/observability/metrics"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     paymentdomain.Repository
	Provider paymentdomain.Provider
	Config   Config
	Metrics  *metrics.WorkerMetrics `optional:"true"`
}

// Worker polls payment_jobs and runs the per-method post-processing tasks.
type Worker struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     paymentdomain.Repository
	provider paymentdomain.Provider
	cfg      Config
	metrics  *metrics.WorkerMetrics
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:       p.DB,
		log:      p.Log.Named("payment.postprocess"),
		repo:     p.Repo,
		provider: p.Provider,
		cfg:      p.Config.withDefaults(),
		metrics:  p.Metrics,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("post-processing run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) error {
	if w.db == nil || w.repo == nil || w.provider == nil {
		return errors.New("postprocess_worker_unavailable")
	}

	jobs, err := w.claimBatch(ctx, w.cfg.BatchSize)
	if err != nil {
		return err
	}
	for i := range jobs {
		w.handle(ctx, &jobs[i])
	}

	w.reportBacklog(ctx)
	return nil
}

// claimBatch marks due jobs as running with a lease. Claims are optimistic:
// an UPDATE that matches zero rows means another worker got there first.
func (w *Worker) claimBatch(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}
	now := time.Now().UTC()

	var candidates []Job
	err := w.db.WithContext(ctx).
		Where("run_after <= ? AND (status = ? OR (status = ? AND updated_at <= ?))",
			now, jobStatusQueued, jobStatusRunning, now.Add(-w.cfg.Lease)).
		Order("run_after").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]Job, 0, len(candidates))
	for _, job := range candidates {
		result := w.db.WithContext(ctx).
			Model(&Job{}).
			Where("id = ? AND status = ? AND attempts = ?", job.ID, job.Status, job.Attempts).
			Updates(map[string]any{
				"status":     jobStatusRunning,
				"attempts":   job.Attempts + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return claimed, result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}
		job.Status = jobStatusRunning
		job.Attempts++
		job.UpdatedAt = now
		claimed = append(claimed, job)
	}
	return claimed, nil
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	err := w.run(ctx, job)
	if err == nil {
		w.complete(ctx, job)
		return
	}

	w.log.Error("post-processing task failed",
		zap.String("kind", string(job.Kind)),
		zap.String("payment_id", job.PaymentID.String()),
		zap.Int("attempts", job.Attempts),
		zap.Error(err),
	)

	// The payment carries the failure even while the job retries, so a payer
	// checking the status page sees ERROR rather than a stale PENDING.
	if markErr := w.repo.MarkError(ctx, w.db, job.PaymentID, err.Error()); markErr != nil {
		w.log.Error("marking payment error failed",
			zap.String("payment_id", job.PaymentID.String()),
			zap.Error(markErr),
		)
	}

	w.reschedule(ctx, job, err)
}

func (w *Worker) run(ctx context.Context, job *Job) error {
	payment, err := w.repo.FindByID(ctx, w.db, job.PaymentID)
	if err != nil {
		return err
	}

	switch job.Kind {
	case KindBoleto:
		url, err := w.provider.GetBankSlipURL(ctx, payment.ExternalID)
		if err != nil {
			return err
		}
		return w.repo.UpdateInvoiceURL(ctx, w.db, payment.ID, url)

	case KindCreditCard:
		status, err := w.provider.GetChargeStatus(ctx, payment.ExternalID)
		if err != nil {
			return err
		}
		if paymentdomain.PaymentStatus(status) == payment.Status {
			return nil
		}
		_, err = w.repo.UpdateStatus(ctx, w.db, payment.ID, paymentdomain.PaymentStatus(status))
		return err

	case KindPix:
		qr, err := w.provider.GetPixQRCode(ctx, payment.ExternalID)
		if err != nil {
			return err
		}
		return w.repo.UpdatePixData(ctx, w.db, payment.ID, qr.EncodedImage, qr.Payload)

	default:
		return paymentdomain.ErrInvalidMethod
	}
}

func (w *Worker) complete(ctx context.Context, job *Job) {
	now := time.Now().UTC()
	err := w.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"status":     jobStatusDone,
			"last_error": nil,
			"updated_at": now,
		}).Error
	if err != nil {
		w.log.Error("completing job failed", zap.Error(err))
		return
	}
	w.metrics.IncJobProcessed(string(job.Kind), "success")
	w.metrics.ObserveJobLag(now.Sub(job.CreatedAt))
}

func (w *Worker) reschedule(ctx context.Context, job *Job, cause error) {
	now := time.Now().UTC()
	fields := map[string]any{
		"last_error": cause.Error(),
		"updated_at": now,
	}

	result := "retried"
	if job.Attempts >= w.cfg.MaxAttempts {
		fields["status"] = jobStatusFailed
		result = "failed"
	} else {
		fields["status"] = jobStatusQueued
		fields["run_after"] = now.Add(w.cfg.RetryBackoff * time.Duration(job.Attempts))
	}

	if err := w.db.WithContext(ctx).
		Model(&Job{}).
		Where("id = ?", job.ID).
		Updates(fields).Error; err != nil {
		w.log.Error("rescheduling job failed", zap.Error(err))
		return
	}
	w.metrics.IncJobProcessed(string(job.Kind), result)
}

func (w *Worker) reportBacklog(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	for _, kind := range []JobKind{KindBoleto, KindCreditCard, KindPix} {
		var count int64
		if err := w.db.WithContext(ctx).
			Model(&Job{}).
			Where("kind = ? AND status = ?", kind, jobStatusQueued).
			Count(&count).Error; err != nil {
			return
		}
		w.metrics.SetBacklog(string(kind), int(count))
	}
}
