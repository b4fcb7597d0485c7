package service

import (
	"context"

	"github.com/brpag/gateway/internal/clock"
	customerdomain "github.com/brpag/gateway/internal/customer/domain"
	"github.com/brpag/gateway/internal/observability/logger"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
	"github.com/brpag/gateway/internal/payment/postprocess"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultDescription = "Payment"

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	Repo      paymentdomain.Repository
	Customers customerdomain.Repository
	Provider  paymentdomain.Provider
	Queue     *postprocess.Queue
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	repo      paymentdomain.Repository
	customers customerdomain.Repository
	provider  paymentdomain.Provider
	queue     *postprocess.Queue
}

func NewService(p Params) paymentdomain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("payment.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		repo:      p.Repo,
		customers: p.Customers,
		provider:  p.Provider,
		queue:     p.Queue,
	}
}

// ProcessPayment resolves the payer, creates the provider charge, records it
// locally and schedules the per-method post-processing task.
func (s *service) ProcessPayment(ctx context.Context, req paymentdomain.CreatePaymentRequest) (*paymentdomain.Response, error) {
	log := logger.WithContext(ctx, s.log)

	if !req.Value.IsPositive() {
		return nil, paymentdomain.ErrInvalidValue
	}
	if req.Method == paymentdomain.MethodCreditCard && req.Card == nil {
		return nil, paymentdomain.ErrCardRequired
	}

	customer, err := s.resolveCustomer(ctx, log, req)
	if err != nil {
		return nil, err
	}

	dueDate := s.clock.Now()
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	description := req.Description
	if description == "" {
		description = defaultDescription
	}

	charge, err := s.provider.CreateCharge(ctx, paymentdomain.ProviderChargeRequest{
		CustomerID:  customer.ExternalID,
		BillingType: req.Method,
		Value:       req.Value,
		DueDate:     dueDate,
		Description: description,
		Card:        req.Card,
		Holder:      req.Holder,
	})
	if err != nil {
		log.Error("provider charge creation failed",
			zap.String("customer_id", customer.ID.String()),
			zap.String("payment_method", string(req.Method)),
			zap.Error(err),
		)
		return nil, err
	}

	status, err := paymentdomain.ParseStatus(charge.Status)
	if err != nil {
		log.Warn("provider returned unknown charge status",
			zap.String("external_id", charge.ID),
			zap.String("provider_status", charge.Status),
		)
		status = paymentdomain.StatusPending
	}

	payment := &paymentdomain.Payment{
		ID:         s.genID.Generate(),
		CustomerID: customer.ID,
		Method:     req.Method,
		Value:      req.Value,
		Status:     status,
		ExternalID: charge.ID,
		DueDate:    &dueDate,
	}
	if err := s.repo.Insert(ctx, s.db, payment); err != nil {
		log.Error("payment record insert failed after provider charge",
			zap.String("external_id", charge.ID),
			zap.Error(err),
		)
		return nil, err
	}

	log.Info("payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("external_id", payment.ExternalID),
		zap.String("payment_method", string(payment.Method)),
		zap.String("status", string(payment.Status)),
	)

	if err := s.queue.Enqueue(ctx, payment); err != nil {
		log.Error("post-processing enqueue failed",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
		if markErr := s.repo.MarkError(ctx, s.db, payment.ID, err.Error()); markErr != nil {
			log.Error("marking payment error failed",
				zap.String("payment_id", payment.ID.String()),
				zap.Error(markErr),
			)
		}
		return nil, err
	}

	return paymentdomain.ToResponse(payment), nil
}

// resolveCustomer reuses the local record for a known CPF/CNPJ and otherwise
// registers the payer with the provider before persisting it locally.
func (s *service) resolveCustomer(ctx context.Context, log *zap.Logger, req paymentdomain.CreatePaymentRequest) (*customerdomain.Customer, error) {
	existing, err := s.customers.FindByCpfCnpj(ctx, s.db, req.CpfCnpj)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ExternalID != "" {
		return existing, nil
	}

	created, err := s.provider.CreateCustomer(ctx, paymentdomain.ProviderCustomerRequest{
		Name:              req.Name,
		Email:             req.Email,
		CpfCnpj:           req.CpfCnpj,
		Phone:             req.Phone,
		Address:           req.Address,
		AddressNumber:     req.AddressNumber,
		AddressComplement: req.AddressComplement,
		Province:          req.Province,
		PostalCode:        req.PostalCode,
	})
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.customers.UpdateExternalID(ctx, s.db, existing.ID, created.ID); err != nil {
			return nil, err
		}
		existing.ExternalID = created.ID
		return existing, nil
	}

	customer := &customerdomain.Customer{
		ID:                s.genID.Generate(),
		Name:              req.Name,
		Email:             req.Email,
		CpfCnpj:           req.CpfCnpj,
		Phone:             req.Phone,
		Address:           req.Address,
		AddressNumber:     req.AddressNumber,
		AddressComplement: req.AddressComplement,
		Province:          req.Province,
		PostalCode:        req.PostalCode,
		ExternalID:        created.ID,
	}
	if err := s.customers.Insert(ctx, s.db, customer); err != nil {
		// The provider record already exists; one more attempt keeps the two
		// sides from drifting apart on a transient failure.
		customer.ID = s.genID.Generate()
		if retryErr := s.customers.Insert(ctx, s.db, customer); retryErr != nil {
			log.Error("customer insert failed, provider customer orphaned",
				zap.String("provider_customer_id", created.ID),
				zap.String("cpf_cnpj", logger.MaskTaxID(req.CpfCnpj)),
				zap.Error(retryErr),
			)
			return nil, retryErr
		}
	}
	return customer, nil
}

// GetPaymentDetails returns the local record, refreshed against the
// provider's current status. Reconciling even terminal statuses lets a
// payment wrongly marked ERROR by a failed post-processing attempt recover
// on the next read. Provider read failures never block the read, the stale
// local record is served instead.
func (s *service) GetPaymentDetails(ctx context.Context, id string) (*paymentdomain.Response, error) {
	log := logger.WithContext(ctx, s.log)

	paymentID, err := paymentdomain.ParseID(id)
	if err != nil {
		return nil, err
	}
	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return nil, err
	}

	payment = s.reconcile(ctx, log, payment)
	return paymentdomain.ToResponse(payment), nil
}

func (s *service) reconcile(ctx context.Context, log *zap.Logger, payment *paymentdomain.Payment) *paymentdomain.Payment {
	raw, err := s.provider.GetChargeStatus(ctx, payment.ExternalID)
	if err != nil {
		log.Warn("status reconciliation skipped",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
		return payment
	}

	status, err := paymentdomain.ParseStatus(raw)
	if err != nil {
		log.Warn("provider returned unknown charge status",
			zap.String("payment_id", payment.ID.String()),
			zap.String("provider_status", raw),
		)
		return payment
	}
	if status == payment.Status {
		return payment
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, payment.ID, status)
	if err != nil {
		log.Error("status update failed during reconciliation",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
		return payment
	}

	log.Info("payment status reconciled",
		zap.String("payment_id", updated.ID.String()),
		zap.String("from", string(payment.Status)),
		zap.String("to", string(updated.Status)),
	)
	return updated
}

// GetBankSlipURL returns the boleto link, fetching and persisting it when the
// post-processing task has not stored it yet.
func (s *service) GetBankSlipURL(ctx context.Context, id string) (string, error) {
	paymentID, err := paymentdomain.ParseID(id)
	if err != nil {
		return "", err
	}
	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return "", err
	}
	if payment.Method != paymentdomain.MethodBoleto {
		return "", paymentdomain.ErrNotBankSlip
	}
	if payment.InvoiceURL != nil && *payment.InvoiceURL != "" {
		return *payment.InvoiceURL, nil
	}

	url, err := s.provider.GetBankSlipURL(ctx, payment.ExternalID)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateInvoiceURL(ctx, s.db, payment.ID, url); err != nil {
		return "", err
	}
	return url, nil
}

// GetPixData returns the QR payload pair, fetching and persisting it when the
// post-processing task has not stored it yet.
func (s *service) GetPixData(ctx context.Context, id string) (*paymentdomain.PixData, error) {
	paymentID, err := paymentdomain.ParseID(id)
	if err != nil {
		return nil, err
	}
	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Method != paymentdomain.MethodPix {
		return nil, paymentdomain.ErrNotPix
	}
	if hasPixData(payment) {
		return &paymentdomain.PixData{
			QRCode: *payment.PixCode,
			Code:   *payment.PixQRCode,
		}, nil
	}

	qr, err := s.provider.GetPixQRCode(ctx, payment.ExternalID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePixData(ctx, s.db, payment.ID, qr.EncodedImage, qr.Payload); err != nil {
		return nil, err
	}
	return &paymentdomain.PixData{QRCode: qr.EncodedImage, Code: qr.Payload}, nil
}

func hasPixData(p *paymentdomain.Payment) bool {
	return p.PixCode != nil && *p.PixCode != "" &&
		p.PixQRCode != nil && *p.PixQRCode != ""
}

// HandleWebhook applies a provider callback to the local record. The incoming
// status always wins, even over a terminal local status, so the provider
// remains the source of truth.
func (s *service) HandleWebhook(ctx context.Context, payload paymentdomain.WebhookPayload) (*paymentdomain.Response, error) {
	log := logger.WithContext(ctx, s.log)

	if payload.ExternalID == "" || payload.Status == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}
	status, err := paymentdomain.ParseStatus(payload.Status)
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.FindByExternalID(ctx, s.db, payload.ExternalID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, payment.ID, status)
	if err != nil {
		return nil, err
	}

	log.Info("webhook applied",
		zap.String("payment_id", updated.ID.String()),
		zap.String("event", payload.Event),
		zap.String("from", string(payment.Status)),
		zap.String("to", string(updated.Status)),
	)
	return paymentdomain.ToResponse(updated), nil
}
