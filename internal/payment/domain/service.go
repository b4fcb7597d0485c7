package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CardData carries the card fields required when the method is CREDIT_CARD.
type CardData struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CCV         string `json:"ccv"`
}

// CardHolderInfo identifies the cardholder for provider-side anti-fraud checks.
type CardHolderInfo struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	CpfCnpj           string `json:"cpf_cnpj"`
	PostalCode        string `json:"postal_code"`
	AddressNumber     string `json:"address_number"`
	AddressComplement string `json:"address_complement"`
	Phone             string `json:"phone"`
}

// CreatePaymentRequest is a validated payment request, ready for processing.
type CreatePaymentRequest struct {
	Name              string
	Email             string
	CpfCnpj           string
	Phone             string
	Address           string
	AddressNumber     string
	AddressComplement string
	Province          string
	PostalCode        string

	Method      PaymentMethod
	Value       decimal.Decimal
	DueDate     *time.Time
	Description string

	Card   *CardData
	Holder *CardHolderInfo
}

// WebhookPayload is a provider callback after key-presence validation.
type WebhookPayload struct {
	Event      string
	ExternalID string
	Status     string
}

// PixData carries the base64 QR image and the copy-paste code returned to
// payers.
type PixData struct {
	QRCode string `json:"qrcode"`
	Code   string `json:"code"`
}

// Response is the payment representation returned by the API.
type Response struct {
	ID                string          `json:"id"`
	CustomerID        string          `json:"customer_id"`
	Method            PaymentMethod   `json:"payment_method"`
	MethodLabel       string          `json:"payment_method_formatted"`
	Value             decimal.Decimal `json:"value"`
	ValueFormatted    string          `json:"value_formatted"`
	Status            PaymentStatus   `json:"status"`
	StatusLabel       string          `json:"status_formatted"`
	StatusColor       string          `json:"status_color"`
	ExternalID        string          `json:"external_id"`
	InvoiceURL        *string         `json:"invoice_url,omitempty"`
	PixCode           *string         `json:"pix_code,omitempty"`
	PixQRCode         *string         `json:"pix_qrcode,omitempty"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	DueDateFormatted  string          `json:"due_date_formatted,omitempty"`
	ErrorMessage      *string         `json:"error_message,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToResponse shapes a Payment for the API, hiding method-mismatched fields.
func ToResponse(p *Payment) *Response {
	if p == nil {
		return nil
	}
	resp := &Response{
		ID:               p.ID.String(),
		CustomerID:       p.CustomerID.String(),
		Method:           p.Method,
		MethodLabel:      p.Method.Label(),
		Value:            p.Value,
		ValueFormatted:   FormatBRL(p.Value),
		Status:           p.Status,
		StatusLabel:      p.Status.Label(),
		StatusColor:      p.Status.Color(),
		ExternalID:       p.ExternalID,
		DueDate:          p.DueDate,
		DueDateFormatted: FormatDueDate(p.DueDate),
		ErrorMessage:     p.ErrorMessage,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	switch p.Method {
	case MethodBoleto:
		resp.InvoiceURL = p.InvoiceURL
	case MethodPix:
		resp.PixCode = p.PixCode
		resp.PixQRCode = p.PixQRCode
	}
	return resp
}

type Service interface {
	ProcessPayment(ctx context.Context, req CreatePaymentRequest) (*Response, error)
	GetPaymentDetails(ctx context.Context, id string) (*Response, error)
	GetBankSlipURL(ctx context.Context, id string) (string, error)
	GetPixData(ctx context.Context, id string) (*PixData, error)
	HandleWebhook(ctx context.Context, payload WebhookPayload) (*Response, error)
}

func ParseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidID
	}
	return id, nil
}

var (
	ErrInvalidID       = errors.New("invalid_payment_id")
	ErrInvalidMethod   = errors.New("invalid_payment_method")
	ErrInvalidStatus   = errors.New("invalid_payment_status")
	ErrInvalidValue    = errors.New("invalid_payment_value")
	ErrInvalidPayload  = errors.New("invalid_webhook_payload")
	ErrPaymentNotFound = errors.New("payment_not_found")
	ErrNotBankSlip     = errors.New("payment_not_bank_slip")
	ErrNotPix          = errors.New("payment_not_pix")
	ErrCardRequired    = errors.New("card_data_required")
)
