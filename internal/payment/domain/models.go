package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the closed set of billing types accepted by the gateway.
type PaymentMethod string

const (
	MethodBoleto     PaymentMethod = "BOLETO"
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
	MethodPix        PaymentMethod = "PIX"
)

// ParseMethod normalizes and validates a billing type literal.
func ParseMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(raw))) {
	case MethodBoleto:
		return MethodBoleto, nil
	case MethodCreditCard:
		return MethodCreditCard, nil
	case MethodPix:
		return MethodPix, nil
	default:
		return "", ErrInvalidMethod
	}
}

// Label returns the human-readable method name shown to payers.
func (m PaymentMethod) Label() string {
	switch m {
	case MethodBoleto:
		return "Boleto Bancário"
	case MethodCreditCard:
		return "Cartão de Crédito"
	case MethodPix:
		return "PIX"
	default:
		return string(m)
	}
}

// PaymentStatus tracks the charge lifecycle. Initial values come verbatim
// from the provider; ERROR is local-only and never reported by the provider.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusConfirmed PaymentStatus = "CONFIRMED"
	StatusReceived  PaymentStatus = "RECEIVED"
	StatusDeclined  PaymentStatus = "DECLINED"
	StatusFailed    PaymentStatus = "FAILED"
	StatusRefunded  PaymentStatus = "REFUNDED"
	StatusCanceled  PaymentStatus = "CANCELED"
	StatusError     PaymentStatus = "ERROR"
)

// ParseStatus validates a status literal against the closed enumeration.
func ParseStatus(raw string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusConfirmed, StatusReceived, StatusDeclined,
		StatusFailed, StatusRefunded, StatusCanceled, StatusError:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Label returns the human-readable status shown to payers.
func (s PaymentStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pendente"
	case StatusConfirmed:
		return "Confirmado"
	case StatusReceived:
		return "Recebido"
	case StatusDeclined:
		return "Recusado"
	case StatusFailed:
		return "Falhou"
	case StatusRefunded:
		return "Reembolsado"
	case StatusCanceled:
		return "Cancelado"
	case StatusError:
		return "Erro"
	default:
		return string(s)
	}
}

// Color returns the badge class used by payment status pages.
func (s PaymentStatus) Color() string {
	switch s {
	case StatusPending:
		return "warning"
	case StatusConfirmed, StatusReceived:
		return "success"
	case StatusDeclined, StatusFailed, StatusError:
		return "danger"
	case StatusRefunded, StatusCanceled:
		return "secondary"
	default:
		return "secondary"
	}
}

// Terminal reports whether the status admits no further provider transitions.
// CONFIRMED still moves to RECEIVED on settlement.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case StatusPending, StatusConfirmed:
		return false
	default:
		return true
	}
}

// Payment is the local record tracking one provider charge.
type Payment struct {
	ID           snowflake.ID    `gorm:"primaryKey"`
	CustomerID   snowflake.ID    `gorm:"not null;index"`
	Method       PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	Value        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status       PaymentStatus   `gorm:"type:text;not null"`
	ExternalID   string          `gorm:"uniqueIndex;not null"`
	InvoiceURL   *string         `gorm:"type:text"`
	PixCode      *string         `gorm:"type:text"`
	PixQRCode    *string         `gorm:"column:pix_qrcode;type:text"`
	DueDate      *time.Time
	ErrorMessage *string   `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// FormatBRL renders a value as Brazilian currency, e.g. "R$ 1.234,56".
func FormatBRL(value decimal.Decimal) string {
	fixed := value.StringFixed(2)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	integer, cents := parts[0], parts[1]

	var b strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}

	out := "R$ " + b.String() + "," + cents
	if negative {
		out = "-" + out
	}
	return out
}

// FormatDueDate renders a due date as day/month/year.
func FormatDueDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
