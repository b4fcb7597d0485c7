package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProviderCustomerRequest is the customer payload sent to the provider.
type ProviderCustomerRequest struct {
	Name              string
	Email             string
	CpfCnpj           string
	Phone             string
	Address           string
	AddressNumber     string
	AddressComplement string
	Province          string
	PostalCode        string
}

// ProviderCustomer is the provider's view of a created customer.
type ProviderCustomer struct {
	ID      string
	Name    string
	Email   string
	CpfCnpj string
}

// ProviderChargeRequest is the charge payload sent to the provider. Card and
// Holder are set only when BillingType is CREDIT_CARD.
type ProviderChargeRequest struct {
	CustomerID  string
	BillingType PaymentMethod
	Value       decimal.Decimal
	DueDate     time.Time
	Description string
	Card        *CardData
	Holder      *CardHolderInfo
}

// ProviderCharge is the provider's view of a created charge. Status is the
// provider's literal and becomes the local record's initial status verbatim.
type ProviderCharge struct {
	ID     string
	Status string
}

// ProviderPixQRCode is the QR payload pair returned by the provider.
type ProviderPixQRCode struct {
	EncodedImage string
	Payload      string
}

// Provider abstracts the upstream payment provider. Implementations surface
// upstream failures as *asaas.ProviderError-style errors carrying the HTTP
// status and body; the gateway never interprets provider error bodies beyond
// logging them.
type Provider interface {
	CreateCustomer(ctx context.Context, req ProviderCustomerRequest) (*ProviderCustomer, error)
	CreateCharge(ctx context.Context, req ProviderChargeRequest) (*ProviderCharge, error)
	GetChargeStatus(ctx context.Context, externalID string) (string, error)
	GetBankSlipURL(ctx context.Context, externalID string) (string, error)
	GetPixQRCode(ctx context.Context, externalID string) (*ProviderPixQRCode, error)
}
