package asaas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brpag/gateway/internal/cache"
	"github.com/brpag/gateway/internal/config"
	"github.com/brpag/gateway/internal/observability/tracing"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// supplementary data (bank-slip links, PIX QR payloads) is immutable once the
// charge exists; cache it for the process lifetime.
const supplementaryTTL = 0

// ProviderError carries the upstream HTTP status and response body. The
// gateway logs the body but never interprets it.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("asaas: upstream returned %d", e.StatusCode)
}

// Client talks to the Asaas REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger

	bankSlipLinks *cache.TTLCache[string, string]
	pixQRCodes    *cache.TTLCache[string, paymentdomain.ProviderPixQRCode]
}

// NewClient builds the Asaas provider client.
func NewClient(cfg config.Config, log *zap.Logger) *Client {
	timeout := cfg.Asaas.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.Asaas.BaseURL, "/"),
		apiKey:        cfg.Asaas.APIKey,
		httpClient:    tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		log:           log.Named("asaas.client"),
		bankSlipLinks: cache.New[string, string](),
		pixQRCodes:    cache.New[string, paymentdomain.ProviderPixQRCode](),
	}
}

type customerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CpfCnpj       string `json:"cpfCnpj"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	AddressNumber string `json:"addressNumber,omitempty"`
	Complement    string `json:"complement,omitempty"`
	Province      string `json:"province,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
}

type customerResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj"`
}

func (c *Client) CreateCustomer(ctx context.Context, req paymentdomain.ProviderCustomerRequest) (*paymentdomain.ProviderCustomer, error) {
	body := customerRequest{
		Name:          req.Name,
		Email:         req.Email,
		CpfCnpj:       req.CpfCnpj,
		Phone:         req.Phone,
		Address:       req.Address,
		AddressNumber: req.AddressNumber,
		Complement:    req.AddressComplement,
		Province:      req.Province,
		PostalCode:    req.PostalCode,
	}

	var resp customerResponse
	if err := c.do(ctx, http.MethodPost, "/customers", body, &resp); err != nil {
		return nil, err
	}
	return &paymentdomain.ProviderCustomer{
		ID:      resp.ID,
		Name:    resp.Name,
		Email:   resp.Email,
		CpfCnpj: resp.CpfCnpj,
	}, nil
}

type creditCardRequest struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CCV         string `json:"ccv"`
}

type creditCardHolderInfoRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	CpfCnpj           string `json:"cpfCnpj"`
	PostalCode        string `json:"postalCode"`
	AddressNumber     string `json:"addressNumber"`
	AddressComplement string `json:"addressComplement,omitempty"`
	Phone             string `json:"phone"`
}

type chargeRequest struct {
	Customer             string                       `json:"customer"`
	BillingType          string                       `json:"billingType"`
	Value                float64                      `json:"value"`
	DueDate              string                       `json:"dueDate"`
	Description          string                       `json:"description"`
	CreditCard           *creditCardRequest           `json:"creditCard,omitempty"`
	CreditCardHolderInfo *creditCardHolderInfoRequest `json:"creditCardHolderInfo,omitempty"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) CreateCharge(ctx context.Context, req paymentdomain.ProviderChargeRequest) (*paymentdomain.ProviderCharge, error) {
	dueDate := req.DueDate
	if req.BillingType == paymentdomain.MethodPix {
		// PIX charges settle instantly; Asaas expects today's date.
		dueDate = time.Now().UTC()
	}

	body := chargeRequest{
		Customer:    req.CustomerID,
		BillingType: string(req.BillingType),
		Value:       req.Value.InexactFloat64(),
		DueDate:     dueDate.Format(dateLayout),
		Description: req.Description,
	}
	if req.BillingType == paymentdomain.MethodCreditCard {
		if req.Card == nil || req.Holder == nil {
			return nil, paymentdomain.ErrCardRequired
		}
		body.CreditCard = &creditCardRequest{
			HolderName:  req.Card.HolderName,
			Number:      req.Card.Number,
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			CCV:         req.Card.CCV,
		}
		body.CreditCardHolderInfo = &creditCardHolderInfoRequest{
			Name:              req.Holder.Name,
			Email:             req.Holder.Email,
			CpfCnpj:           req.Holder.CpfCnpj,
			PostalCode:        req.Holder.PostalCode,
			AddressNumber:     req.Holder.AddressNumber,
			AddressComplement: req.Holder.AddressComplement,
			Phone:             req.Holder.Phone,
		}
	}

	var resp chargeResponse
	if err := c.do(ctx, http.MethodPost, "/payments", body, &resp); err != nil {
		return nil, err
	}
	return &paymentdomain.ProviderCharge{ID: resp.ID, Status: resp.Status}, nil
}

func (c *Client) GetChargeStatus(ctx context.Context, externalID string) (string, error) {
	var resp chargeResponse
	if err := c.do(ctx, http.MethodGet, "/payments/"+externalID, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) GetBankSlipURL(ctx context.Context, externalID string) (string, error) {
	if url, ok := c.bankSlipLinks.Get(externalID); ok {
		return url, nil
	}

	var resp struct {
		InvoiceURL string `json:"invoiceUrl"`
	}
	if err := c.do(ctx, http.MethodGet, "/payments/"+externalID+"/identificationField", nil, &resp); err != nil {
		return "", err
	}
	if resp.InvoiceURL != "" {
		c.bankSlipLinks.Set(externalID, resp.InvoiceURL, supplementaryTTL)
	}
	return resp.InvoiceURL, nil
}

func (c *Client) GetPixQRCode(ctx context.Context, externalID string) (*paymentdomain.ProviderPixQRCode, error) {
	if qr, ok := c.pixQRCodes.Get(externalID); ok {
		return &qr, nil
	}

	var resp struct {
		EncodedImage string `json:"encodedImage"`
		Payload      string `json:"payload"`
	}
	if err := c.do(ctx, http.MethodGet, "/payments/"+externalID+"/pixQrCode", nil, &resp); err != nil {
		return nil, err
	}
	qr := paymentdomain.ProviderPixQRCode{
		EncodedImage: resp.EncodedImage,
		Payload:      resp.Payload,
	}
	if qr.EncodedImage != "" && qr.Payload != "" {
		c.pixQRCodes.Set(externalID, qr, supplementaryTTL)
	}
	return &qr, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		c.log.Error("asaas request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		return &ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
