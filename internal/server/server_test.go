package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/brpag/gateway/internal/config"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeService struct {
	processResp *paymentdomain.Response
	processErr  error
	processReqs []paymentdomain.CreatePaymentRequest

	detailsResp *paymentdomain.Response
	detailsErr  error

	bankSlipURL string
	bankSlipErr error

	pixResp *paymentdomain.PixData
	pixErr  error

	webhookResp     *paymentdomain.Response
	webhookErr      error
	webhookPayloads []paymentdomain.WebhookPayload
}

func (f *fakeService) ProcessPayment(ctx context.Context, req paymentdomain.CreatePaymentRequest) (*paymentdomain.Response, error) {
	f.processReqs = append(f.processReqs, req)
	return f.processResp, f.processErr
}

func (f *fakeService) GetPaymentDetails(ctx context.Context, id string) (*paymentdomain.Response, error) {
	return f.detailsResp, f.detailsErr
}

func (f *fakeService) GetBankSlipURL(ctx context.Context, id string) (string, error) {
	return f.bankSlipURL, f.bankSlipErr
}

func (f *fakeService) GetPixData(ctx context.Context, id string) (*paymentdomain.PixData, error) {
	return f.pixResp, f.pixErr
}

func (f *fakeService) HandleWebhook(ctx context.Context, payload paymentdomain.WebhookPayload) (*paymentdomain.Response, error) {
	f.webhookPayloads = append(f.webhookPayloads, payload)
	return f.webhookResp, f.webhookErr
}

func setupServer(t *testing.T, svc paymentdomain.Service, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	srv := NewServer(Params{
		Config:     cfg,
		Log:        zap.NewNop(),
		DB:         db,
		PaymentSvc: svc,
	})
	return srv.NewEngine()
}

func sampleResponse() *paymentdomain.Response {
	return &paymentdomain.Response{
		ID:          "1234",
		Method:      paymentdomain.MethodPix,
		Value:       decimal.NewFromInt(100),
		Status:      paymentdomain.StatusPending,
		StatusLabel: "Pendente",
		StatusColor: "warning",
		ExternalID:  "pay_001",
	}
}

func createBody(overrides map[string]any) []byte {
	body := map[string]any{
		"name":           "Maria Silva",
		"email":          "maria@example.com",
		"cpf_cnpj":       "12345678901",
		"payment_method": "PIX",
		"value":          150.75,
	}
	for k, v := range overrides {
		if v == nil {
			delete(body, k)
			continue
		}
		body[k] = v
	}
	encoded, _ := json.Marshal(body)
	return encoded
}

func doRequest(engine *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestCreatePayment(t *testing.T) {
	svc := &fakeService{processResp: sampleResponse()}
	engine := setupServer(t, svc, config.Config{})

	resp := doRequest(engine, http.MethodPost, "/api/v1/payments", createBody(nil), nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.processReqs) != 1 {
		t.Fatalf("expected one service call, got %d", len(svc.processReqs))
	}
	if svc.processReqs[0].Method != paymentdomain.MethodPix {
		t.Fatalf("expected PIX, got %s", svc.processReqs[0].Method)
	}
}

func TestCreatePaymentRejectsMalformedJSON(t *testing.T) {
	engine := setupServer(t, &fakeService{}, config.Config{})

	resp := doRequest(engine, http.MethodPost, "/api/v1/payments", []byte("{not json"), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]any
	}{
		{"missing name", map[string]any{"name": ""}},
		{"invalid email", map[string]any{"email": "not-an-email"}},
		{"short cpf_cnpj", map[string]any{"cpf_cnpj": "123"}},
		{"unknown method", map[string]any{"payment_method": "DEBIT_CARD"}},
		{"value below minimum", map[string]any{"value": 0.001}},
		{"boleto without due date", map[string]any{"payment_method": "BOLETO"}},
		{"boleto past due date", map[string]any{"payment_method": "BOLETO", "due_date": "2020-01-01"}},
		{"credit card without card", map[string]any{"payment_method": "CREDIT_CARD"}},
		{"credit card bad number", map[string]any{
			"payment_method": "CREDIT_CARD",
			"card": map[string]any{
				"holder_name":  "MARIA",
				"number":       "1234",
				"expiry_month": "05",
				"expiry_year":  "2030",
				"ccv":          "123",
			},
		}},
	}

	svc := &fakeService{}
	engine := setupServer(t, svc, config.Config{})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(engine, http.MethodPost, "/api/v1/payments", createBody(tc.overrides), nil)
			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}
	if len(svc.processReqs) != 0 {
		t.Fatalf("service must not be called for invalid input, got %d calls", len(svc.processReqs))
	}
}

func TestCreatePaymentAcceptsBoletoWithFutureDueDate(t *testing.T) {
	svc := &fakeService{processResp: sampleResponse()}
	engine := setupServer(t, svc, config.Config{})

	due := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	resp := doRequest(engine, http.MethodPost, "/api/v1/payments", createBody(map[string]any{
		"payment_method": "BOLETO",
		"due_date":       due,
	}), nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.processReqs[0].DueDate == nil {
		t.Fatal("expected due date to be forwarded")
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	engine := setupServer(t, &fakeService{detailsErr: paymentdomain.ErrPaymentNotFound}, config.Config{})

	resp := doRequest(engine, http.MethodGet, "/api/v1/payments/1234", nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGetPaymentInvalidID(t *testing.T) {
	engine := setupServer(t, &fakeService{detailsErr: paymentdomain.ErrInvalidID}, config.Config{})

	resp := doRequest(engine, http.MethodGet, "/api/v1/payments/abc", nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetPaymentStatus(t *testing.T) {
	engine := setupServer(t, &fakeService{detailsResp: sampleResponse()}, config.Config{})

	resp := doRequest(engine, http.MethodGet, "/api/v1/payments/1234/status", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Data struct {
			Status          string `json:"status"`
			StatusFormatted string `json:"status_formatted"`
			StatusColor     string `json:"status_color"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Status != "PENDING" || body.Data.StatusFormatted != "Pendente" || body.Data.StatusColor != "warning" {
		t.Fatalf("unexpected status body %+v", body.Data)
	}
}

func TestGetBankSlipMethodMismatch(t *testing.T) {
	engine := setupServer(t, &fakeService{bankSlipErr: paymentdomain.ErrNotBankSlip}, config.Config{})

	resp := doRequest(engine, http.MethodGet, "/api/v1/payments/1234/bankslip", nil, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestGetPixQRCode(t *testing.T) {
	engine := setupServer(t, &fakeService{
		pixResp: &paymentdomain.PixData{QRCode: "encoded-image", Code: "copy-paste"},
	}, config.Config{})

	resp := doRequest(engine, http.MethodGet, "/api/v1/payments/1234/pix", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Data struct {
			QRCode string `json:"qrcode"`
			Code   string `json:"code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.QRCode != "encoded-image" || body.Data.Code != "copy-paste" {
		t.Fatalf("unexpected pix body %+v", body.Data)
	}
}

func webhookBody(event, id, status string) []byte {
	encoded, _ := json.Marshal(map[string]any{
		"event": event,
		"payment": map[string]string{
			"id":     id,
			"status": status,
		},
	})
	return encoded
}

func TestPaymentWebhook(t *testing.T) {
	svc := &fakeService{webhookResp: sampleResponse()}
	engine := setupServer(t, svc, config.Config{})

	resp := doRequest(engine, http.MethodPost, "/payments/webhook", webhookBody("PAYMENT_RECEIVED", "pay_001", "RECEIVED"), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.webhookPayloads) != 1 {
		t.Fatalf("expected one webhook call, got %d", len(svc.webhookPayloads))
	}
	payload := svc.webhookPayloads[0]
	if payload.Event != "PAYMENT_RECEIVED" || payload.ExternalID != "pay_001" || payload.Status != "RECEIVED" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestPaymentWebhookRejectsMissingFields(t *testing.T) {
	svc := &fakeService{}
	engine := setupServer(t, svc, config.Config{})

	bodies := [][]byte{
		[]byte(`{}`),
		[]byte(`{"event":"PAYMENT_RECEIVED"}`),
		[]byte(`{"event":"PAYMENT_RECEIVED","payment":{}}`),
		[]byte(`{"event":"PAYMENT_RECEIVED","payment":{"id":"pay_001"}}`),
		[]byte(`{"payment":{"id":"pay_001","status":"RECEIVED"}}`),
	}
	for _, body := range bodies {
		resp := doRequest(engine, http.MethodPost, "/payments/webhook", body, nil)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, resp.Code)
		}
	}
	if len(svc.webhookPayloads) != 0 {
		t.Fatal("service must not be called for invalid payloads")
	}
}

func TestPaymentWebhookTokenCheck(t *testing.T) {
	cfg := config.Config{}
	cfg.Asaas.WebhookToken = "secret-token"
	svc := &fakeService{webhookResp: sampleResponse()}
	engine := setupServer(t, svc, cfg)

	resp := doRequest(engine, http.MethodPost, "/payments/webhook", webhookBody("PAYMENT_RECEIVED", "pay_001", "RECEIVED"), nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	resp = doRequest(engine, http.MethodPost, "/payments/webhook", webhookBody("PAYMENT_RECEIVED", "pay_001", "RECEIVED"), map[string]string{
		"asaas-access-token": "secret-token",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.Code)
	}
}

func TestCreatePaymentRateLimit(t *testing.T) {
	cfg := config.Config{}
	cfg.RateLimit.Requests = 1
	cfg.RateLimit.Window = time.Minute
	svc := &fakeService{processResp: sampleResponse()}
	engine := setupServer(t, svc, cfg)

	if resp := doRequest(engine, http.MethodPost, "/api/v1/payments", createBody(nil), nil); resp.Code != http.StatusCreated {
		t.Fatalf("expected first request to pass, got %d", resp.Code)
	}
	if resp := doRequest(engine, http.MethodPost, "/api/v1/payments", createBody(nil), nil); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
}

func TestHealthz(t *testing.T) {
	engine := setupServer(t, &fakeService{}, config.Config{})

	resp := doRequest(engine, http.MethodGet, "/healthz", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
