package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseMethod(t *testing.T) {
	method, err := ParseMethod(" pix ")
	if err != nil {
		t.Fatalf("parse pix: %v", err)
	}
	if method != MethodPix {
		t.Fatalf("expected PIX, got %s", method)
	}

	if _, err := ParseMethod("boleto"); err != nil {
		t.Fatalf("parse boleto: %v", err)
	}

	if _, err := ParseMethod("DEBIT_CARD"); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected invalid method, got %v", err)
	}
	if _, err := ParseMethod(""); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected invalid method for empty input, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("received")
	if err != nil {
		t.Fatalf("parse received: %v", err)
	}
	if status != StatusReceived {
		t.Fatalf("expected RECEIVED, got %s", status)
	}

	if _, err := ParseStatus("SETTLED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestStatusLabels(t *testing.T) {
	cases := map[PaymentStatus]string{
		StatusPending:   "Pendente",
		StatusConfirmed: "Confirmado",
		StatusReceived:  "Recebido",
		StatusDeclined:  "Recusado",
		StatusFailed:    "Falhou",
		StatusRefunded:  "Reembolsado",
		StatusCanceled:  "Cancelado",
		StatusError:     "Erro",
	}
	for status, label := range cases {
		if got := status.Label(); got != label {
			t.Fatalf("label for %s: expected %q, got %q", status, label, got)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatal("PENDING must not be terminal")
	}
	if StatusConfirmed.Terminal() {
		t.Fatal("CONFIRMED must not be terminal")
	}
	for _, status := range []PaymentStatus{StatusReceived, StatusDeclined, StatusFailed, StatusRefunded, StatusCanceled, StatusError} {
		if !status.Terminal() {
			t.Fatalf("%s must be terminal", status)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		value    string
		expected string
	}{
		{"0", "R$ 0,00"},
		{"9.9", "R$ 9,90"},
		{"150", "R$ 150,00"},
		{"1234.56", "R$ 1.234,56"},
		{"1234567.89", "R$ 1.234.567,89"},
		{"-42.5", "-R$ 42,50"},
	}
	for _, tc := range cases {
		value, err := decimal.NewFromString(tc.value)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.value, err)
		}
		if got := FormatBRL(value); got != tc.expected {
			t.Fatalf("format %s: expected %q, got %q", tc.value, tc.expected, got)
		}
	}
}

func TestFormatDueDate(t *testing.T) {
	if got := FormatDueDate(nil); got != "" {
		t.Fatalf("expected empty string for nil date, got %q", got)
	}
	date := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)
	if got := FormatDueDate(&date); got != "07/03/2026" {
		t.Fatalf("expected 07/03/2026, got %q", got)
	}
}

func TestToResponseHidesMismatchedFields(t *testing.T) {
	url := "https://provider.example/boleto/1"
	code := "encoded-image"
	qrcode := "copy-paste-payload"

	boleto := &Payment{
		Method:     MethodBoleto,
		Status:     StatusPending,
		Value:      decimal.NewFromInt(100),
		InvoiceURL: &url,
		PixCode:    &code,
		PixQRCode:  &qrcode,
	}
	resp := ToResponse(boleto)
	if resp.InvoiceURL == nil || *resp.InvoiceURL != url {
		t.Fatal("boleto response must expose invoice_url")
	}
	if resp.PixCode != nil || resp.PixQRCode != nil {
		t.Fatal("boleto response must not expose pix fields")
	}

	pix := &Payment{
		Method:     MethodPix,
		Status:     StatusPending,
		Value:      decimal.NewFromInt(100),
		InvoiceURL: &url,
		PixCode:    &code,
		PixQRCode:  &qrcode,
	}
	resp = ToResponse(pix)
	if resp.InvoiceURL != nil {
		t.Fatal("pix response must not expose invoice_url")
	}
	if resp.PixCode == nil || resp.PixQRCode == nil {
		t.Fatal("pix response must expose pix fields")
	}

	if got := resp.ValueFormatted; got != "R$ 100,00" {
		t.Fatalf("expected formatted value, got %q", got)
	}
	if got := resp.StatusLabel; got != "Pendente" {
		t.Fatalf("expected Pendente, got %q", got)
	}
}
