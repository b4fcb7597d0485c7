package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
	"github.com/shopspring/decimal"
)

const dueDateLayout = "2006-01-02"

type cardRequest struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CCV         string `json:"ccv"`
}

type createPaymentRequest struct {
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	CpfCnpj           string          `json:"cpf_cnpj"`
	Phone             string          `json:"phone"`
	Address           string          `json:"address"`
	AddressNumber     string          `json:"address_number"`
	AddressComplement string          `json:"address_complement"`
	Province          string          `json:"province"`
	PostalCode        string          `json:"postal_code"`
	PaymentMethod     string          `json:"payment_method"`
	Value             decimal.Decimal `json:"value"`
	DueDate           string          `json:"due_date"`
	Description       string          `json:"description"`
	Card              *cardRequest    `json:"card"`
}

// @Summary      Create Payment
// @Description  Create a payment charge for a customer
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body createPaymentRequest true "Create Payment Request"
// @Success      201  {object}  paymentdomain.Response
// @Router       /api/v1/payments [post]
func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	parsed, apiErr := req.validate()
	if apiErr != nil {
		AbortWithError(c, apiErr)
		return
	}

	resp, err := s.paymentSvc.ProcessPayment(c.Request.Context(), *parsed)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (r createPaymentRequest) validate() (*paymentdomain.CreatePaymentRequest, *apiError) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, newValidationError("name", "required", "name is required")
	}

	email := strings.TrimSpace(r.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, newValidationError("email", "invalid_email", "a valid email is required")
	}

	cpfCnpj := strings.TrimSpace(r.CpfCnpj)
	if n := len(cpfCnpj); n < 11 || n > 18 {
		return nil, newValidationError("cpf_cnpj", "invalid_cpf_cnpj", "cpf_cnpj must have between 11 and 18 characters")
	}

	method, err := paymentdomain.ParseMethod(r.PaymentMethod)
	if err != nil {
		return nil, newValidationError("payment_method", "invalid_payment_method", "payment_method must be BOLETO, CREDIT_CARD or PIX")
	}

	if r.Value.LessThan(decimal.NewFromFloat(0.01)) {
		return nil, newValidationError("value", "invalid_value", "value must be at least 0.01")
	}

	var dueDate *time.Time
	if raw := strings.TrimSpace(r.DueDate); raw != "" {
		parsed, err := time.Parse(dueDateLayout, raw)
		if err != nil {
			return nil, newValidationError("due_date", "invalid_due_date", "due_date must use the 2006-01-02 format")
		}
		dueDate = &parsed
	}

	if method == paymentdomain.MethodBoleto {
		if dueDate == nil {
			return nil, newValidationError("due_date", "required", "due_date is required for bank slip payments")
		}
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if dueDate.Before(today) {
			return nil, newValidationError("due_date", "past_due_date", "due_date must be today or later")
		}
	}

	req := &paymentdomain.CreatePaymentRequest{
		Name:              name,
		Email:             email,
		CpfCnpj:           cpfCnpj,
		Phone:             strings.TrimSpace(r.Phone),
		Address:           strings.TrimSpace(r.Address),
		AddressNumber:     strings.TrimSpace(r.AddressNumber),
		AddressComplement: strings.TrimSpace(r.AddressComplement),
		Province:          strings.TrimSpace(r.Province),
		PostalCode:        strings.TrimSpace(r.PostalCode),
		Method:            method,
		Value:             r.Value,
		DueDate:           dueDate,
		Description:       strings.TrimSpace(r.Description),
	}

	if method == paymentdomain.MethodCreditCard {
		card, apiErr := r.validateCard()
		if apiErr != nil {
			return nil, apiErr
		}
		req.Card = card
		req.Holder = &paymentdomain.CardHolderInfo{
			Name:              name,
			Email:             email,
			CpfCnpj:           cpfCnpj,
			PostalCode:        req.PostalCode,
			AddressNumber:     req.AddressNumber,
			AddressComplement: req.AddressComplement,
			Phone:             req.Phone,
		}
	}

	return req, nil
}

func (r createPaymentRequest) validateCard() (*paymentdomain.CardData, *apiError) {
	if r.Card == nil {
		return nil, newValidationError("card", "required", "card is required for credit card payments")
	}

	holder := strings.TrimSpace(r.Card.HolderName)
	if holder == "" {
		return nil, newValidationError("card.holder_name", "required", "card holder name is required")
	}

	number := strings.TrimSpace(r.Card.Number)
	if n := len(number); n < 13 || n > 16 || !allDigits(number) {
		return nil, newValidationError("card.number", "invalid_card_number", "card number must have between 13 and 16 digits")
	}

	month := strings.TrimSpace(r.Card.ExpiryMonth)
	if len(month) != 2 || !allDigits(month) {
		return nil, newValidationError("card.expiry_month", "invalid_expiry_month", "card expiry month must have 2 digits")
	}

	year := strings.TrimSpace(r.Card.ExpiryYear)
	if (len(year) != 2 && len(year) != 4) || !allDigits(year) {
		return nil, newValidationError("card.expiry_year", "invalid_expiry_year", "card expiry year must have 2 or 4 digits")
	}

	ccv := strings.TrimSpace(r.Card.CCV)
	if n := len(ccv); n < 3 || n > 4 || !allDigits(ccv) {
		return nil, newValidationError("card.ccv", "invalid_ccv", "card ccv must have 3 or 4 digits")
	}

	return &paymentdomain.CardData{
		HolderName:  holder,
		Number:      number,
		ExpiryMonth: month,
		ExpiryYear:  year,
		CCV:         ccv,
	}, nil
}

func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// @Summary      Get Payment
// @Description  Get payment by ID, refreshed against the provider
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  paymentdomain.Response
// @Router       /api/v1/payments/{id} [get]
func (s *Server) GetPayment(c *gin.Context) {
	resp, err := s.paymentSvc.GetPaymentDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Payment Status
// @Description  Get the current lifecycle status of a payment
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  map[string]string
// @Router       /api/v1/payments/{id}/status [get]
func (s *Server) GetPaymentStatus(c *gin.Context) {
	resp, err := s.paymentSvc.GetPaymentDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"status":           resp.Status,
		"status_formatted": resp.StatusLabel,
		"status_color":     resp.StatusColor,
	}})
}

// @Summary      Get Bank Slip
// @Description  Get the bank slip link for a BOLETO payment
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  map[string]string
// @Router       /api/v1/payments/{id}/bankslip [get]
func (s *Server) GetBankSlip(c *gin.Context) {
	url, err := s.paymentSvc.GetBankSlipURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"invoice_url": url}})
}

// @Summary      Get PIX QR Code
// @Description  Get the PIX QR code and copy-paste payload for a PIX payment
// @Tags         payments
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  paymentdomain.PixData
// @Router       /api/v1/payments/{id}/pix [get]
func (s *Server) GetPixQRCode(c *gin.Context) {
	pix, err := s.paymentSvc.GetPixData(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pix})
}
