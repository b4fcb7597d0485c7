package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/brpag/gateway/internal/payment/domain"
)

const webhookTokenHeader = "asaas-access-token"

type webhookPaymentPayload struct {
	ID     *string `json:"id"`
	Status *string `json:"status"`
}

type webhookRequest struct {
	Event   *string                `json:"event"`
	Payment *webhookPaymentPayload `json:"payment"`
}

// @Summary      Payment Webhook
// @Description  Apply a provider status callback to the local payment record
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request body webhookRequest true "Provider Callback"
// @Success      200  {object}  paymentdomain.Response
// @Router       /payments/webhook [post]
func (s *Server) PaymentWebhook(c *gin.Context) {
	if token := s.cfg.Asaas.WebhookToken; token != "" {
		header := strings.TrimSpace(c.GetHeader(webhookTokenHeader))
		if subtle.ConstantTimeCompare([]byte(header), []byte(token)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
	}

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}
	if req.Event == nil || req.Payment == nil || req.Payment.ID == nil || req.Payment.Status == nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	payload := paymentdomain.WebhookPayload{
		Event:      strings.TrimSpace(*req.Event),
		ExternalID: strings.TrimSpace(*req.Payment.ID),
		Status:     strings.TrimSpace(*req.Payment.Status),
	}

	resp, err := s.paymentSvc.HandleWebhook(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
