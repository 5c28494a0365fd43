package v1

import (
	"net/http"

	"github.com/flexprice/invoicer/internal/api/dto"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service service.SettlementService
	log     *logger.Logger
}

func NewPaymentHandler(service service.SettlementService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

// @Summary Pay an invoice in the stable asset
// @Description Pulls the invoice amount from the caller to the owner and clears the invoice
// @Tags Payments
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Param Idempotency-Key header string false "Replay key"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/pay [post]
func (h *PaymentHandler) PayDirect(c *gin.Context) {
	id, err := dto.ParseInvoiceID(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	receipt, err := h.service.PayDirect(c.Request.Context(), id)
	if err != nil {
		h.log.Debugw("direct payment failed", "invoice_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewReceiptResponse(receipt))
}

// @Summary Pay an invoice in the volatile asset
// @Description Converts the invoice amount at the current oracle rate, rounding down, and pulls it from the caller
// @Tags Payments
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Invoice ID"
// @Param Idempotency-Key header string false "Replay key"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 402 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /invoices/{id}/pay/converted [post]
func (h *PaymentHandler) PayViaConvertedAsset(c *gin.Context) {
	id, err := dto.ParseInvoiceID(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	receipt, err := h.service.PayViaConvertedAsset(c.Request.Context(), id)
	if err != nil {
		h.log.Debugw("converted payment failed", "invoice_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewReceiptResponse(receipt))
}
