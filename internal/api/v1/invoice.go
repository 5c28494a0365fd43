package v1

import (
	"net/http"

	"github.com/flexprice/invoicer/internal/api/dto"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService    service.InvoiceService
	settlementService service.SettlementService
	logger            *logger.Logger
}

func NewInvoiceHandler(
	invoiceService service.InvoiceService,
	settlementService service.SettlementService,
	logger *logger.Logger,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:    invoiceService,
		settlementService: settlementService,
		logger:            logger,
	}
}

// @Summary Create an invoice
// @Description Register an amount owed to the owner. Only the owner may call this; an existing ID is overwritten.
// @Tags Invoices
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param invoice body dto.CreateInvoiceRequest true "Invoice"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), req.ID, req.Amount)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewInvoiceResponse(inv))
}

// @Summary Get an invoice
// @Description Unknown and paid invoices read as amount 0
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := dto.ParseInvoiceID(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	c.JSON(http.StatusOK, &dto.InvoiceResponse{
		ID:     id,
		Amount: h.invoiceService.Get(ctx, id),
		Exists: h.invoiceService.Exists(ctx, id),
	})
}

// @Summary Check an invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.ExistsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /invoices/{id}/exists [get]
func (h *InvoiceHandler) InvoiceExists(c *gin.Context) {
	id, err := dto.ParseInvoiceID(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.ExistsResponse{
		ID:     id,
		Exists: h.invoiceService.Exists(c.Request.Context(), id),
	})
}

// @Summary Quote a converted payment
// @Description Amount of the volatile asset a converted payment would charge at the current rate
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /invoices/{id}/quote [get]
func (h *InvoiceHandler) QuoteInvoice(c *gin.Context) {
	id, err := dto.ParseInvoiceID(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	quote, err := h.settlementService.Quote(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}
