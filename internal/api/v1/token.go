package v1

import (
	"net/http"

	"github.com/flexprice/invoicer/internal/api/dto"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	service service.TokenService
	log     *logger.Logger
}

func NewTokenHandler(service service.TokenService, log *logger.Logger) *TokenHandler {
	return &TokenHandler{service: service, log: log}
}

// @Summary List supported assets
// @Tags Tokens
// @Produce json
// @Success 200 {object} dto.ListAssetsResponse
// @Router /tokens [get]
func (h *TokenHandler) ListAssets(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewListAssetsResponse(h.service.Assets()))
}

// @Summary Mint tokens
// @Description Credits an account. Only the owner may mint.
// @Tags Tokens
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param symbol path string true "Asset symbol"
// @Param request body dto.MintRequest true "Mint request"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /tokens/{symbol}/mint [post]
func (h *TokenHandler) Mint(c *gin.Context) {
	var req dto.MintRequest
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

	balance, err := h.service.Mint(c.Request.Context(), c.Param("symbol"), req.To, req.Amount)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBalanceResponse(balance))
}

// @Summary Approve a spender
// @Description Sets how much the spender may pull from the caller's balance
// @Tags Tokens
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param symbol path string true "Asset symbol"
// @Param request body dto.ApproveRequest true "Approve request"
// @Success 200 {object} dto.AllowanceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /tokens/{symbol}/approve [post]
func (h *TokenHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
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

	allowance, err := h.service.Approve(c.Request.Context(), c.Param("symbol"), req.Spender, req.Amount)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAllowanceResponse(allowance))
}

// @Summary Get a balance
// @Tags Tokens
// @Produce json
// @Param symbol path string true "Asset symbol"
// @Param account path string true "Account"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /tokens/{symbol}/balances/{account} [get]
func (h *TokenHandler) GetBalance(c *gin.Context) {
	balance, err := h.service.BalanceOf(c.Request.Context(), c.Param("symbol"), c.Param("account"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBalanceResponse(balance))
}

// @Summary Get an allowance
// @Tags Tokens
// @Produce json
// @Param symbol path string true "Asset symbol"
// @Param holder path string true "Holder"
// @Param spender path string true "Spender"
// @Success 200 {object} dto.AllowanceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /tokens/{symbol}/allowances/{holder}/{spender} [get]
func (h *TokenHandler) GetAllowance(c *gin.Context) {
	allowance, err := h.service.Allowance(c.Request.Context(), c.Param("symbol"), c.Param("holder"), c.Param("spender"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAllowanceResponse(allowance))
}
