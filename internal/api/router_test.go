package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexprice/invoicer/internal/api"
	"github.com/flexprice/invoicer/internal/api/dto"
	v1 "github.com/flexprice/invoicer/internal/api/v1"
	"github.com/flexprice/invoicer/internal/auth"
	"github.com/flexprice/invoicer/internal/cache"
	"github.com/flexprice/invoicer/internal/config"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/idempotency"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/repository"
	"github.com/flexprice/invoicer/internal/sentry"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/flexprice/invoicer/internal/testutil"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	ownerKey = "owner-api-key"
	payerKey = "payer-api-key"
	payer    = "alice"
)

type RouterSuite struct {
	suite.Suite
	cfg       *config.Configuration
	router    *gin.Engine
	feed      *testutil.FixedPriceFeed
	publisher *testutil.InMemoryEventPublisher
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *RouterSuite) SetupTest() {
	cfg := config.GetDefaultConfig()
	cfg.Auth.Secret = "router-test-secret"
	cfg.Auth.APIKeys = map[string]string{
		auth.HashAPIKey(ownerKey): cfg.Settlement.Owner,
		auth.HashAPIKey(payerKey): payer,
	}
	s.cfg = cfg

	log := logger.NewNopLogger()
	sentryService := sentry.NewSentryService(cfg, log)
	storage := repository.NewMemoryStorage(log)
	s.feed = testutil.NewFixedPriceFeed(decimal.NewFromInt(400).Shift(8), 8)
	s.publisher = testutil.NewInMemoryEventPublisher()

	params := service.NewServiceParams(log, cfg, storage, s.feed, s.publisher, sentryService)
	invoices := service.NewInvoiceService(params)
	settlement := service.NewSettlementService(params)
	tokens := service.NewTokenService(params)

	handlers := api.Handlers{
		Health:  v1.NewHealthHandler(storage, log),
		Invoice: v1.NewInvoiceHandler(invoices, settlement, log),
		Payment: v1.NewPaymentHandler(settlement, log),
		Token:   v1.NewTokenHandler(tokens, log),
	}

	store := idempotency.NewStore(cache.NewInMemoryCache(cfg), time.Hour)
	s.router = api.NewRouter(handlers, cfg, log, auth.NewProvider(cfg), store, sentryService)
}

func (s *RouterSuite) do(method, path, apiKey string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(types.HeaderAPIKey, apiKey)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *RouterSuite) errorCode(w *httptest.ResponseRecorder) string {
	var resp ierr.ErrorResponse
	s.decode(w, &resp)
	s.False(resp.Success)
	s.NotEmpty(resp.Error.Display)
	return resp.Error.Code
}

func (s *RouterSuite) createInvoice(id uint64, amount string) {
	w := s.do(http.MethodPost, "/v1/invoices", ownerKey, map[string]any{"id": id, "amount": amount})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

// fund mints amount to the payer and approves the settlement spender for it
func (s *RouterSuite) fund(symbol, amount string) {
	w := s.do(http.MethodPost, "/v1/tokens/"+symbol+"/mint", ownerKey, map[string]any{"to": payer, "amount": amount})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/tokens/"+symbol+"/approve", payerKey, map[string]any{"spender": s.cfg.Settlement.Spender, "amount": amount})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *RouterSuite) balance(symbol, account string) string {
	w := s.do(http.MethodGet, "/v1/tokens/"+symbol+"/balances/"+account, "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.BalanceResponse
	s.decode(w, &resp)
	return resp.Amount.String()
}

func (s *RouterSuite) getInvoice(id string) dto.InvoiceResponse {
	w := s.do(http.MethodGet, "/v1/invoices/"+id, "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.InvoiceResponse
	s.decode(w, &resp)
	return resp
}

func (s *RouterSuite) TestHealthAndMetrics() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "invoicer_http_requests_total")
}

func (s *RouterSuite) TestRequestIDIsEchoed() {
	w := s.do(http.MethodGet, "/v1/invoices/1", "", nil, types.HeaderRequestID, "req-123")
	s.Equal("req-123", w.Header().Get(types.HeaderRequestID))

	w = s.do(http.MethodGet, "/v1/invoices/1", "", nil)
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestUnknownInvoiceReadsAsZero() {
	resp := s.getInvoice("42")
	s.Equal(uint64(42), resp.ID)
	s.True(resp.Amount.IsZero())
	s.False(resp.Exists)

	w := s.do(http.MethodGet, "/v1/invoices/42/exists", "", nil)
	s.Equal(http.StatusOK, w.Code)
	var exists dto.ExistsResponse
	s.decode(w, &exists)
	s.False(exists.Exists)
}

func (s *RouterSuite) TestInvalidInvoiceID() {
	w := s.do(http.MethodGet, "/v1/invoices/not-a-number", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(ierr.ErrCodeValidation, s.errorCode(w))

	w = s.do(http.MethodGet, "/v1/invoices/-1/exists", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestCreateRequiresAuthentication() {
	w := s.do(http.MethodPost, "/v1/invoices", "", map[string]any{"id": 1, "amount": "1000"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/v1/invoices", "wrong-key", map[string]any{"id": 1, "amount": "1000"})
	s.Equal(http.StatusUnauthorized, w.Code)

	s.False(s.getInvoice("1").Exists)
}

func (s *RouterSuite) TestCreateByNonOwnerIsForbidden() {
	w := s.do(http.MethodPost, "/v1/invoices", payerKey, map[string]any{"id": 1, "amount": "1000"})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(ierr.ErrCodePermissionDenied, s.errorCode(w))

	s.False(s.getInvoice("1").Exists)
	s.Empty(s.publisher.Events(types.EventInvoiceCreated))
}

func (s *RouterSuite) TestCreateValidatesAmount() {
	for _, body := range []map[string]any{
		{"id": 1, "amount": "0"},
		{"id": 1, "amount": "-5"},
		{"id": 1, "amount": "1.5"},
		{"id": 1},
	} {
		w := s.do(http.MethodPost, "/v1/invoices", ownerKey, body)
		s.Equal(http.StatusBadRequest, w.Code, body)
	}

	w := s.do(http.MethodPost, "/v1/invoices", ownerKey, "not an object")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestCreateAndGet() {
	s.createInvoice(7, "1000000000")

	resp := s.getInvoice("7")
	s.True(resp.Exists)
	s.Equal("1000000000", resp.Amount.String())

	// amounts beyond int64 survive the round trip
	s.createInvoice(8, "123456789012345678901234567890")
	s.Equal("123456789012345678901234567890", s.getInvoice("8").Amount.String())

	// overwrite
	s.createInvoice(7, "5")
	s.Equal("5", s.getInvoice("7").Amount.String())
}

func (s *RouterSuite) TestBearerTokenAuthentication() {
	token, err := auth.NewProvider(s.cfg).GenerateToken(s.cfg.Settlement.Owner, time.Hour)
	s.Require().NoError(err)

	w := s.do(http.MethodPost, "/v1/invoices", "", map[string]any{"id": 3, "amount": "10"},
		types.HeaderAuthorization, "Bearer "+token)
	s.Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/invoices", "", map[string]any{"id": 3, "amount": "10"},
		types.HeaderAuthorization, "Token "+token)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestPayDirect() {
	s.createInvoice(1, "1000000000")
	s.fund("USDC", "1500000000")

	w := s.do(http.MethodPost, "/v1/invoices/1/pay", payerKey, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var receipt dto.ReceiptResponse
	s.decode(w, &receipt)
	s.Equal(uint64(1), receipt.InvoiceID)
	s.Equal(types.SettlementMethodDirect, receipt.Method)
	s.Equal("USDC", receipt.Asset)
	s.Equal("1000000000", receipt.ChargedAmount.String())
	s.Equal(payer, receipt.Payer)
	s.Equal(s.cfg.Settlement.Owner, receipt.Payee)
	s.Nil(receipt.Rate)

	s.Equal("500000000", s.balance("USDC", payer))
	s.Equal("1000000000", s.balance("USDC", s.cfg.Settlement.Owner))
	s.False(s.getInvoice("1").Exists)

	// second attempt finds nothing to pay
	w = s.do(http.MethodPost, "/v1/invoices/1/pay", payerKey, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(ierr.ErrCodeNotFound, s.errorCode(w))
	s.Equal("500000000", s.balance("USDC", payer))
}

func (s *RouterSuite) TestPayRequiresAuthentication() {
	s.createInvoice(1, "1000")
	w := s.do(http.MethodPost, "/v1/invoices/1/pay", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.True(s.getInvoice("1").Exists)
}

func (s *RouterSuite) TestPayWithoutFundsIsPaymentRequired() {
	s.createInvoice(1, "1000000000")

	w := s.do(http.MethodPost, "/v1/invoices/1/pay", payerKey, nil)
	s.Equal(http.StatusPaymentRequired, w.Code)
	s.Equal(ierr.ErrCodeTransferFailed, s.errorCode(w))

	s.True(s.getInvoice("1").Exists)
}

func (s *RouterSuite) TestConvertedPayWithoutFundsIsPaymentRequired() {
	s.createInvoice(2, "1000000000")
	// 1 WETH does not cover the 2.5 WETH the invoice converts to
	s.fund("WETH", "1000000000000000000")

	w := s.do(http.MethodPost, "/v1/invoices/2/pay/converted", payerKey, nil)
	s.Equal(http.StatusPaymentRequired, w.Code)
	s.Equal(ierr.ErrCodeTransferFailed, s.errorCode(w))

	s.True(s.getInvoice("2").Exists)
	s.Equal("1000000000000000000", s.balance("WETH", payer))
	s.Equal("0", s.balance("WETH", s.cfg.Settlement.Owner))
}

func (s *RouterSuite) TestPayUnknownInvoice() {
	w := s.do(http.MethodPost, "/v1/invoices/99/pay", payerKey, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/v1/invoices/99/pay/converted", payerKey, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestPayViaConvertedAsset() {
	s.createInvoice(2, "1000000000")
	s.fund("WETH", "10000000000000000000")

	w := s.do(http.MethodGet, "/v1/invoices/2/quote", "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var quote dto.QuoteResponse
	s.decode(w, &quote)
	s.Equal("2500000000000000000", quote.Amount.String())
	s.Equal("WETH", quote.Asset)

	w = s.do(http.MethodPost, "/v1/invoices/2/pay/converted", payerKey, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var receipt dto.ReceiptResponse
	s.decode(w, &receipt)
	s.Equal(types.SettlementMethodConverted, receipt.Method)
	s.Equal("2500000000000000000", receipt.ChargedAmount.String())
	s.Equal("1000000000", receipt.InvoiceAmount.String())
	s.Require().NotNil(receipt.Rate)
	s.Equal("40000000000", receipt.Rate.Value.String())

	s.Equal("7500000000000000000", s.balance("WETH", payer))
	s.Equal("2500000000000000000", s.balance("WETH", s.cfg.Settlement.Owner))
	s.False(s.getInvoice("2").Exists)
}

func (s *RouterSuite) TestOracleFailureIsServiceUnavailable() {
	s.createInvoice(2, "1000000000")
	s.fund("WETH", "10000000000000000000")
	s.feed.Fail(ierr.NewError("feed down").Mark(ierr.ErrOracleUnavailable))

	w := s.do(http.MethodPost, "/v1/invoices/2/pay/converted", payerKey, nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal(ierr.ErrCodeOracleUnavailable, s.errorCode(w))

	w = s.do(http.MethodGet, "/v1/invoices/2/quote", "", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)

	s.True(s.getInvoice("2").Exists)
	s.Equal("10000000000000000000", s.balance("WETH", payer))
}

func (s *RouterSuite) TestIdempotentPaymentReplaysReceipt() {
	s.createInvoice(1, "1000000000")
	s.fund("USDC", "1000000000")

	first := s.do(http.MethodPost, "/v1/invoices/1/pay", payerKey, nil, types.HeaderIdempotencyKey, "pay-1")
	s.Require().Equal(http.StatusOK, first.Code, first.Body.String())
	s.Empty(first.Header().Get(types.HeaderIdempotentReplay))

	second := s.do(http.MethodPost, "/v1/invoices/1/pay", payerKey, nil, types.HeaderIdempotencyKey, "pay-1")
	s.Require().Equal(http.StatusOK, second.Code, second.Body.String())
	s.Equal("true", second.Header().Get(types.HeaderIdempotentReplay))
	s.JSONEq(first.Body.String(), second.Body.String())

	// a new key is a new attempt
	third := s.do(http.MethodPost, "/v1/invoices/1/pay", payerKey, nil, types.HeaderIdempotencyKey, "pay-2")
	s.Equal(http.StatusNotFound, third.Code)

	s.Len(s.publisher.Events(types.EventInvoiceSettled), 1)
}

func (s *RouterSuite) TestFailedPaymentIsNotReplayed() {
	s.createInvoice(1, "1000000000")

	w := s.do(http.MethodPost, "/v1/invoices/1/pay", payerKey, nil, types.HeaderIdempotencyKey, "retry-me")
	s.Equal(http.StatusPaymentRequired, w.Code)

	s.fund("USDC", "1000000000")
	w = s.do(http.MethodPost, "/v1/invoices/1/pay", payerKey, nil, types.HeaderIdempotencyKey, "retry-me")
	s.Equal(http.StatusOK, w.Code, w.Body.String())
	s.Empty(w.Header().Get(types.HeaderIdempotentReplay))
}

func (s *RouterSuite) TestTokens() {
	w := s.do(http.MethodGet, "/v1/tokens", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var assets dto.ListAssetsResponse
	s.decode(w, &assets)
	s.Len(assets.Items, 2)

	// only the owner mints
	w = s.do(http.MethodPost, "/v1/tokens/USDC/mint", payerKey, map[string]any{"to": payer, "amount": "1"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/v1/tokens/DOGE/mint", ownerKey, map[string]any{"to": payer, "amount": "1"})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/v1/tokens/DOGE/balances/"+payer, "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	s.fund("usdc", "250")
	s.Equal("250", s.balance("USDC", payer))

	w = s.do(http.MethodGet, "/v1/tokens/USDC/allowances/"+payer+"/"+s.cfg.Settlement.Spender, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var allowance dto.AllowanceResponse
	s.decode(w, &allowance)
	s.Equal("250", allowance.Amount.String())

	// zero revokes
	w = s.do(http.MethodPost, "/v1/tokens/USDC/approve", payerKey, map[string]any{"spender": s.cfg.Settlement.Spender, "amount": "0"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &allowance)
	s.True(allowance.Amount.IsZero())

	w = s.do(http.MethodPost, "/v1/tokens/USDC/approve", payerKey, map[string]any{"amount": "5"})
	s.Equal(http.StatusBadRequest, w.Code)
}
