package settlement

import (
	"time"

	"github.com/flexprice/invoicer/internal/domain/oracle"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// Receipt describes a completed settlement. It is returned to the payer and
// published as the invoice.settled event; it is not stored.
type Receipt struct {
	ID            string                 `json:"id"`
	Reference     string                 `json:"reference"`
	InvoiceID     uint64                 `json:"invoice_id"`
	Method        types.SettlementMethod `json:"method"`
	Asset         types.Asset            `json:"asset"`
	InvoiceAmount decimal.Decimal        `json:"invoice_amount"`
	ChargedAmount decimal.Decimal        `json:"charged_amount"`
	Payer         string                 `json:"payer"`
	Payee         string                 `json:"payee"`
	Rate          *oracle.Rate           `json:"rate,omitempty"`
	SettledAt     time.Time              `json:"settled_at"`
}

// Quote is the volatile amount a payer would be charged for an invoice right now
type Quote struct {
	InvoiceID     uint64          `json:"invoice_id"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	Asset         types.Asset     `json:"asset"`
	Amount        decimal.Decimal `json:"amount"`
	Rate          *oracle.Rate    `json:"rate"`
	QuotedAt      time.Time       `json:"quoted_at"`
}
