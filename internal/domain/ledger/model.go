package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the amount of an asset an account holds, in base units
type Balance struct {
	Asset     string          `db:"asset" json:"asset"`
	Account   string          `db:"account" json:"account"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Allowance is the amount a spender may pull from a holder's balance
type Allowance struct {
	Asset     string          `db:"asset" json:"asset"`
	Holder    string          `db:"holder" json:"holder"`
	Spender   string          `db:"spender" json:"spender"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
