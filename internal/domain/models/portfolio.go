package models

// DefaultAccount is the account every portfolio file starts with and the one
// legacy flat files migrate into.
const DefaultAccount = "기본 계좌"

// Position is one holding inside an account.
type Position struct {
	Qty      float64 `json:"qty"`
	AvgPrice float64 `json:"avg_price"`
	AddedAt  string  `json:"added_at"`
}

// Account groups positions under a user-chosen name.
type Account struct {
	Positions map[string]Position `json:"positions"`
}

// Portfolio is the on-disk portfolio document. Accounts always has at least
// the default account after a load.
type Portfolio struct {
	UpdatedAt string             `json:"updated_at"`
	Accounts  map[string]Account `json:"accounts"`
}

// NewPortfolio returns an empty document with the default account.
func NewPortfolio() Portfolio {
	return Portfolio{
		Accounts: map[string]Account{
			DefaultAccount: {Positions: map[string]Position{}},
		},
	}
}

// Holding is one (ticker, invested amount) pair used for portfolio
// statistics and income simulation inputs.
type Holding struct {
	Ticker string  `json:"ticker"`
	Amount float64 `json:"amount"`
}
