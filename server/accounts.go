package server

import (
	"strconv"
	"strings"
)

const (
	satsPerBTC  = 100000000
	centsPerUSD = 100
)

// Account is one of the signed-in user's accounts as listed by the backend.
// Balances are in base units: cents for USD, satoshis for BTC.
type Account struct {
	ID       int64  `json:"account_id"`
	Name     string `json:"account_name"`
	Currency string `json:"currency"`
	Balance  *int64 `json:"balance,omitempty"`
}

func (a Account) DisplayBalance() string {
	if a.Balance == nil {
		return ""
	}
	return formatAmount(*a.Balance, a.Currency)
}

// formatAmount renders base units with the currency code, e.g. "12.50 USD".
func formatAmount(baseUnits int64, currency string) string {
	var value string
	switch currency {
	case "USD":
		value = strconv.FormatFloat(float64(baseUnits)/centsPerUSD, 'f', 2, 64)
	case "BTC":
		value = strconv.FormatFloat(float64(baseUnits)/satsPerBTC, 'f', 8, 64)
		value = strings.TrimRight(strings.TrimRight(value, "0"), ".")
		if value == "" {
			value = "0"
		}
	default:
		value = strconv.FormatInt(baseUnits, 10)
	}
	return value + " " + currency
}
