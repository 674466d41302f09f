// Package currency supplies conversion rates into the base currency. Rates
// are polled and cached, never streamed; stored rate_at_operation values on
// existing records are never touched by a lookup.
package currency

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the currency all stored amount_kzt values are denominated in.
const BaseCurrency = "KZT"

// Provider resolves the current conversion rate of a currency code into the
// base currency.
type Provider interface {
	Rate(code string) (decimal.Decimal, error)
}

// Service converts amounts into the base currency using a fixed rate map.
type Service struct {
	rates map[string]decimal.Decimal
	base  string
}

// DefaultRates are the built-in fallback rates used when no feed and no cache
// is available.
func DefaultRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(500),
		"EUR": decimal.NewFromInt(590),
		"RUB": decimal.NewFromFloat(6.5),
	}
}

// NewService creates a Service over the given rate map. A nil map selects the
// built-in defaults.
func NewService(rates map[string]decimal.Decimal) *Service {
	if rates == nil {
		rates = DefaultRates()
	}
	return &Service{rates: rates, base: BaseCurrency}
}

// Base returns the base currency code.
func (s *Service) Base() string { return s.base }

// Rate returns the conversion rate of code into the base currency. The base
// currency itself always converts at 1.
func (s *Service) Rate(code string) (decimal.Decimal, error) {
	if code == s.base {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := s.rates[code]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unsupported currency: %s", code)
	}
	return rate, nil
}

// Convert returns amount expressed in the base currency.
func (s *Service) Convert(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	rate, err := s.Rate(code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate), nil
}

// Codes returns the known currency codes in stable order.
func (s *Service) Codes() []string {
	codes := make([]string, 0, len(s.rates))
	for code := range s.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
