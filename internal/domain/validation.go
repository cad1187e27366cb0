package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCardName   = fmt.Errorf("%w: invalid card name", ErrValidation)
	ErrInvalidCurrency   = fmt.Errorf("%w: invalid currency code", ErrValidation)
	ErrAmountTooLarge    = fmt.Errorf("%w: amount exceeds maximum allowed", ErrValidation)
	ErrInvalidTitle      = fmt.Errorf("%w: invalid transaction title", ErrValidation)
	ErrInvalidCardNumber = fmt.Errorf("%w: invalid card number", ErrValidation)
	ErrInvalidExpiry     = fmt.Errorf("%w: expiry date must be MM/YY", ErrValidation)
	ErrInvalidIDFormat   = fmt.Errorf("%w: invalid ID format", ErrValidation)
)

// Validation constants
const (
	MaxCardNameLength = 255
	MaxTitleLength    = 255
	MaxAmount         = "1000000000000" // 1 trillion
	MaxAmountScale    = 4
	DefaultCurrency   = "USD"
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
	"ARS": true, "CLP": true, "COP": true, "PEN": true,
	"UYU": true,
}

var (
	expiryRegex     = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cardNumberRegex = regexp.MustCompile(`^[0-9]{12,19}$`)
)

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = NormalizeCurrency(currency)

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a signed transaction amount. The sign carries
// debit/credit, so only zero, oversized and over-precise values are rejected.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}

	maxAmount := decimal.RequireFromString(MaxAmount)
	if amount.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum magnitude is %s", ErrAmountTooLarge, MaxAmount)
	}

	if amount.Exponent() < -MaxAmountScale && !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MaxAmountScale)
	}

	return nil
}

// ValidateCardName validates card name
func ValidateCardName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidCardName)
	}

	if utf8.RuneCountInString(name) > MaxCardNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidCardName, MaxCardNameLength)
	}

	return nil
}

// ValidateTitle validates a transaction title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)

	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidTitle)
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTitle, MaxTitleLength)
	}

	return nil
}

// ValidateCardNumber accepts an empty number or 12-19 digits, spaces allowed.
func ValidateCardNumber(number string) error {
	number = strings.ReplaceAll(strings.TrimSpace(number), " ", "")
	if number == "" {
		return nil
	}

	if !cardNumberRegex.MatchString(number) {
		return ErrInvalidCardNumber
	}

	return nil
}

// ValidateExpiryDate accepts an empty value or MM/YY.
func ValidateExpiryDate(expiry string) error {
	expiry = strings.TrimSpace(expiry)
	if expiry == "" {
		return nil
	}

	if !expiryRegex.MatchString(expiry) {
		return ErrInvalidExpiry
	}

	return nil
}

// ParseID parses a positive integer identifier from a path or query value.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIDFormat, raw)
	}
	return id, nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
