package convert

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"crypto-convert-bot/internal/symbols"
)

// maxCallbackData is Telegram's limit for inline button payloads.
const maxCallbackData = 64

var (
	// ErrInvalidInput marks malformed command arguments. No upstream call is
	// made for a request that fails with it.
	ErrInvalidInput = errors.New("invalid input")
	ErrUsage        = fmt.Errorf("%w: expected <amount> <from> <to>", ErrInvalidInput)
	ErrAmount       = fmt.Errorf("%w: amount must be a number greater than 0", ErrInvalidInput)
)

// Request is one conversion of Amount units of From into To.
type Request struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
}

// ParseArgs builds a Request from the arguments of "/conv <amount> <from> <to>".
func ParseArgs(args []string) (Request, error) {
	if len(args) != 3 {
		return Request{}, ErrUsage
	}
	amount, err := ParseAmount(args[0])
	if err != nil {
		return Request{}, err
	}
	req := Request{
		Amount: amount,
		From:   symbols.Normalize(args[1]),
		To:     symbols.Normalize(args[2]),
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// ParseAmount accepts a finite, strictly positive decimal number.
func ParseAmount(raw string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, ErrAmount
	}
	return amount, nil
}

// Validate checks the request invariants, including that its refresh token
// fits into a callback payload and round-trips.
func (r Request) Validate() error {
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount <= 0 {
		return ErrAmount
	}
	for _, code := range []string{r.From, r.To} {
		if code == "" {
			return fmt.Errorf("%w: currency code is empty", ErrInvalidInput)
		}
		if strings.Contains(code, tokenSep) || strings.ContainsAny(code, " \t\n") {
			return fmt.Errorf("%w: currency code %q contains reserved characters", ErrInvalidInput, code)
		}
	}
	if len(TokenFor(r).Encode()) > maxCallbackData {
		return fmt.Errorf("%w: request too long", ErrInvalidInput)
	}
	return nil
}
