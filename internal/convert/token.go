package convert

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	refreshPrefix = "refresh"
	tokenSep      = ":"
)

// RefreshToken carries the parameters of a conversion inside the refresh
// button. It is immutable across refreshes.
type RefreshToken struct {
	Amount float64
	From   string
	To     string
}

func TokenFor(r Request) RefreshToken {
	return RefreshToken{Amount: r.Amount, From: r.From, To: r.To}
}

// Encode renders "refresh:<amount>:<FROM>:<TO>". The amount uses the
// shortest representation that parses back to the same float64.
func (t RefreshToken) Encode() string {
	return strings.Join([]string{refreshPrefix, formatAmount(t.Amount), t.From, t.To}, tokenSep)
}

func (t RefreshToken) Request() Request {
	return Request{Amount: t.Amount, From: t.From, To: t.To}
}

// IsRefreshToken reports whether callback data looks like a refresh token.
func IsRefreshToken(data string) bool {
	return strings.HasPrefix(data, refreshPrefix+tokenSep)
}

// ParseRefreshToken is the inverse of Encode.
func ParseRefreshToken(data string) (RefreshToken, error) {
	parts := strings.Split(data, tokenSep)
	if len(parts) != 4 || parts[0] != refreshPrefix {
		return RefreshToken{}, fmt.Errorf("%w: malformed refresh token %q", ErrInvalidInput, data)
	}
	amount, err := ParseAmount(parts[1])
	if err != nil {
		return RefreshToken{}, fmt.Errorf("refresh token %q: %w", data, err)
	}
	t := RefreshToken{Amount: amount, From: parts[2], To: parts[3]}
	if err := t.Request().Validate(); err != nil {
		return RefreshToken{}, fmt.Errorf("refresh token %q: %w", data, err)
	}
	return t, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
