package convert

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Result is one priced conversion. ChangePercent is nil when the 24h change
// could not be obtained.
type Result struct {
	Amount         float64   `json:"amount"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Rate           float64   `json:"rate"`
	ConvertedValue float64   `json:"converted_value"`
	ChangePercent  *float64  `json:"change_percent,omitempty"`
	RenderedAt     time.Time `json:"rendered_at"`
}

func (r Result) Token() RefreshToken {
	return RefreshToken{Amount: r.Amount, From: r.From, To: r.To}
}

// Format renders the chat message for a conversion in Telegram HTML.
// The output depends only on its arguments.
func Format(res Result, displayName string) string {
	from := html.EscapeString(res.From)
	to := html.EscapeString(res.To)

	var b strings.Builder
	b.WriteString("💱 <b>")
	b.WriteString(html.EscapeString(displayName))
	b.WriteString(" (" + from + ") ➔ " + to + "</b>\n")
	b.WriteString("<code>")
	b.WriteString(formatAmount(res.Amount) + " " + from + " = ")
	b.WriteString(FormatValue(res.ConvertedValue) + " " + to)
	b.WriteString("</code>\n")
	if res.ChangePercent != nil {
		b.WriteString("📈 24h Change: " + FormatChange(*res.ChangePercent) + "\n")
	}
	b.WriteString("🕒 Updated at " + res.RenderedAt.Format("15:04"))
	return b.String()
}

// FormatValue prints a converted value with exactly six decimals.
func FormatValue(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(6)
}

// FormatChange prints a percentage, signed with "+" when positive.
func FormatChange(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', -1, 64) + "%"
	if pct > 0 {
		return "+" + s
	}
	return s
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// PlainText returns the text a chat client displays for an HTML message.
func PlainText(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}
