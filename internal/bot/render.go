package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"

	"crypto-convert-bot/internal/convert"
	"crypto-convert-bot/internal/market"
)

const (
	DataDelete   = "delete"
	DataShowHelp = "show_help"

	DefaultBugReportURL = "https://t.me/xiaogarpu"
)

const (
	TextUsage           = "Invalid format. Example:\n/conv 1000 usd btc"
	TextAmount          = "Amount must be a number and greater than 0."
	TextPairUnavailable = "❌ Pair not found or failed to fetch price."
	TextUpToDate        = "✅ Prices are up-to-date"
	TextRefreshed       = "🔄 Price refreshed"
	TextRefreshFailed   = "❌ Failed price refresh."
	TextSomethingWrong  = "❌ Sorry, something went wrong."
	TextGlobalFailed    = "❌ Failed to fetch Global Market Info."
)

var snapshotFailures = map[market.Kind]string{
	market.KindTop:      "❌ Failed to fetch Top 10 Coins.",
	market.KindGainers:  "❌ Failed to fetch Top Gainers.",
	market.KindLosers:   "❌ Failed to fetch Top Losers.",
	market.KindTrending: "❌ Failed to fetch Trending Coins.",
}

var snapshotTitles = map[market.Kind]string{
	market.KindTop:      "🏆 <b>Top 10 Coins by Market Cap</b>",
	market.KindGainers:  "📈 <b>Top Gainers 24h</b>",
	market.KindLosers:   "📉 <b>Top Losers 24h</b>",
	market.KindTrending: "🔥 <b>Trending Coins</b>",
}

func SnapshotFailureText(kind market.Kind) string {
	if text, ok := snapshotFailures[kind]; ok {
		return text
	}
	return TextSomethingWrong
}

// RenderSnapshot formats a ranked list as an HTML chat message.
func RenderSnapshot(kind market.Kind, entries []market.Entry) string {
	var b strings.Builder
	b.WriteString(snapshotTitles[kind])
	b.WriteString("\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%d. <b>%s</b> (%s)", e.Rank, html.EscapeString(e.Name), html.EscapeString(e.Symbol))
		switch kind {
		case market.KindTop:
			b.WriteString(" - " + formatPrice(e.Value))
		case market.KindGainers, market.KindLosers:
			b.WriteString(" " + formatPercent(e.Value))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderGlobal formats the global market overview.
func RenderGlobal(g market.GlobalStats) string {
	capT := decimal.NewFromFloat(g.TotalMarketCapUSD).Div(decimal.NewFromInt(1_000_000_000_000)).StringFixed(2)
	volB := decimal.NewFromFloat(g.TotalVolumeUSD).Div(decimal.NewFromInt(1_000_000_000)).StringFixed(2)
	dom := decimal.NewFromFloat(g.BTCDominance).StringFixed(2)

	return "🌐 <b>Global Market Overview</b>\n\n" +
		"<b>Total Market Cap:</b> $" + capT + " Trillion\n" +
		"<b>24h Volume:</b> $" + volB + " Billion\n" +
		"<b>BTC Dominance:</b> " + dom + "%"
}

func WelcomeText(fullName string) string {
	return "🚀 <b>Welcome to Crypto Convert Bot <b>" + html.EscapeString(fullName) + "</b>!</b>\n\nPlease select an option below."
}

const helpText = "📚 <b>Available Commands:</b>\n\n" +
	"💱 <b>/conv amount from_currency to_currency</b>\n" +
	"➔ Example: /conv 1000 usd btc\n\n" +
	"🏆 <b>/top10</b>\n" +
	"➔ Top 10 coins by market cap\n\n" +
	"📈 <b>/gainers</b>\n" +
	"➔ Top 10 coins by 24h gain\n\n" +
	"📉 <b>/losers</b>\n" +
	"➔ Top 10 coins by 24h loss\n\n" +
	"🌐 <b>/global</b>\n" +
	"➔ Global crypto market stats\n\n" +
	"🔥 <b>/trending</b>\n" +
	"➔ Currently trending coins\n\n" +
	"🔄 Refresh button ➔ Update the latest price\n" +
	"❌ Delete button ➔ Remove the message"

// HelpText is the command reference, with an optional footer line.
func HelpText(footer string) string {
	if footer == "" {
		return helpText
	}
	return helpText + "\n\n" + html.EscapeString(footer)
}

func conversionKeyboard(tok convert.RefreshToken) Keyboard {
	return Keyboard{{
		{Text: "🔄 Refresh", Data: tok.Encode()},
		{Text: "❌ Delete", Data: DataDelete},
	}}
}

func welcomeKeyboard(bugURL string) Keyboard {
	return Keyboard{
		{{Text: "📚 Help", Data: DataShowHelp}},
		{{Text: "🐞 Report Bug", URL: bugURL}},
	}
}

func helpKeyboard(bugURL string) Keyboard {
	return Keyboard{{{Text: "⚠️ Report Bug", URL: bugURL}}}
}

// formatPrice prints sub-dollar prices with six decimals, others with two.
func formatPrice(v *float64) string {
	if v == nil {
		return "n/a"
	}
	precision := 2
	if *v < 1 {
		precision = 6
	}
	ac := accounting.Accounting{Symbol: "$", Precision: precision, Thousand: ",", Decimal: "."}
	return ac.FormatMoneyFloat64(*v)
}

// formatPercent renders a 24h change with two decimals. A missing value
// renders as zero.
func formatPercent(v *float64) string {
	var pct float64
	if v != nil {
		pct = *v
	}
	s := decimal.NewFromFloat(pct).StringFixed(2) + "%"
	if pct > 0 {
		return "+" + s
	}
	return s
}
