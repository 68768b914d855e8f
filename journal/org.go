package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a trade as an Org-mode entry. Structured facts go
// in the PROPERTIES drawer so they stay searchable; the notes become the
// body.
func FormatTradeOrg(t Trade) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** %s %s (%s)\n", strings.ToUpper(string(t.Action)), t.Market, shortID(t.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", t.ID)
	fmt.Fprintf(&b, ":MARKET: %s\n", t.Market)
	fmt.Fprintf(&b, ":ACTION: %s\n", t.Action)
	fmt.Fprintf(&b, ":QUANTITY: %s\n", trimFloat(t.Quantity))
	fmt.Fprintf(&b, ":PRICE: %s\n", trimFloat(t.Price))
	fmt.Fprintf(&b, ":TRADE_DATE: %s\n", t.TradeDate.UTC().Format(time.RFC3339))
	if t.ReturnRate != nil {
		fmt.Fprintf(&b, ":RETURN_RATE: %.2f\n", *t.ReturnRate)
	}
	b.WriteString(":END:\n")
	if notes := strings.TrimSpace(t.Notes); notes != "" {
		b.WriteString("\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTradesOrg renders trades separated by blank lines.
func FormatTradesOrg(trades []Trade) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
