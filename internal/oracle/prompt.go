package oracle

import (
	"fmt"
	"strconv"
	"strings"

	"agent-market/internal/model"
)

// Asset is the name the prompts use for the traded stock.
const Asset = "Banana"

// SystemPrompt sets the trader's persona.
func SystemPrompt(d model.Disposition) string {
	return fmt.Sprintf("You are a stock trader who is trading %s stock. Your personality type is %s.", strings.ToLower(Asset), d)
}

// UserPrompt describes the market and the trader's position and lists the options.
func UserPrompt(s Situation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The %s pricing in the past has been: %s\n", Asset, formatPrices(s.PastPrices()))
	fmt.Fprintf(&b, "The current price of %s stock is $%s\n", Asset, formatPrice(s.CurrentPrice))
	b.WriteString("You have the following options:\n")
	for _, a := range model.Actions() {
		if a == model.ActionHold {
			fmt.Fprintf(&b, "%d) %s.\n", a.Option(), a.Label())
			continue
		}
		fmt.Fprintf(&b, "%d) %s %s stock.\n", a.Option(), a.Label(), Asset)
	}
	b.WriteString("\nMake your decision. Be mindful of your personality and the current pricing. ")
	b.WriteString("Start your response with the number of the option chosen. ")
	fmt.Fprintf(&b, "You currently hold %d %s stocks and you have $%s.\n", s.Assets, strings.ToLower(Asset), s.Cash.StringFixed(2))
	b.WriteString("Response no.: ")
	return b.String()
}

func formatPrices(prices []float64) string {
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = formatPrice(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
