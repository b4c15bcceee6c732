package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/Simplici0/quote-estimator/internal/catalog"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCurrency renders a whole-unit amount with US digit grouping, for
// example "$1,234". Unknown currency codes fall back to USD.
func FormatCurrency(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}

	p := message.NewPrinter(language.AmericanEnglish)
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := p.Sprintf("%d", n)

	sym := p.Sprint(currency.Symbol(unit))
	if sym == unit.String() {
		return sign + sym + " " + digits
	}
	return sign + sym + digits
}

// FormatRange renders "$1,000 – $2,000", or a single amount when both bounds match.
func FormatRange(r catalog.Range, code string) string {
	if r.Min == r.Max {
		return FormatCurrency(r.Max, code)
	}
	return FormatCurrency(r.Min, code) + " – " + FormatCurrency(r.Max, code)
}

// Text renders the quote as plain text, one service per block.
func (q Quote) Text() string {
	var b strings.Builder

	for _, s := range q.Services {
		name := s.ServiceName
		if name == "" {
			name = s.ServiceID
		}
		suffix := ""
		if s.IsMonthly {
			suffix = " /mo"
		}
		fmt.Fprintf(&b, "%s: %s%s\n", name, FormatRange(s.SubtotalRange, q.Currency), suffix)
		fmt.Fprintf(&b, "  Base: %s\n", FormatRange(s.BaseRange, q.Currency))
		for _, l := range s.Breakdown {
			if l.Included {
				fmt.Fprintf(&b, "  %s: Included\n", l.Name)
				continue
			}
			fmt.Fprintf(&b, "  %s: +%s\n", l.Name, FormatRange(l.Range, q.Currency))
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", FormatRange(q.SubtotalRange, q.Currency))
	if q.MonthlyAdder > 0 {
		fmt.Fprintf(&b, "Monthly management: +%s\n", FormatCurrency(q.MonthlyAdder, q.Currency))
	}
	for _, bundle := range q.AppliedBundles {
		fmt.Fprintf(&b, "%s: -%s\n", bundle.Name, FormatCurrency(bundle.Savings, q.Currency))
	}
	if q.MultiServiceDiscount > 0 {
		fmt.Fprintf(&b, "Multi-service discount: -%s\n", FormatCurrency(q.MultiServiceDiscount, q.Currency))
	}
	fmt.Fprintf(&b, "Total: %s\n", FormatRange(q.FinalRange, q.Currency))
	fmt.Fprintf(&b, "Typical agency price: %s\n", FormatRange(q.AnchorRange, q.Currency))
	if q.HasMonthly {
		b.WriteString("Includes monthly billing.\n")
	}

	return b.String()
}
