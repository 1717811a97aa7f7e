// Package format renders widget values for display.
package format

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
)

// Kind is a display format for a selected field.
type Kind string

const (
	Text       Kind = "text"
	Currency   Kind = "currency"
	Percentage Kind = "percentage"
	Number     Kind = "number"
)

// NotAvailable is shown for missing values.
const NotAvailable = "N/A"

// Kinds lists every supported format.
var Kinds = []Kind{Text, Currency, Percentage, Number}

var printer = message.NewPrinter(language.AmericanEnglish)

// ParseKind validates a format name. The empty string means Text.
func ParseKind(s string) (Kind, bool) {
	if s == "" {
		return Text, true
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Value formats v according to kind. It never fails: values that cannot be
// read as a number are shown in their plain string form.
//
// Percentage values are used as-is; 5 renders as "5.00%", not 0.05.
func Value(v any, kind Kind) string {
	if v == nil {
		return NotAvailable
	}
	switch kind {
	case Currency, Percentage, Number:
	default:
		return jsondoc.String(v)
	}

	d, ok := toDecimal(v)
	if !ok {
		return jsondoc.String(v)
	}

	switch kind {
	case Currency:
		r := d.Round(2)
		s := "$" + grouped(r.Abs(), 2)
		if r.IsNegative() {
			return "-" + s
		}
		return s
	case Percentage:
		return d.StringFixed(2) + "%"
	default:
		return grouped(d.Round(2), 0)
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	f, ok := jsondoc.ToNumber(v)
	if !ok {
		return decimal.Decimal{}, false
	}
	var text string
	switch n := v.(type) {
	case json.Number:
		text = n.String()
	case string:
		text = strings.TrimSpace(n)
	}
	if text != "" {
		if d, err := decimal.NewFromString(text); err == nil {
			return d, true
		}
	}
	return decimal.NewFromFloat(f), true
}

func grouped(d decimal.Decimal, minFraction int) string {
	return printer.Sprint(number.Decimal(d.InexactFloat64(),
		number.MinFractionDigits(minFraction),
		number.MaxFractionDigits(2),
	))
}
