package display

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var gbPrinter = message.NewPrinter(language.BritishEnglish)

// FormatPence renders a pence amount as a locale-formatted pounds string,
// e.g. 123456 -> "£1,234.56".
func FormatPence(pence int64) string {
	pounds := decimal.NewFromInt(pence).Div(decimal.NewFromInt(100))
	f, _ := pounds.Float64()
	return gbPrinter.Sprintf("%v", currency.GBP.Amount(f))
}

// FormatOptionalPence renders a nil amount as an empty string, never zero.
func FormatOptionalPence(pence *int64) string {
	if pence == nil {
		return ""
	}
	return FormatPence(*pence)
}
