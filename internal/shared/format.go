package shared

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders numbers for display in a fixed locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a Formatter for the BCP 47 tag, falling back to es-CO.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse("es-CO")
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Quantity prints a quantity without trailing zeros.
func (f *Formatter) Quantity(v float64) string {
	return strconv.FormatFloat(Num(v), 'f', -1, 64)
}

// Currency prints a money amount with two decimals and locale separators.
func (f *Formatter) Currency(v float64) string {
	if f == nil || f.printer == nil {
		return "$" + strconv.FormatFloat(RoundCents(v), 'f', 2, 64)
	}
	return f.printer.Sprintf("$%.2f", RoundCents(v))
}
