package web

import (
	"embed"
	"html/template"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/analytica/storefront/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the storefront pages. Each file is registered under its
// base name; header and footer are shared partials.
func Templates() (*template.Template, error) {
	return template.New("storefront").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
}

// Funcs are the helpers available to every page
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money":   Money,
		"label":   errors.FieldLabel,
		"seconds": Seconds,
	}
}

// Money formats an amount with two decimals followed by its currency
func Money(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + currency
}

// Seconds rounds d up to whole seconds for a meta refresh
func Seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
