package alert

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplate = template.Must(template.New("alert.html").Funcs(template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return "none"
		}
		return t.UTC().Format(time.DateOnly)
	},
}).ParseFS(templateFS, "templates/alert.html"))

// Kind is which of the three alert emails is sent.
type Kind string

const (
	KindCombined Kind = "combined"
	KindLowStock Kind = "low_stock"
	KindExpiring Kind = "expiring"
)

func (k Kind) subject() string {
	switch k {
	case KindLowStock:
		return "Inventory Alert: Low Stock"
	case KindExpiring:
		return "Inventory Alert: Products Expiring Soon"
	}
	return "Inventory Alert: Low Stock and Expiring Products"
}

type emailData struct {
	Title      string
	CheckedAt  time.Time
	Threshold  int
	WindowDays int
	LowStock   []Item
	Expiring   []Item
}

func render(kind Kind, data emailData) (string, error) {
	data.Title = kind.subject()
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s alert: %w", kind, err)
	}
	return buf.String(), nil
}
