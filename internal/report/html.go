package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"shrot-bot/internal/pricing"
)

//go:embed templates/report.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/report.html"))

type htmlRow struct {
	Index       int
	Name        string
	Product     string
	Tons        string
	TonsValue   string
	Amount      string
	AmountValue string
}

type htmlPage struct {
	Period      string
	Rows        []htmlRow
	TotalAmount string
	TotalTons   string
}

// HTML renders the standalone report page with client side sorting and search.
func (r Report) HTML() ([]byte, error) {
	page := htmlPage{
		Period:      r.Period.Label(),
		TotalAmount: pricing.FormatMoney(r.TotalAmount),
		TotalTons:   pricing.FormatTons(r.TotalTons),
		Rows:        make([]htmlRow, 0, len(r.Entries)),
	}
	for i, e := range r.Entries {
		page.Rows = append(page.Rows, htmlRow{
			Index:       i + 1,
			Name:        e.Name,
			Product:     e.Product,
			Tons:        pricing.FormatTons(e.Tons),
			TonsValue:   strconv.FormatFloat(e.Tons, 'f', -1, 64),
			Amount:      pricing.FormatMoney(e.Amount),
			AmountValue: strconv.FormatFloat(e.Amount, 'f', -1, 64),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("failed to render report page: %w", err)
	}
	return buf.Bytes(), nil
}
