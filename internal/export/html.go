package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"megatex/internal"
	"megatex/internal/util"
)

var quoteBody = template.Must(template.New("quote").Parse(`<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>Cotización {{.Number}}</title></head>
<body style="font-family: Arial, sans-serif; color: #212529;">
<h2 id="company" style="color: #0050B4;">{{.Company}}</h2>
<p>Hola {{if .Client}}{{.Client}}{{else}}cliente{{end}},</p>
<p>Adjuntamos la cotización <strong id="number">{{.Number}}</strong> del {{.Date}}.</p>
<table id="items" cellpadding="6" style="border-collapse: collapse;">
<thead>
<tr style="background: #0050B4; color: #FFFFFF;"><th>#</th><th>Diseño</th><th>Medidas (m)</th><th>Cant.</th><th>Tela</th><th>Total</th></tr>
</thead>
<tbody>
{{range .Items}}<tr class="item"><td>{{.Position}}</td><td>{{.Design}}</td><td>{{.Size}}</td><td>{{.Quantity}}</td><td>{{.Fabric}}</td><td class="total" style="text-align: right;">{{.Total}}</td></tr>
{{end}}</tbody>
</table>
<table id="totals" cellpadding="4" style="margin-top: 12px;">
<tr><td>Subtotal</td><td class="subtotal" style="text-align: right;">{{.Subtotal}}</td></tr>
<tr><td>{{.TaxLabel}}</td><td class="tax" style="text-align: right;">{{.Tax}}</td></tr>
<tr><td><strong>Total</strong></td><td class="grand" style="text-align: right;"><strong>{{.Total}}</strong></td></tr>
</table>
{{if .Seller}}<p>Atendido por {{.Seller}}.</p>{{end}}
<p style="color: #646464; font-size: 12px;">Precios con IVA incluido.</p>
</body>
</html>
`))

type bodyItem struct {
	Position int
	Design   string
	Size     string
	Quantity int
	Fabric   string
	Total    string
}

type bodyData struct {
	Company  string
	Client   string
	Seller   string
	Number   string
	Date     string
	Items    []bodyItem
	Subtotal string
	TaxLabel string
	Tax      string
	Total    string
}

func newBodyData(doc internal.QuoteDocument) bodyData {
	data := bodyData{
		Company:  doc.CompanyName,
		Client:   doc.Quote.Client.Name,
		Seller:   joinNonEmpty(" - ", doc.Quote.Seller.Name, doc.Quote.Seller.Phone),
		Number:   doc.Quote.Number,
		Date:     doc.IssuedAt,
		Subtotal: util.FormatMoney(doc.Summary.SubtotalBeforeTax, doc.MoneyPlaces),
		TaxLabel: fmt.Sprintf("IVA (%s%%)", doc.TaxRate.Shift(2).String()),
		Tax:      util.FormatMoney(doc.Summary.TaxAmount, doc.MoneyPlaces),
		Total:    util.FormatMoney(doc.Summary.Total, doc.MoneyPlaces),
	}
	for _, item := range doc.Items {
		data.Items = append(data.Items, bodyItem{
			Position: item.Position,
			Design:   item.Design,
			Size:     fmt.Sprintf("%.2f x %.2f", item.Width, item.Height),
			Quantity: item.Quantity,
			Fabric:   item.FabricLabel,
			Total:    util.FormatMoney(item.Result.Total, doc.MoneyPlaces),
		})
	}
	return data
}

// QuoteHTML renders the email body for a quotation.
func QuoteHTML(doc internal.QuoteDocument) (string, error) {
	var buf bytes.Buffer
	if err := quoteBody.Execute(&buf, newBodyData(doc)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// QuoteText is the plain-text alternative of QuoteHTML.
func QuoteText(doc internal.QuoteDocument) string {
	data := newBodyData(doc)
	var b strings.Builder
	greeting := data.Client
	if greeting == "" {
		greeting = "cliente"
	}
	fmt.Fprintf(&b, "Hola %s,\n\n", greeting)
	fmt.Fprintf(&b, "Adjuntamos la cotización %s del %s.\n\n", data.Number, data.Date)
	for _, item := range data.Items {
		fmt.Fprintf(&b, "%d. %s %s x%d %s: %s\n", item.Position, item.Design, item.Size, item.Quantity, item.Fabric, item.Total)
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n%s: %s\nTotal: %s\n", data.Subtotal, data.TaxLabel, data.Tax, data.Total)
	if data.Seller != "" {
		fmt.Fprintf(&b, "\nAtendido por %s.\n", data.Seller)
	}
	fmt.Fprintf(&b, "\n%s\n", data.Company)
	return b.String()
}
