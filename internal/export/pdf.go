package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"megatex/internal"
	"megatex/internal/quote"
	"megatex/internal/util"
)

var (
	gray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	darkBlue = &props.Color{Red: 0, Green: 80, Blue: 180}
	white    = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// QuotePDF renders the customer-facing quotation.
func QuotePDF(doc internal.QuoteDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, doc)
	addParties(m, doc)
	addItemsHeader(m)
	for _, item := range doc.Items {
		addItem(m, item, doc.MoneyPlaces)
	}
	addTotals(m, doc)
	addFooter(m, doc)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate quote PDF: %w", err)
	}
	return out.GetBytes(), nil
}

func addHeader(m core.Maroto, doc internal.QuoteDocument) {
	m.AddRows(
		row.New(10).Add(
			col.New(6).Add(
				text.New(doc.CompanyName, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Left, Color: darkBlue}),
			),
			col.New(6).Add(
				text.New("COTIZACIÓN", props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right}),
			),
		),
		row.New(8).Add(
			col.New(6).Add(
				text.New(doc.CompanyMail, props.Text{Size: 8, Align: align.Left, Color: gray}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("No. %s | Fecha: %s", doc.Quote.Number, doc.IssuedAt), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
			),
		),
	)
	m.AddRows(row.New(3))
}

func addParties(m core.Maroto, doc internal.QuoteDocument) {
	label := props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Left, Color: gray}
	value := props.Text{Size: 8, Align: align.Left}

	c, s := doc.Quote.Client, doc.Quote.Seller
	pairs := [][4]string{
		{"CLIENTE", c.Name, "CÉDULA/NIT", c.IDNumber},
		{"TELÉFONO", c.Phone, "CORREO", c.Email},
		{"DIRECCIÓN", c.Address, "VENDEDOR", joinNonEmpty(" - ", s.Name, s.Phone)},
	}
	for _, p := range pairs {
		m.AddRows(row.New(6).Add(
			col.New(2).Add(text.New(p[0], label)),
			col.New(4).Add(text.New(p[1], value)),
			col.New(2).Add(text.New(p[2], label)),
			col.New(4).Add(text.New(p[3], value)),
		))
	}
	m.AddRows(row.New(4))
}

func addItemsHeader(m core.Maroto) {
	headerText := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: white}
	headerLeft := headerText
	headerLeft.Align = align.Left
	cell := props.Cell{BackgroundColor: darkBlue}

	m.AddRows(row.New(8).Add(
		col.New(1).Add(text.New("#", headerText)).WithStyle(&cell),
		col.New(3).Add(text.New("Diseño", headerLeft)).WithStyle(&cell),
		col.New(2).Add(text.New("Medidas (m)", headerText)).WithStyle(&cell),
		col.New(1).Add(text.New("Cant.", headerText)).WithStyle(&cell),
		col.New(3).Add(text.New("Tela", headerLeft)).WithStyle(&cell),
		col.New(2).Add(text.New("Total", headerText)).WithStyle(&cell),
	))
}

// addItem writes the curtain row followed by its material breakdown on a
// shaded background.
func addItem(m core.Maroto, item internal.QuoteItemRow, places int32) {
	base := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center}
	left := base
	left.Align = align.Left
	right := base
	right.Align = align.Right

	design := item.Design
	if item.Category != "" {
		design += " (" + item.Category + ")"
	}
	size := fmt.Sprintf("%.2f x %.2f", item.Width, item.Height)
	if item.Split {
		size += " partida"
	}
	m.AddRows(row.New(7).Add(
		col.New(1).Add(text.New(fmt.Sprint(item.Position), base)),
		col.New(3).Add(text.New(design, left)),
		col.New(2).Add(text.New(size, base)),
		col.New(1).Add(text.New(fmt.Sprint(item.Quantity), base)),
		col.New(3).Add(text.New(item.FabricLabel, left)),
		col.New(2).Add(text.New(util.FormatMoney(item.Result.Total, places), right)),
	))

	shade := &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	small := props.Text{Size: 7, Align: align.Left}
	smallRight := small
	smallRight.Align = align.Right
	for _, line := range item.Result.Lines {
		m.AddRows(row.New(5).Add(
			col.New(1).WithStyle(shade),
			col.New(5).Add(text.New(line.Label, small)).WithStyle(shade),
			col.New(2).Add(text.New(quantityText(line), smallRight)).WithStyle(shade),
			col.New(2).Add(text.New(util.FormatMoney(line.UnitPrice, places), smallRight)).WithStyle(shade),
			col.New(2).Add(text.New(util.FormatMoney(line.LineTotal, places), smallRight)).WithStyle(shade),
		))
	}
}

func addTotals(m core.Maroto, doc internal.QuoteDocument) {
	m.AddRows(row.New(6))

	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	value := props.Text{Size: 9, Align: align.Right}
	rows := [][2]string{
		{"Subtotal", util.FormatMoney(doc.Summary.SubtotalBeforeTax, doc.MoneyPlaces)},
		{fmt.Sprintf("IVA (%s%%)", doc.TaxRate.Shift(2).String()), util.FormatMoney(doc.Summary.TaxAmount, doc.MoneyPlaces)},
	}
	for _, r := range rows {
		m.AddRows(row.New(6).Add(
			col.New(8),
			col.New(2).Add(text.New(r[0], label)),
			col.New(2).Add(text.New(r[1], value)),
		))
	}
	total := props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Color: white}
	cell := &props.Cell{BackgroundColor: darkBlue}
	m.AddRows(row.New(8).Add(
		col.New(8),
		col.New(2).Add(text.New("TOTAL", total)).WithStyle(cell),
		col.New(2).Add(text.New(util.FormatMoney(doc.Summary.Total, doc.MoneyPlaces), total)).WithStyle(cell),
	))
}

func addFooter(m core.Maroto, doc internal.QuoteDocument) {
	m.AddRows(row.New(10))
	note := props.Text{Size: 7, Align: align.Left, Color: gray}
	m.AddRows(
		row.New(5).Add(col.New(12).Add(text.New("Precios con IVA incluido.", note))),
		row.New(5).Add(col.New(12).Add(text.New(fmt.Sprintf("Cotización generada por %s el %s.", doc.CompanyName, doc.IssuedAt), note))),
	)
}

// quantityText prints the total quantity with its unit, counts without
// decimals.
func quantityText(line quote.PricedLine) string {
	return util.FormatQuantity(line.QuantityTotal, line.Unit == quote.UnitCount) + " " + string(line.Unit)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
