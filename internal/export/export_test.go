package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"megatex/internal"
	"megatex/internal/quote"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleDocument() internal.QuoteDocument {
	result := quote.QuotationResult{
		Design:         "Ondas",
		EffectiveWidth: dec("2"),
		Multiplier:     dec("2"),
		Quantity:       1,
		Lines: []quote.PricedLine{
			{Label: "TELA: LINK - BLANCO", Material: "TELA 1", Unit: quote.UnitLength, QuantityPerUnit: dec("2"), QuantityTotal: dec("2"), UnitPrice: dec("26000"), LineTotal: dec("52000"), Source: quote.SourceFabric},
			{Label: "OJALES", Material: "OJALES", Unit: quote.UnitCount, QuantityPerUnit: dec("0"), QuantityTotal: dec("0"), UnitPrice: dec("0"), LineTotal: dec("0"), Source: quote.SourceUnpriced},
			{Label: "M.O. Ondas", Material: "M.O. Ondas", Unit: quote.UnitLength, QuantityPerUnit: dec("2"), QuantityTotal: dec("2"), UnitPrice: dec("5000"), LineTotal: dec("10000"), Source: quote.SourceLabor},
		},
		Total:    dec("62000"),
		Warnings: []quote.Warning{{Material: "OJALES", Message: "not in catalog; priced at 0"}},
	}
	return internal.QuoteDocument{
		Quote: internal.QuoteRow{
			ID:     "q-1",
			Number: "202610150941",
			Client: internal.Client{Name: "=Ana <b>Ruiz</b>", Email: "ana@example.com", Phone: "3001234567"},
			Seller: internal.Seller{Name: "Luis", Phone: "310"},
		},
		Items: []internal.QuoteItemRow{{
			ID: 1, QuoteID: "q-1", Position: 1, Design: "Ondas", Category: "Clasica",
			Width: 1, Height: 2.4, Quantity: 1, FabricLabel: "TELA: LINK - BLANCO", Result: result,
		}},
		Summary: internal.QuoteSummary{
			QuoteID: "q-1", Number: "202610150941", Items: 1,
			SubtotalBeforeTax: dec("50220"), TaxAmount: dec("11780"), Total: dec("62000"),
		},
		TaxRate:     dec("0.19"),
		MoneyPlaces: 2,
		CompanyName: "Megatex",
		CompanyMail: "ventas@megatex.example",
		IssuedAt:    "2026-10-15",
	}
}

func TestQuoteXLSX(t *testing.T) {
	content, err := QuoteXLSX(sampleDocument())
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cases := []struct {
		sheet, cell, want string
	}{
		{summarySheet, "A1", "Megatex"},
		{summarySheet, "B2", "202610150941"},
		{summarySheet, "B4", "'=Ana <b>Ruiz</b>"},
		{summarySheet, "B10", "Ondas"},
		{summarySheet, "I10", "62000"},
		{summarySheet, "H12", "Subtotal"},
		{summarySheet, "H13", "IVA (19%)"},
		{summarySheet, "I14", "62000"},
		{detailSheet, "C2", "TELA: LINK - BLANCO"},
		{detailSheet, "I4", "labor"},
		{detailSheet, "C5", "AVISO: OJALES: not in catalog; priced at 0"},
	}
	for _, tc := range cases {
		t.Run(tc.sheet+"!"+tc.cell, func(t *testing.T) {
			got, err := f.GetCellValue(tc.sheet, tc.cell)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestQuotePDF(t *testing.T) {
	content, err := QuotePDF(sampleDocument())
	if err != nil {
		t.Fatal(err)
	}
	if len(content) < 5 || string(content[:5]) != "%PDF-" {
		t.Fatal("output is not a PDF")
	}
	pages, err := PDFPageCount(content)
	if err != nil {
		t.Fatal(err)
	}
	if pages < 1 {
		t.Fatalf("pages=%d", pages)
	}
}

func TestQuoteHTML(t *testing.T) {
	html, err := QuoteHTML(sampleDocument())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<b>Ruiz</b>") {
		t.Fatal("client name must be escaped")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Find("#items tr.item td.total").Text(); got != "$62,000.00" {
		t.Fatalf("item total=%q", got)
	}
	if got := doc.Find("#totals td.tax").Text(); got != "$11,780.00" {
		t.Fatalf("tax=%q", got)
	}

	text := QuoteText(sampleDocument())
	for _, want := range []string{"202610150941", "IVA (19%): $11,780.00", "Total: $62,000.00", "Atendido por Luis - 310."} {
		if !strings.Contains(text, want) {
			t.Fatalf("text body missing %q:\n%s", want, text)
		}
	}
}

func TestBuildQuoteEmail(t *testing.T) {
	doc := sampleDocument()
	date := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	mail, err := BuildQuoteEmail(doc, Sender{Name: "Megatex Cotizaciones", Address: "ventas@megatex.example"}, "", "", date)
	if err != nil {
		t.Fatal(err)
	}
	if mail.To != "ana@example.com" || mail.QuoteID != "q-1" || !strings.HasSuffix(mail.MessageID, "@megatex.example>") {
		t.Fatalf("mail=%+v", mail)
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(mail.Raw))
	if err != nil {
		t.Fatal(err)
	}
	if len(env.Attachments) != 2 {
		t.Fatalf("attachments=%d", len(env.Attachments))
	}
	if !strings.Contains(env.Text, "Total: $62,000.00") {
		t.Fatalf("text=%q", env.Text)
	}

	rep, err := InspectMessage(mail.Raw)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Number != "202610150941" || rep.Total != "$62,000.00" || rep.Items != 1 || rep.PDFPages < 1 {
		t.Fatalf("report=%+v", rep)
	}
	if rep.MessageID != mail.MessageID {
		t.Fatalf("message id %q != %q", rep.MessageID, mail.MessageID)
	}
	want := []string{"cotizacion-202610150941.pdf", "cotizacion-202610150941.xlsx"}
	if strings.Join(rep.Attachments, ",") != strings.Join(want, ",") {
		t.Fatalf("attachments=%v", rep.Attachments)
	}
}

func TestBuildQuoteEmailNeedsRecipient(t *testing.T) {
	doc := sampleDocument()
	doc.Quote.Client.Email = ""
	if _, err := BuildQuoteEmail(doc, Sender{Address: "ventas@megatex.example"}, "", "", time.Now()); err == nil {
		t.Fatal("expected missing recipient error")
	}
	if _, err := BuildQuoteEmail(sampleDocument(), Sender{}, "", "", time.Now()); err == nil {
		t.Fatal("expected missing sender error")
	}
}
