package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"megatex/internal"
	"megatex/internal/quote"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestQuoteLifecycle(t *testing.T) {
	db := openTestDB(t)

	q := internal.QuoteRow{ID: "q-1", Number: "202610151030", Client: internal.Client{Name: "Ana Ruiz", Email: "ana@example.com"}}
	if err := db.InsertQuote(q); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetQuote("q-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Client.Name != "Ana Ruiz" || got.Status != internal.QuoteDraft {
		t.Fatalf("got %+v", got)
	}

	if err := db.UpdateQuoteParties("q-1", internal.Client{Name: "Ana Ruiz", Phone: "300"}, internal.Seller{Name: "Luis"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateQuoteStatus("q-1", internal.QuoteSent); err != nil {
		t.Fatal(err)
	}
	byNumber, err := db.GetQuoteByNumber("202610151030")
	if err != nil {
		t.Fatal(err)
	}
	if byNumber == nil || byNumber.Seller.Name != "Luis" || byNumber.Client.Phone != "300" || byNumber.Status != internal.QuoteSent {
		t.Fatalf("by number %+v", byNumber)
	}

	if err := db.UpdateQuoteStatus("missing", internal.QuoteSent); err == nil {
		t.Fatal("expected not found error")
	}
	if missing, err := db.GetQuote("missing"); err != nil || missing != nil {
		t.Fatalf("missing quote: %+v %v", missing, err)
	}
	if _, err := db.MustQuote("missing"); err == nil {
		t.Fatal("expected MustQuote error")
	}

	list, err := db.ListQuotes(10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list=%v err=%v", list, err)
	}
}

func TestInsertQuoteRejectsDuplicateNumber(t *testing.T) {
	db := openTestDB(t)

	if err := db.InsertQuote(internal.QuoteRow{ID: "q-1", Number: "202610151030"}); err != nil {
		t.Fatal(err)
	}
	err := db.InsertQuote(internal.QuoteRow{ID: "q-2", Number: "202610151030"})
	if !errors.Is(err, ErrDuplicateQuoteNumber) {
		t.Fatalf("expected ErrDuplicateQuoteNumber, got %v", err)
	}
	if q, err := db.GetQuote("q-2"); err != nil || q != nil {
		t.Fatalf("duplicate was stored: %+v %v", q, err)
	}

	if err := db.InsertQuote(internal.QuoteRow{ID: "q-1", Number: "202610151031"}); err == nil || errors.Is(err, ErrDuplicateQuoteNumber) {
		t.Fatalf("duplicate id should fail with a different error, got %v", err)
	}
}

func TestAppendQuoteItemsKeepsOrder(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertQuote(internal.QuoteRow{ID: "q-1", Number: "1"}); err != nil {
		t.Fatal(err)
	}

	totals := []string{"40000", "125000.50", "7600"}
	for i, total := range totals {
		item := internal.QuoteItemRow{
			QuoteID:   "q-1",
			Design:    "Ondas",
			Width:     1.5,
			Height:    2.2,
			Quantity:  i + 1,
			Split:     i == 1,
			Selection: quote.Selection{Design: "Ondas", Width: 1.5, Quantity: i + 1},
			Result: quote.QuotationResult{
				Design: "Ondas",
				Lines:  []quote.PricedLine{{Label: "M.O. Ondas", UnitPrice: decimal.NewFromInt(5000), Source: quote.SourceLabor}},
				Total:  decimal.RequireFromString(total),
			},
		}
		stored, err := db.AppendQuoteItem(item)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Position != i+1 || stored.ID == 0 {
			t.Fatalf("stored=%+v", stored)
		}
	}

	items, err := db.ListQuoteItems("q-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("items=%d", len(items))
	}
	for i, item := range items {
		if item.Position != i+1 || !item.Result.Total.Equal(decimal.RequireFromString(totals[i])) {
			t.Fatalf("item %d=%+v", i, item)
		}
	}
	if !items[1].Split || items[0].Split {
		t.Fatal("split flag not persisted")
	}
	if !items[0].Result.Lines[0].UnitPrice.Equal(decimal.NewFromInt(5000)) || items[0].Result.Lines[0].Source != quote.SourceLabor {
		t.Fatalf("lines=%+v", items[0].Result.Lines)
	}

	if _, err := db.AppendQuoteItem(internal.QuoteItemRow{QuoteID: "nope", Design: "Ondas", Quantity: 1}); err == nil {
		t.Fatal("items of unknown quotes must be rejected")
	}
}

func TestDeliveriesAndMetadata(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertQuote(internal.QuoteRow{ID: "q-1", Number: "1"}); err != nil {
		t.Fatal(err)
	}

	row := internal.DeliveryRow{QuoteID: "q-1", Provider: "imap", MessageID: "<m1@megatex>", Recipient: "ana@example.com", Subject: "Cotizacion 1", Hash: "abc", Status: "drafted", RawRef: "/tmp/abc.eml"}
	first, err := db.UpsertDelivery(row)
	if err != nil {
		t.Fatal(err)
	}
	row.Status = "sent"
	second, err := db.UpsertDelivery(row)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID || second.Status != "sent" {
		t.Fatalf("upsert first=%+v second=%+v", first, second)
	}
	list, err := db.ListDeliveries("q-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("deliveries=%v err=%v", list, err)
	}

	if v, err := db.GetMetadata("last_reload"); err != nil || v != nil {
		t.Fatalf("unset metadata=%v err=%v", v, err)
	}
	if err := db.SetMetadata("last_reload", "a"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("last_reload", "b"); err != nil {
		t.Fatal(err)
	}
	if v, err := db.GetMetadata("last_reload"); err != nil || v == nil || *v != "b" {
		t.Fatalf("metadata=%v err=%v", v, err)
	}
}
