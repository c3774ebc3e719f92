package quotebook

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"megatex/internal"
	"megatex/internal/quote"
	"megatex/internal/refdata"
	"megatex/internal/storage"
)

// NumberLayout formats quote numbers as YYYYMMDDHHMM.
const NumberLayout = "200601021504"

const maxNumberSuffix = 1000

var ErrNoReferenceData = errors.New("no reference data loaded")

// Snapshots yields the reference data generation to quote against.
// *refdata.Holder implements it.
type Snapshots interface {
	Current() *refdata.Snapshot
}

type Options struct {
	Settings     quote.Settings
	CompanyName  string
	CompanyEmail string
}

type Service struct {
	db    *storage.DB
	snaps Snapshots
	opts  Options
	now   func() time.Time
}

func NewService(db *storage.DB, snaps Snapshots, opts Options) *Service {
	return &Service{db: db, snaps: snaps, opts: opts, now: time.Now}
}

func (s *Service) Settings() quote.Settings { return s.opts.Settings }

// Create opens an empty quotation. Numbers are minute stamps; a second
// quote in the same minute gets a "-2" style suffix. The store enforces
// unique numbers, so a concurrent writer that takes the number first
// pushes this one to the next suffix.
func (s *Service) Create(client internal.Client, seller internal.Seller) (internal.QuoteRow, error) {
	base := s.now().Format(NumberLayout)
	q := internal.QuoteRow{
		ID:     uuid.NewString(),
		Number: base,
		Client: trimClient(client),
		Seller: internal.Seller{Name: strings.TrimSpace(seller.Name), Phone: strings.TrimSpace(seller.Phone)},
		Status: internal.QuoteDraft,
	}
	for n := 2; ; n++ {
		err := s.db.InsertQuote(q)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrDuplicateQuoteNumber) {
			return internal.QuoteRow{}, err
		}
		if n > maxNumberSuffix {
			return internal.QuoteRow{}, fmt.Errorf("no free quote number for %s: %w", base, err)
		}
		q.Number = fmt.Sprintf("%s-%d", base, n)
	}
	stored, err := s.db.MustQuote(q.ID)
	if err != nil {
		return internal.QuoteRow{}, err
	}
	log.Printf("quote created id=%s number=%s client=%q", stored.ID, stored.Number, stored.Client.Name)
	return stored, nil
}

// Find resolves a quote by id or by number.
func (s *Service) Find(ref string) (internal.QuoteRow, error) {
	ref = strings.TrimSpace(ref)
	q, err := s.db.GetQuote(ref)
	if err != nil {
		return internal.QuoteRow{}, err
	}
	if q == nil {
		if q, err = s.db.GetQuoteByNumber(ref); err != nil {
			return internal.QuoteRow{}, err
		}
	}
	if q == nil {
		return internal.QuoteRow{}, fmt.Errorf("quote not found: %s", ref)
	}
	return *q, nil
}

func (s *Service) UpdateParties(quoteID string, client internal.Client, seller internal.Seller) error {
	return s.db.UpdateQuoteParties(quoteID, trimClient(client), seller)
}

func (s *Service) List(limit int) ([]internal.QuoteRow, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.db.ListQuotes(limit)
}

// Compute prices a selection against the current snapshot without
// recording it.
func (s *Service) Compute(sel quote.Selection) (quote.QuotationResult, error) {
	if s.snaps == nil {
		return quote.QuotationResult{}, ErrNoReferenceData
	}
	snap := s.snaps.Current()
	if snap == nil || snap.Data == nil {
		return quote.QuotationResult{}, ErrNoReferenceData
	}
	return quote.Compute(snap.Data, sel, s.opts.Settings)
}

// AddItem computes the selection and appends it to the quotation. A
// failed computation leaves the quotation untouched.
func (s *Service) AddItem(quoteID string, sel quote.Selection) (internal.QuoteItemRow, error) {
	if _, err := s.db.MustQuote(quoteID); err != nil {
		return internal.QuoteItemRow{}, err
	}

	res, err := s.Compute(sel)
	if err != nil {
		return internal.QuoteItemRow{}, err
	}
	for _, w := range res.Warnings {
		log.Printf("quote=%s design=%s warning: %s", quoteID, res.Design, w)
	}

	item := internal.QuoteItemRow{
		QuoteID:     quoteID,
		Design:      res.Design,
		Category:    strings.TrimSpace(sel.Category),
		Width:       sel.Width,
		Height:      sel.Height,
		Quantity:    res.Quantity,
		FabricLabel: fabricLabel(res),
		Split:       sel.Split,
		Selection:   sel,
		Result:      res,
	}
	return s.db.AppendQuoteItem(item)
}

func (s *Service) Items(quoteID string) ([]internal.QuoteItemRow, error) {
	return s.db.ListQuoteItems(quoteID)
}

// Summary totals the quotation. Item totals are tax-inclusive, so the
// tax is backed out of the grand total.
func (s *Service) Summary(quoteID string) (internal.QuoteSummary, error) {
	q, err := s.db.MustQuote(quoteID)
	if err != nil {
		return internal.QuoteSummary{}, err
	}
	items, err := s.db.ListQuoteItems(quoteID)
	if err != nil {
		return internal.QuoteSummary{}, err
	}
	return summarize(q, items, s.opts.Settings), nil
}

func (s *Service) Document(quoteID string) (internal.QuoteDocument, error) {
	q, err := s.db.MustQuote(quoteID)
	if err != nil {
		return internal.QuoteDocument{}, err
	}
	items, err := s.db.ListQuoteItems(quoteID)
	if err != nil {
		return internal.QuoteDocument{}, err
	}
	return internal.QuoteDocument{
		Quote:       q,
		Items:       items,
		Summary:     summarize(q, items, s.opts.Settings),
		TaxRate:     s.opts.Settings.TaxRate,
		MoneyPlaces: s.opts.Settings.MoneyPlaces,
		CompanyName: s.opts.CompanyName,
		CompanyMail: s.opts.CompanyEmail,
		IssuedAt:    s.now().Format("2006-01-02"),
	}, nil
}

func (s *Service) MarkSent(quoteID string) error {
	return s.db.UpdateQuoteStatus(quoteID, internal.QuoteSent)
}

func summarize(q internal.QuoteRow, items []internal.QuoteItemRow, settings quote.Settings) internal.QuoteSummary {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Result.Total)
	}
	tax := total.Mul(settings.TaxRate).Round(settings.MoneyPlaces)
	return internal.QuoteSummary{
		QuoteID:           q.ID,
		Number:            q.Number,
		Items:             len(items),
		SubtotalBeforeTax: total.Sub(tax),
		TaxAmount:         tax,
		Total:             total,
	}
}

func fabricLabel(res quote.QuotationResult) string {
	var labels []string
	for _, line := range res.Lines {
		if line.Source == quote.SourceFabric {
			labels = append(labels, line.Label)
		}
	}
	return strings.Join(labels, "; ")
}

func trimClient(c internal.Client) internal.Client {
	return internal.Client{
		Name:     strings.TrimSpace(c.Name),
		IDNumber: strings.TrimSpace(c.IDNumber),
		Phone:    strings.TrimSpace(c.Phone),
		Address:  strings.TrimSpace(c.Address),
		Email:    strings.TrimSpace(c.Email),
	}
}
