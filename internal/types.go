package internal

import (
	"github.com/shopspring/decimal"

	"megatex/internal/quote"
)

type QuoteStatus string

const (
	QuoteDraft QuoteStatus = "draft"
	QuoteSent  QuoteStatus = "sent"
)

type Client struct {
	Name     string `json:"name"`
	IDNumber string `json:"idNumber"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Email    string `json:"email"`
}

type Seller struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type QuoteRow struct {
	ID        string
	Number    string
	Client    Client
	Seller    Seller
	Status    QuoteStatus
	CreatedAt string
	UpdatedAt string
}

// QuoteItemRow is one computed line of a quotation as persisted. Result
// holds the full per-material breakdown.
type QuoteItemRow struct {
	ID          int
	QuoteID     string
	Position    int
	Design      string
	Category    string
	Width       float64
	Height      float64
	Quantity    int
	FabricLabel string
	Split       bool
	Selection   quote.Selection
	Result      quote.QuotationResult
	CreatedAt   string
}

type QuoteSummary struct {
	QuoteID           string          `json:"quoteId"`
	Number            string          `json:"number"`
	Items             int             `json:"items"`
	SubtotalBeforeTax decimal.Decimal `json:"subtotalBeforeTax"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	Total             decimal.Decimal `json:"total"`
}

// QuoteDocument is everything the exporters need to render a quotation.
type QuoteDocument struct {
	Quote       QuoteRow
	Items       []QuoteItemRow
	Summary     QuoteSummary
	TaxRate     decimal.Decimal
	MoneyPlaces int32
	CompanyName string
	CompanyMail string
	IssuedAt    string
}

type DeliveryRow struct {
	ID        int
	QuoteID   string
	Provider  string
	MessageID string
	Recipient string
	Subject   string
	Hash      string
	Status    string
	RawRef    string
	CreatedAt string
}

type OutgoingMail struct {
	QuoteID   string
	To        string
	ToName    string
	Subject   string
	Raw       []byte
	MessageID string
}
