package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"

	"megatex/internal"
)

// Sender identifies the mailbox quotes are sent from.
type Sender struct {
	Name    string
	Address string
}

// QuoteFileName is the attachment base name for a quote number.
func QuoteFileName(number string) string {
	return "cotizacion-" + number
}

// BuildQuoteEmail assembles the MIME message for a quotation: text and
// HTML bodies plus the PDF and workbook as attachments.
func BuildQuoteEmail(doc internal.QuoteDocument, from Sender, to, toName string, date time.Time) (internal.OutgoingMail, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		to = strings.TrimSpace(doc.Quote.Client.Email)
		toName = doc.Quote.Client.Name
	}
	if to == "" {
		return internal.OutgoingMail{}, errors.New("no recipient: pass one or set the client email")
	}
	if strings.TrimSpace(from.Address) == "" {
		return internal.OutgoingMail{}, errors.New("sender address is required")
	}

	html, err := QuoteHTML(doc)
	if err != nil {
		return internal.OutgoingMail{}, err
	}
	pdf, err := QuotePDF(doc)
	if err != nil {
		return internal.OutgoingMail{}, err
	}
	book, err := QuoteXLSX(doc)
	if err != nil {
		return internal.OutgoingMail{}, err
	}

	subject := fmt.Sprintf("Cotización %s - %s", doc.Quote.Number, doc.CompanyName)
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from.Address))
	name := QuoteFileName(doc.Quote.Number)

	part, err := enmime.Builder().
		From(from.Name, from.Address).
		To(toName, to).
		Subject(subject).
		Date(date).
		Header("Message-ID", messageID).
		Text([]byte(QuoteText(doc))).
		HTML([]byte(html)).
		AddAttachment(pdf, "application/pdf", name+".pdf").
		AddAttachment(book, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name+".xlsx").
		Build()
	if err != nil {
		return internal.OutgoingMail{}, fmt.Errorf("build message: %w", err)
	}
	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return internal.OutgoingMail{}, fmt.Errorf("encode message: %w", err)
	}

	return internal.OutgoingMail{
		QuoteID:   doc.Quote.ID,
		To:        to,
		ToName:    toName,
		Subject:   subject,
		Raw:       buf.Bytes(),
		MessageID: messageID,
	}, nil
}

func domainOf(addr string) string {
	if _, domain, ok := strings.Cut(addr, "@"); ok && domain != "" {
		return strings.TrimSpace(domain)
	}
	return "localhost"
}
