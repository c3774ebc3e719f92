package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/ledongthuc/pdf"
)

// MessageReport describes a stored quote email as a recipient would
// see it.
type MessageReport struct {
	MessageID   string
	To          string
	Subject     string
	Number      string
	Total       string
	Items       int
	Attachments []string
	PDFPages    int
}

// InspectMessage parses a raw quote email and reads back the quote
// number, item count and total from the HTML body and the page count
// of the PDF attachment.
func InspectMessage(raw []byte) (MessageReport, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return MessageReport{}, fmt.Errorf("read envelope: %w", err)
	}
	rep := MessageReport{
		MessageID: env.GetHeader("Message-ID"),
		To:        env.GetHeader("To"),
		Subject:   env.GetHeader("Subject"),
	}

	if strings.TrimSpace(env.HTML) != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(env.HTML))
		if err != nil {
			return rep, fmt.Errorf("parse html body: %w", err)
		}
		rep.Number = strings.TrimSpace(doc.Find("#number").First().Text())
		rep.Total = strings.TrimSpace(doc.Find("#totals td.grand").First().Text())
		rep.Items = doc.Find("#items tr.item").Length()
	}

	for _, att := range env.Attachments {
		rep.Attachments = append(rep.Attachments, att.FileName)
		if att.ContentType != "application/pdf" {
			continue
		}
		pages, err := PDFPageCount(att.Content)
		if err != nil {
			return rep, fmt.Errorf("attachment %s: %w", att.FileName, err)
		}
		rep.PDFPages = pages
	}
	return rep, nil
}

// PDFPageCount opens a rendered PDF and returns its number of pages.
func PDFPageCount(content []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
