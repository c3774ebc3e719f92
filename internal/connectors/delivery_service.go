package connectors

import (
	"context"
	"fmt"
	"log"
	"time"

	"megatex/internal"
	"megatex/internal/storage"
)

type DeliveryService struct {
	db     *storage.DB
	sender QuoteSender
	store  *OutboxStore
}

type DeliveryResult struct {
	Delivery internal.DeliveryRow
	Status   string
}

func NewDeliveryService(db *storage.DB, outboxDir string, sender QuoteSender) *DeliveryService {
	return &DeliveryService{
		db:     db,
		sender: sender,
		store:  NewOutboxStore(db, outboxDir),
	}
}

// Deliver stores the outbox copy, hands the message to the provider and
// records the outcome. The quote is marked sent once a provider accepts
// the message for sending.
func (s *DeliveryService) Deliver(ctx context.Context, mail internal.OutgoingMail) (DeliveryResult, error) {
	provider := s.sender.Provider()
	if _, err := s.store.Store(provider, mail, StatusPending); err != nil {
		return DeliveryResult{}, err
	}

	status, err := s.sender.Send(ctx, mail)
	if err != nil {
		log.Printf("delivery failed quote=%s provider=%s to=%s: %v", mail.QuoteID, provider, mail.To, err)
		if _, serr := s.store.Store(provider, mail, StatusFailed); serr != nil {
			log.Printf("record failed delivery: %v", serr)
		}
		return DeliveryResult{}, fmt.Errorf("%s delivery: %w", provider, err)
	}

	row, err := s.store.Store(provider, mail, status)
	if err != nil {
		return DeliveryResult{}, err
	}
	if status == StatusSent {
		if err := s.db.UpdateQuoteStatus(mail.QuoteID, internal.QuoteSent); err != nil {
			return DeliveryResult{}, err
		}
	}
	if err := s.db.SetMetadata("last_delivery_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return DeliveryResult{}, err
	}
	log.Printf("delivery quote=%s provider=%s to=%s status=%s", mail.QuoteID, provider, mail.To, status)
	return DeliveryResult{Delivery: row, Status: status}, nil
}
