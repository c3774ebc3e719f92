package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"megatex/internal"
	"megatex/internal/storage"
)

// OutboxStore writes outgoing messages as content-addressed .eml files
// and records them as deliveries.
type OutboxStore struct {
	db        *storage.DB
	outboxDir string
}

func NewOutboxStore(db *storage.DB, outboxDir string) *OutboxStore {
	return &OutboxStore{db: db, outboxDir: outboxDir}
}

func (s *OutboxStore) Store(provider string, mail internal.OutgoingMail, status string) (internal.DeliveryRow, error) {
	hashBytes := sha256.Sum256(mail.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.outboxDir, 0o755); err != nil {
		return internal.DeliveryRow{}, err
	}

	rawPath := filepath.Join(s.outboxDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, mail.Raw, 0o644); err != nil {
			return internal.DeliveryRow{}, err
		}
	}

	return s.db.UpsertDelivery(internal.DeliveryRow{
		QuoteID:   mail.QuoteID,
		Provider:  provider,
		MessageID: mail.MessageID,
		Recipient: mail.To,
		Subject:   mail.Subject,
		Hash:      hash,
		Status:    status,
		RawRef:    rawPath,
	})
}

// Load reads back the stored copy of a delivery.
func (s *OutboxStore) Load(row internal.DeliveryRow) ([]byte, error) {
	return os.ReadFile(row.RawRef)
}
