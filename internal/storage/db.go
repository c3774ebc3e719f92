package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"megatex/internal"
)

// ErrDuplicateQuoteNumber is returned by InsertQuote when another quote
// already holds the number.
var ErrDuplicateQuoteNumber = errors.New("quote number already taken")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS quotes (
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL,
  clientJson TEXT NOT NULL,
  sellerJson TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
DROP INDEX IF EXISTS idx_quotes_number;
CREATE UNIQUE INDEX IF NOT EXISTS idx_quotes_number_unique ON quotes(number);

CREATE TABLE IF NOT EXISTS quote_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quoteId TEXT NOT NULL,
  position INTEGER NOT NULL,
  design TEXT NOT NULL,
  category TEXT,
  width REAL NOT NULL,
  height REAL NOT NULL,
  quantity INTEGER NOT NULL,
  fabricLabel TEXT,
  split INTEGER NOT NULL DEFAULT 0,
  selectionJson TEXT NOT NULL,
  resultJson TEXT NOT NULL,
  total TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(quoteId, position),
  FOREIGN KEY(quoteId) REFERENCES quotes(id)
);

CREATE TABLE IF NOT EXISTS deliveries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quoteId TEXT NOT NULL,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  recipient TEXT NOT NULL,
  subject TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId),
  FOREIGN KEY(quoteId) REFERENCES quotes(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertQuote(q internal.QuoteRow) error {
	clientJSON, _ := json.Marshal(q.Client)
	sellerJSON, _ := json.Marshal(q.Seller)
	status := q.Status
	if status == "" {
		status = internal.QuoteDraft
	}
	_, err := d.conn.Exec(`
INSERT INTO quotes (id, number, clientJson, sellerJson, status)
VALUES (?, ?, ?, ?, ?)
`, q.ID, q.Number, string(clientJSON), string(sellerJSON), string(status))
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: quotes.number") {
		return fmt.Errorf("%w: %s", ErrDuplicateQuoteNumber, q.Number)
	}
	return err
}

func (d *DB) UpdateQuoteParties(id string, client internal.Client, seller internal.Seller) error {
	clientJSON, _ := json.Marshal(client)
	sellerJSON, _ := json.Marshal(seller)
	res, err := d.conn.Exec(`
UPDATE quotes SET clientJson = ?, sellerJson = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?
`, string(clientJSON), string(sellerJSON), id)
	if err != nil {
		return err
	}
	return expectOne(res, "quote", id)
}

func (d *DB) UpdateQuoteStatus(id string, status internal.QuoteStatus) error {
	res, err := d.conn.Exec(`UPDATE quotes SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return expectOne(res, "quote", id)
}

const quoteColumns = `id, number, clientJson, sellerJson, status, createdAt, updatedAt`

func scanQuote(scan func(dest ...any) error) (internal.QuoteRow, error) {
	var q internal.QuoteRow
	var clientJSON, sellerJSON, status string
	if err := scan(&q.ID, &q.Number, &clientJSON, &sellerJSON, &status, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return internal.QuoteRow{}, err
	}
	q.Status = internal.QuoteStatus(status)
	if err := json.Unmarshal([]byte(clientJSON), &q.Client); err != nil {
		return internal.QuoteRow{}, fmt.Errorf("quote %s client: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(sellerJSON), &q.Seller); err != nil {
		return internal.QuoteRow{}, fmt.Errorf("quote %s seller: %w", q.ID, err)
	}
	return q, nil
}

func (d *DB) GetQuote(id string) (*internal.QuoteRow, error) {
	q, err := scanQuote(d.conn.QueryRow(`SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetQuoteByNumber returns the most recent quote carrying the number.
func (d *DB) GetQuoteByNumber(number string) (*internal.QuoteRow, error) {
	q, err := scanQuote(d.conn.QueryRow(`
SELECT `+quoteColumns+` FROM quotes WHERE number = ? ORDER BY createdAt DESC, rowid DESC LIMIT 1
`, number).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (d *DB) ListQuotes(limit int) ([]internal.QuoteRow, error) {
	rows, err := d.conn.Query(`SELECT `+quoteColumns+` FROM quotes ORDER BY createdAt DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.QuoteRow
	for rows.Next() {
		q, err := scanQuote(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// AppendQuoteItem stores an item after the last one of its quote and
// returns it with its assigned id and position.
func (d *DB) AppendQuoteItem(item internal.QuoteItemRow) (internal.QuoteItemRow, error) {
	selectionJSON, err := json.Marshal(item.Selection)
	if err != nil {
		return internal.QuoteItemRow{}, err
	}
	resultJSON, err := json.Marshal(item.Result)
	if err != nil {
		return internal.QuoteItemRow{}, err
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return internal.QuoteItemRow{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM quotes WHERE id = ?`, item.QuoteID).Scan(&exists); err != nil {
		return internal.QuoteItemRow{}, err
	}
	if exists == 0 {
		return internal.QuoteItemRow{}, fmt.Errorf("quote not found: id=%s", item.QuoteID)
	}

	var position int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(position), 0) + 1 FROM quote_items WHERE quoteId = ?`, item.QuoteID).Scan(&position); err != nil {
		return internal.QuoteItemRow{}, err
	}

	split := 0
	if item.Split {
		split = 1
	}
	res, err := tx.Exec(`
INSERT INTO quote_items (quoteId, position, design, category, width, height, quantity, fabricLabel, split, selectionJson, resultJson, total)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, item.QuoteID, position, item.Design, item.Category, item.Width, item.Height, item.Quantity,
		item.FabricLabel, split, string(selectionJSON), string(resultJSON), item.Result.Total.String())
	if err != nil {
		return internal.QuoteItemRow{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return internal.QuoteItemRow{}, err
	}
	if _, err := tx.Exec(`UPDATE quotes SET updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, item.QuoteID); err != nil {
		return internal.QuoteItemRow{}, err
	}
	if err := tx.Commit(); err != nil {
		return internal.QuoteItemRow{}, err
	}

	item.ID = int(id)
	item.Position = position
	return item, nil
}

func (d *DB) ListQuoteItems(quoteID string) ([]internal.QuoteItemRow, error) {
	rows, err := d.conn.Query(`
SELECT id, quoteId, position, design, category, width, height, quantity, fabricLabel, split, selectionJson, resultJson, createdAt
FROM quote_items WHERE quoteId = ? ORDER BY position ASC
`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.QuoteItemRow
	for rows.Next() {
		var item internal.QuoteItemRow
		var category, fabricLabel sql.NullString
		var split int
		var selectionJSON, resultJSON string
		if err := rows.Scan(
			&item.ID, &item.QuoteID, &item.Position, &item.Design, &category,
			&item.Width, &item.Height, &item.Quantity, &fabricLabel, &split,
			&selectionJSON, &resultJSON, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.Category = category.String
		item.FabricLabel = fabricLabel.String
		item.Split = split != 0
		if err := json.Unmarshal([]byte(selectionJSON), &item.Selection); err != nil {
			return nil, fmt.Errorf("quote item %d selection: %w", item.ID, err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &item.Result); err != nil {
			return nil, fmt.Errorf("quote item %d result: %w", item.ID, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) UpsertDelivery(row internal.DeliveryRow) (internal.DeliveryRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO deliveries (quoteId, provider, messageId, recipient, subject, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  recipient=excluded.recipient,
  subject=excluded.subject,
  hash=excluded.hash,
  status=excluded.status,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, row.QuoteID, row.Provider, row.MessageID, row.Recipient, row.Subject, row.Hash, row.Status, row.RawRef)
	if err != nil {
		return internal.DeliveryRow{}, err
	}

	stored, err := d.GetDelivery(row.Provider, row.MessageID)
	if err != nil {
		return internal.DeliveryRow{}, err
	}
	if stored == nil {
		return internal.DeliveryRow{}, errors.New("failed to upsert delivery")
	}
	return *stored, nil
}

const deliveryColumns = `id, quoteId, provider, messageId, recipient, subject, hash, status, rawRef, createdAt`

func scanDelivery(scan func(dest ...any) error) (internal.DeliveryRow, error) {
	var row internal.DeliveryRow
	var subject sql.NullString
	err := scan(&row.ID, &row.QuoteID, &row.Provider, &row.MessageID, &row.Recipient, &subject, &row.Hash, &row.Status, &row.RawRef, &row.CreatedAt)
	row.Subject = subject.String
	return row, err
}

func (d *DB) GetDelivery(provider, messageID string) (*internal.DeliveryRow, error) {
	row, err := scanDelivery(d.conn.QueryRow(`SELECT `+deliveryColumns+` FROM deliveries WHERE provider = ? AND messageId = ?`, provider, messageID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListDeliveries(quoteID string) ([]internal.DeliveryRow, error) {
	rows, err := d.conn.Query(`SELECT `+deliveryColumns+` FROM deliveries WHERE quoteId = ? ORDER BY id ASC`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.DeliveryRow
	for rows.Next() {
		row, err := scanDelivery(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustQuote(id string) (internal.QuoteRow, error) {
	q, err := d.GetQuote(id)
	if err != nil {
		return internal.QuoteRow{}, err
	}
	if q == nil {
		return internal.QuoteRow{}, fmt.Errorf("quote not found: id=%s", id)
	}
	return *q, nil
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s not found: id=%s", kind, id)
	}
	return nil
}
