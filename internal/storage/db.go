package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"procureai/internal"
)

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

func (d *DB) Ping() error {
	return d.conn.Ping()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS rfps (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  originalRequest TEXT NOT NULL,
  structuredJson TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  sentToJson TEXT NOT NULL DEFAULT '[]',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  contactPerson TEXT,
  tagsJson TEXT NOT NULL DEFAULT '[]',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_vendors_email ON vendors(email);

CREATE TABLE IF NOT EXISTS proposals (
  id TEXT PRIMARY KEY,
  rfpId TEXT NOT NULL,
  vendorId TEXT NOT NULL,
  emailContent TEXT NOT NULL,
  receivedAt TEXT NOT NULL,
  score INTEGER NOT NULL DEFAULT 0,
  parsedJson TEXT NOT NULL,
  FOREIGN KEY(rfpId) REFERENCES rfps(id),
  FOREIGN KEY(vendorId) REFERENCES vendors(id)
);
CREATE INDEX IF NOT EXISTS idx_proposals_rfpId ON proposals(rfpId);

CREATE TABLE IF NOT EXISTS inbox_messages (
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  rfpId TEXT,
  vendorId TEXT,
  outcome TEXT NOT NULL,
  processedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(provider, messageId)
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) CreateRFP(r internal.RFP) error {
	structuredJSON, _ := json.Marshal(r.Structured)
	sentToJSON, _ := json.Marshal(emptyIfNil(r.SentTo))
	_, err := d.conn.Exec(`
INSERT INTO rfps (id, title, originalRequest, structuredJson, status, sentToJson, createdAt)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, r.ID, r.Title, r.OriginalRequest, string(structuredJSON), string(r.Status), string(sentToJSON), r.CreatedAt)
	return err
}

func (d *DB) GetRFP(id string) (*internal.RFP, error) {
	row := d.conn.QueryRow(`
SELECT id, title, originalRequest, structuredJson, status, sentToJson, createdAt
FROM rfps WHERE id = ?
`, id)
	return scanRFP(row)
}

func (d *DB) ListRFPs() ([]internal.RFP, error) {
	rows, err := d.conn.Query(`
SELECT id, title, originalRequest, structuredJson, status, sentToJson, createdAt
FROM rfps ORDER BY createdAt DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RFP
	for rows.Next() {
		r, err := scanRFPRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) UpdateRFPStructured(id string, structured internal.StructuredRequest) error {
	structuredJSON, _ := json.Marshal(structured)
	_, err := d.conn.Exec(`
UPDATE rfps SET structuredJson = ? WHERE id = ?
`, string(structuredJSON), id)
	return err
}

// MarkRFPSent records the one status transition an RFP goes through.
func (d *DB) MarkRFPSent(id string, vendorIDs []string) error {
	sentToJSON, _ := json.Marshal(emptyIfNil(vendorIDs))
	_, err := d.conn.Exec(`
UPDATE rfps SET status = ?, sentToJson = ? WHERE id = ?
`, string(internal.StatusSent), string(sentToJSON), id)
	return err
}

func (d *DB) CreateVendor(v internal.Vendor) error {
	tagsJSON, _ := json.Marshal(emptyIfNil(v.Tags))
	_, err := d.conn.Exec(`
INSERT INTO vendors (id, name, email, contactPerson, tagsJson, createdAt)
VALUES (?, ?, ?, ?, ?, ?)
`, v.ID, v.Name, v.Email, v.ContactPerson, string(tagsJSON), v.CreatedAt)
	return err
}

func (d *DB) GetVendor(id string) (*internal.Vendor, error) {
	row := d.conn.QueryRow(`
SELECT id, name, email, contactPerson, tagsJson, createdAt
FROM vendors WHERE id = ?
`, id)
	return scanVendor(row)
}

func (d *DB) ListVendors() ([]internal.Vendor, error) {
	rows, err := d.conn.Query(`
SELECT id, name, email, contactPerson, tagsJson, createdAt
FROM vendors ORDER BY createdAt ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Vendor
	for rows.Next() {
		var v internal.Vendor
		var tagsJSON string
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.ContactPerson, &tagsJSON, &v.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &v.Tags)
		out = append(out, v)
	}
	return out, rows.Err()
}

// FindVendorByEmail resolves a vendor by exact address match. Returns
// nil without error when no vendor is known for the address.
func (d *DB) FindVendorByEmail(email string) (*internal.Vendor, error) {
	row := d.conn.QueryRow(`
SELECT id, name, email, contactPerson, tagsJson, createdAt
FROM vendors WHERE email = ? LIMIT 1
`, email)
	return scanVendor(row)
}

func (d *DB) CreateProposal(p internal.Proposal) error {
	parsedJSON, _ := json.Marshal(p.Data)
	_, err := d.conn.Exec(`
INSERT INTO proposals (id, rfpId, vendorId, emailContent, receivedAt, score, parsedJson)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, p.ID, p.RFPID, p.VendorID, p.EmailContent, p.ReceivedAt, p.Data.Score, string(parsedJSON))
	return err
}

func (d *DB) ListProposalsByRFP(rfpID string) ([]internal.Proposal, error) {
	rows, err := d.conn.Query(`
SELECT id, rfpId, vendorId, emailContent, receivedAt, parsedJson
FROM proposals WHERE rfpId = ? ORDER BY score DESC, receivedAt ASC
`, rfpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Proposal
	for rows.Next() {
		var p internal.Proposal
		var parsedJSON string
		if err := rows.Scan(&p.ID, &p.RFPID, &p.VendorID, &p.EmailContent, &p.ReceivedAt, &parsedJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(parsedJSON), &p.Data)
		out = append(out, p)
	}
	return out, rows.Err()
}

// HasInboxMessage reports whether a mailbox message was already handled
// in an earlier cycle. The ledger is what keeps a re-listed message from
// producing a second proposal.
func (d *DB) HasInboxMessage(provider, messageID string) (bool, error) {
	var one int
	err := d.conn.QueryRow(`
SELECT 1 FROM inbox_messages WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *DB) RecordInboxMessage(provider, messageID, rfpID, vendorID string, outcome internal.MessageOutcome) error {
	_, err := d.conn.Exec(`
INSERT INTO inbox_messages (provider, messageId, rfpId, vendorId, outcome)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  rfpId=excluded.rfpId,
  vendorId=excluded.vendorId,
  outcome=excluded.outcome,
  processedAt=CURRENT_TIMESTAMP
`, provider, messageID, nullIfEmpty(rfpID), nullIfEmpty(vendorID), string(outcome))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRFP(row *sql.Row) (*internal.RFP, error) {
	r, err := scanRFPRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRFPRow(row rowScanner) (internal.RFP, error) {
	var r internal.RFP
	var structuredJSON, sentToJSON string
	var status string
	if err := row.Scan(&r.ID, &r.Title, &r.OriginalRequest, &structuredJSON, &status, &sentToJSON, &r.CreatedAt); err != nil {
		return internal.RFP{}, err
	}
	r.Status = internal.RFPStatus(status)
	_ = json.Unmarshal([]byte(structuredJSON), &r.Structured)
	_ = json.Unmarshal([]byte(sentToJSON), &r.SentTo)
	return r, nil
}

func scanVendor(row *sql.Row) (*internal.Vendor, error) {
	var v internal.Vendor
	var tagsJSON string
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.ContactPerson, &tagsJSON, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &v.Tags)
	return &v, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
