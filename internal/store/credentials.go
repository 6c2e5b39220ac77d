package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/framelens/internal/credential"
)

// Verify *CredentialSlot satisfies credential.Store at compile time.
var _ credential.Store = (*CredentialSlot)(nil)

// DefaultCredentialSlot holds the enhancement endpoint key.
const DefaultCredentialSlot = "enhance-api-key"

// CredentialSlot is a single named secret row. It implements
// credential.Store.
type CredentialSlot struct {
	db   *DB
	slot string
}

// Credentials returns the slot with the given name.
func (db *DB) Credentials(slot string) *CredentialSlot {
	return &CredentialSlot{db: db, slot: slot}
}

// Load returns the stored secret, or "" when the slot is empty.
func (c *CredentialSlot) Load(ctx context.Context) (string, error) {
	var v string
	err := c.db.conn.QueryRowContext(ctx, `SELECT value FROM credentials WHERE slot = ?`, c.slot).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: load credential: %w", err)
	}
	return v, nil
}

// Save replaces the stored secret.
func (c *CredentialSlot) Save(ctx context.Context, value string) error {
	_, err := c.db.conn.ExecContext(ctx, `
		INSERT INTO credentials (slot, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, c.slot, value, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("store: save credential: %w", err)
	}
	return nil
}
