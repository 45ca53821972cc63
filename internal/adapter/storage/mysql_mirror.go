package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MySQLMirror stores the serialized collection as a single-row blob,
// overwritten in full on every save.
type MySQLMirror struct {
	db *sql.DB
}

func NewMySQLMirror(db *sql.DB) *MySQLMirror {
	return &MySQLMirror{db: db}
}

func (m *MySQLMirror) EnsureSchema(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS inventory_mirror (
			slot       VARCHAR(64) PRIMARY KEY,
			payload    LONGBLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (m *MySQLMirror) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := m.db.QueryRowContext(ctx,
		`SELECT payload FROM inventory_mirror WHERE slot = ?`, inventorySlot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load mirror: %w", err)
	}
	return payload, nil
}

func (m *MySQLMirror) Save(ctx context.Context, payload []byte) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_mirror (slot, payload)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE payload = ?`,
		inventorySlot, payload, payload)
	if err != nil {
		return fmt.Errorf("save mirror: %w", err)
	}
	return nil
}
