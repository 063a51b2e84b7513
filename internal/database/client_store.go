package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/lucasromanh/lucha-fit/internal/clients"
)

// ClientStore handles client directory rows in SQLite
type ClientStore struct {
	db *sql.DB
}

// NewClientStore creates a new client store
func NewClientStore(db *DB) *ClientStore {
	return &ClientStore{db: db.Conn()}
}

// CreateClient inserts a client and returns the stored record.
func (s *ClientStore) CreateClient(ctx context.Context, fullName string) (clients.Record, error) {
	if fullName == "" {
		return clients.Record{}, fmt.Errorf("client name cannot be empty")
	}

	record := clients.Record{ID: uuid.NewString(), FullName: fullName}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO clients (id, full_name)
VALUES (?, ?)`, record.ID, record.FullName)
	if err != nil {
		return clients.Record{}, fmt.Errorf("failed to create client: %w", err)
	}

	return record, nil
}

// GetClient retrieves a single client by ID. A missing client yields a zero
// record with no error.
func (s *ClientStore) GetClient(ctx context.Context, id string) (clients.Record, error) {
	var record clients.Record
	err := s.db.QueryRowContext(ctx, `
SELECT id, full_name FROM clients WHERE id = ?`, id).Scan(&record.ID, &record.FullName)
	if err == sql.ErrNoRows {
		return clients.Record{}, nil
	}
	if err != nil {
		return clients.Record{}, fmt.Errorf("failed to retrieve client: %w", err)
	}
	return record, nil
}

// ListClients returns all clients ordered by name. Implements clients.Source.
func (s *ClientStore) ListClients(ctx context.Context) ([]clients.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, full_name FROM clients ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var records []clients.Record
	for rows.Next() {
		var r clients.Record
		if err := rows.Scan(&r.ID, &r.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan client row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}

	return records, nil
}

var _ clients.Source = (*ClientStore)(nil)
