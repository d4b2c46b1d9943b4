package store

import (
	"context"
	"database/sql"
	"fmt"
)

// KeyRecord is one stored API-key configuration. Secret is the bearer
// credential; the rest describes the endpoint the key unlocks.
type KeyRecord struct {
	Name            string
	Secret          string
	Model           string
	Endpoint        string
	FunctionCalling bool
	ContextLength   int
}

// AddKey inserts or replaces a key record by name
func (s *Store) AddKey(ctx context.Context, k KeyRecord) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO api_keys (name, secret, model, endpoint, function_calling, context_length)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			secret = excluded.secret,
			model = excluded.model,
			endpoint = excluded.endpoint,
			function_calling = excluded.function_calling,
			context_length = excluded.context_length`,
		k.Name, k.Secret, k.Model, k.Endpoint, boolToInt(k.FunctionCalling), k.ContextLength,
	)
	if err != nil {
		return fmt.Errorf("adding key: %w", err)
	}
	return nil
}

// GetKey looks up a key record by name; returns (nil, nil) when absent
func (s *Store) GetKey(ctx context.Context, name string) (*KeyRecord, error) {
	var k KeyRecord
	var fc int
	err := s.conn.QueryRowContext(ctx,
		"SELECT name, secret, model, endpoint, function_calling, context_length FROM api_keys WHERE name = ?",
		name,
	).Scan(&k.Name, &k.Secret, &k.Model, &k.Endpoint, &fc, &k.ContextLength)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting key: %w", err)
	}
	k.FunctionCalling = fc != 0
	return &k, nil
}

// ListKeys returns all key records in name order
func (s *Store) ListKeys(ctx context.Context) ([]KeyRecord, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT name, secret, model, endpoint, function_calling, context_length FROM api_keys ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var out []KeyRecord
	for rows.Next() {
		var k KeyRecord
		var fc int
		if err := rows.Scan(&k.Name, &k.Secret, &k.Model, &k.Endpoint, &fc, &k.ContextLength); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		k.FunctionCalling = fc != 0
		out = append(out, k)
	}
	return out, rows.Err()
}

// DeleteKey removes a key record by name
func (s *Store) DeleteKey(ctx context.Context, name string) error {
	_, err := s.conn.ExecContext(ctx, "DELETE FROM api_keys WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
