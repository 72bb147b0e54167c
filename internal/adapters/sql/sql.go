// Package sql is a reference DbClient over database/sql and lib/pq, for
// _load.client: Db. It opens one *sql.DB per distinct connection string
// seen and keeps it for the adapter's lifetime — manifests rarely
// reference more than a handful of connections.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/lib/pq"

	"github.com/declarative-state/state-engine/pkg/value"
)

// Client implements pkg/adapter.DbClient against any Postgres reachable
// via a lib/pq connection string.
type Client struct {
	mu    sync.Mutex
	conns map[string]*sql.DB
}

func New() *Client {
	return &Client{conns: make(map[string]*sql.DB)}
}

// Close releases every connection this client has opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for _, db := range c.conns {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Client) db(connection string) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if db, ok := c.conns[connection]; ok {
		return db, nil
	}
	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, err
	}
	c.conns[connection] = db
	return db, nil
}

// Fetch runs `SELECT <columns> FROM <table> [WHERE <where>]` and maps each
// returned row into a column-name-keyed Value map.
func (c *Client) Fetch(ctx context.Context, connection, table string, columns []string, where string) ([]map[string]value.Value, error) {
	db, err := c.db(connection)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	if where != "" {
		query += " WHERE " + where
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]value.Value
	for rows.Next() {
		scanTargets := make([]interface{}, len(columns))
		scanValues := make([]interface{}, len(columns))
		for i := range scanTargets {
			scanTargets[i] = &scanValues[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}
		row := make(map[string]value.Value, len(columns))
		for i, col := range columns {
			row[col] = value.FromNative(scanValues[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
