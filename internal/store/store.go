// Package store wraps the columnar analytics database the rest of the
// pipeline treats as opaque (spec.md §1): a typed insert API, ad-hoc query,
// and a health check, backed by ClickHouse.
package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	log "github.com/sirupsen/logrus"
)

// Config names the ClickHouse endpoint, matching spec.md §6's CLICKHOUSE_*
// environment variables.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Secure   bool   `mapstructure:"secure"`
}

// Store is a thin wrapper over clickhouse-go's native driver connection,
// pooled and compressed per spec.md §5's resource model.
type Store struct {
	conn clickhouse.Conn
	db   string
}

// Open establishes a pooled connection with a 5-minute read timeout and
// LZ4 compression enabled (spec.md §5). No send timeout is configured.
func Open(cfg Config) (*Store, error) {
	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout:      5 * time.Second,
		ReadTimeout:      5 * time.Minute,
		Compression:      &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		MaxOpenConns:     1,
		MaxIdleConns:     1,
		ConnMaxLifetime:  time.Hour,
	}
	if cfg.Secure {
		options.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("store: open clickhouse connection: %w", err)
	}
	return &Store{conn: conn, db: cfg.Database}, nil
}

// Ping verifies the connection is alive, used by the loader as a health
// check between insert retries (spec.md §4.7); it does not reconnect.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.conn.Ping(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Exec runs a single non-query statement, used by the migration runner.
func (s *Store) Exec(ctx context.Context, query string) error {
	if err := s.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("store: exec: %w", err)
	}
	return nil
}

// Insert opens a batch insert into table, appends every row in rows, and
// sends the batch. Each row's values must be in the same order as columns.
func (s *Store) Insert(ctx context.Context, table string, columns []string, rows [][]interface{}) error {
	query := fmt.Sprintf("INSERT INTO %s (%s)", table, columnList(columns))
	batch, err := s.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("store: prepare batch for %s: %w", table, err)
	}
	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("store: append row to %s batch: %w", table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("store: send %s batch of %d rows: %w", table, len(rows), err)
	}
	return nil
}

// Query runs a read query and returns the raw driver rows for the caller to
// scan, used by the state manager's latest-row-wins reads.
func (s *Store) Query(ctx context.Context, query string, args ...interface{}) (driverRows, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return rows, nil
}

// driverRows is an alias for clickhouse.Rows, kept as its own name so
// callers don't import clickhouse-go directly.
type driverRows = clickhouse.Rows

func columnList(columns []string) string {
	out := ""
	for i, c := range columns {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

func (s *Store) Close() error {
	if err := s.conn.Close(); err != nil {
		log.WithError(err).Warn("store: error closing clickhouse connection")
		return err
	}
	return nil
}
