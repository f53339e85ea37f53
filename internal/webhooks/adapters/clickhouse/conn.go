package clickhouse

import (
	"context"
	"fmt"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"

	"webhook-analytics-service/internal/platform/config"
)

// Batch is the part of a ClickHouse batch insert the recorder uses.
type Batch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

type Conn interface {
	Exec(ctx context.Context, query string, args ...any) error
	PrepareBatch(ctx context.Context, query string) (Batch, error)
	Close() error
}

type nativeConn struct {
	conn ch.Conn
}

func (c *nativeConn) Exec(ctx context.Context, query string, args ...any) error {
	return c.conn.Exec(ctx, query, args...)
}

func (c *nativeConn) PrepareBatch(ctx context.Context, query string) (Batch, error) {
	return c.conn.PrepareBatch(ctx, query)
}

func (c *nativeConn) Close() error {
	return c.conn.Close()
}

// Open dials ClickHouse over the native protocol and pings it.
func Open(ctx context.Context, cfg config.ClickHouse) (Conn, error) {
	conn, err := ch.Open(&ch.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: ch.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		ClientInfo: ch.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "webhook-analytics-service", Version: "1.0.0"}},
		},
		Compression: &ch.Compression{Method: ch.CompressionLZ4},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &nativeConn{conn: conn}, nil
}
