package clickhouse

import (
	"context"
	"fmt"

	"webhook-analytics-service/internal/webhooks/core/domain"
	"webhook-analytics-service/internal/webhooks/core/ports"
)

const createReceiptsSQL = `
CREATE TABLE IF NOT EXISTS webhook_receipts (
    event_id    String,
    source      LowCardinality(String),
    received_at DateTime64(3, 'UTC'),
    size_bytes  UInt32
) ENGINE = MergeTree
ORDER BY (source, received_at)
`

const insertReceiptSQL = `
INSERT INTO webhook_receipts (event_id, source, received_at, size_bytes)
`

// ReceiptRecorder appends receipts of undecoded webhooks to ClickHouse.
type ReceiptRecorder struct {
	conn Conn
}

func NewReceiptRecorder(conn Conn) *ReceiptRecorder {
	return &ReceiptRecorder{conn: conn}
}

var _ ports.ReceiptRecorder = (*ReceiptRecorder)(nil)

func (r *ReceiptRecorder) Migrate(ctx context.Context) error {
	if err := r.conn.Exec(ctx, createReceiptsSQL); err != nil {
		return fmt.Errorf("create webhook_receipts: %w", err)
	}
	return nil
}

func (r *ReceiptRecorder) Record(ctx context.Context, rc domain.Receipt) error {
	batch, err := r.conn.PrepareBatch(ctx, insertReceiptSQL)
	if err != nil {
		return fmt.Errorf("prepare receipt batch: %w", err)
	}

	if err := batch.Append(rc.EventID, string(rc.Source), rc.ReceivedAt.UTC(), uint32(rc.Size)); err != nil {
		_ = batch.Abort()
		return fmt.Errorf("append receipt: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send receipt batch: %w", err)
	}
	return nil
}
