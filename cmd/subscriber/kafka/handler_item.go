package kafka

import (
	"context"
	"fmt"

	"github.com/naughtygopher/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/prashantkr001/item-service/internal/item"
	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

// ItemChange handles a change data capture event of the items collection
func (kfk *Kafka) ItemChange(ctx context.Context, key, payload []byte) error {
	// Debezium follows every delete with a tombstone (nil value) for log compaction
	if len(payload) == 0 {
		logger.DebugCtx(ctx, "skipping tombstone", zap.ByteString("key", key))
		return nil
	}

	change, err := item.ParseChange(key, payload)
	if err != nil {
		// a malformed event would fail the same way on every redelivery, so it's acked after logging
		logger.ErrWithStacktraceCtx(ctx, errors.Wrapf(err, "%q", string(payload)))
		return nil
	}

	kfk.changeCounter.Add(
		ctx,
		1,
		metric.WithAttributes(attribute.String("op", string(change.Op))),
	)

	logger.InfoCtx(
		ctx,
		fmt.Sprintf("item change '%s'", change.Op),
		zap.String("id", change.ItemID),
		zap.String("name", change.Name),
		zap.Time("at", change.At),
	)

	return nil
}
