// Package kafka is responsible for all subscription interfaces with Kafka
// Similar to the HTTP package, this should only have the "handlers" and none of the business logic.
// The item change subscriber consumes the change data capture topic of the items collection.
package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/naughtygopher/errors"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/metric"

	"github.com/prashantkr001/item-service/internal/pkg/apm"
	"github.com/prashantkr001/item-service/internal/pkg/kafka"
	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

type Config struct {
	TopicsItemChange []string
}
type Kafka struct {
	client        *kafka.Kafka
	changeCounter metric.Int64Counter
	// receivedFirstMessage is set to true if the subscriber successfully received
	// a message *ever*
	locker                 *sync.Mutex
	receivedFirstMessageAt *time.Time
	receivedLastMessageAt  *time.Time

	topicsItemChange map[string]struct{}
}

func NewService(kfk *kafka.Kafka, cfg *Config) (*Kafka, error) {
	if len(cfg.TopicsItemChange) == 0 {
		return nil, errors.New("no item change topic configured")
	}

	counter, err := apm.Global().AppMeter().Int64Counter(
		"item.changes",
		metric.WithDescription("number of item change events consumed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "meter.Int64Counter")
	}

	topics := make(map[string]struct{}, len(cfg.TopicsItemChange))
	for _, topic := range cfg.TopicsItemChange {
		topics[topic] = struct{}{}
	}

	kf := &Kafka{
		client:           kfk,
		changeCounter:    counter,
		locker:           &sync.Mutex{},
		topicsItemChange: topics,
	}

	return kf, nil
}

func (kfk *Kafka) Shutdown(ctx context.Context) error {
	if kfk == nil || kfk.client == nil {
		return nil
	}
	return kfk.client.Shutdown(ctx)
}

func (kfk *Kafka) ReceivedFirstMessageAt() *time.Time {
	var t *time.Time
	kfk.locker.Lock()
	defer kfk.locker.Unlock()

	if kfk.receivedFirstMessageAt != nil {
		tt := *kfk.receivedFirstMessageAt
		t = &tt
	}
	return t
}

func (kfk *Kafka) ReceivedLastMessageAt() *time.Time {
	var t *time.Time
	kfk.locker.Lock()
	defer kfk.locker.Unlock()

	if kfk.receivedLastMessageAt != nil {
		tt := *kfk.receivedLastMessageAt
		t = &tt
	}
	return t
}

func (kfk *Kafka) Subscribe(ctx context.Context) error {
	for {
		fetches := kfk.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			// All errors are retried internally when fetching, but non-retriable errors are
			// returned from polls.
			return errors.Errorf("%+v", errs)
		}

		kfk.locker.Lock()
		now := time.Now()
		if kfk.receivedFirstMessageAt == nil {
			kfk.receivedFirstMessageAt = &now
		}
		kfk.receivedLastMessageAt = &now
		kfk.locker.Unlock()

		iter := fetches.RecordIter()
		recordCommits := make([]*kgo.Record, 0, fetches.NumRecords())
		for !iter.Done() {
			record := iter.Next()
			if _, ok := kfk.topicsItemChange[record.Topic]; ok {
				kfk.client.HandleTopic(ctx, &recordCommits, record, kfk.ItemChange)
			}
		}

		err := kfk.client.CommitRecords(ctx, recordCommits...)
		if err != nil {
			// the subscriber should not exit if there's a commit error. It should just log
			// and continue listening
			logger.ErrWithStacktrace(err)
		}
	}
}
