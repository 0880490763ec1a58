package item

import (
	"context"

	"github.com/google/uuid"
	"github.com/naughtygopher/errors"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/prashantkr001/item-service/internal/pkg/kafka"
)

const headerEventID = "event-id"

type publisher interface {
	Publish(ctx context.Context, change *Change) error
}

type kafkaChangePublisher struct {
	cli    *kafka.Kafka
	topic  string
	source ChangeSource
}

func NewKafkaChangePublisher(
	kcli *kafka.Kafka,
	topic string,
	src ChangeSource,
) (*kafkaChangePublisher, error) { //nolint:revive // it is ok to return unexported type in this case, ensures controlled access
	if topic == "" {
		return nil, errors.New("change publisher requires a topic")
	}
	return &kafkaChangePublisher{
		cli:    kcli,
		topic:  topic,
		source: src,
	}, nil
}

func (kcp *kafkaChangePublisher) Publish(ctx context.Context, change *Change) error {
	key, value, err := change.Encode(kcp.source)
	if err != nil {
		return err
	}

	err = kcp.cli.ProduceSync(ctx, &kgo.Record{
		Key:   key,
		Value: value,
		Topic: kcp.topic,
		Headers: []kgo.RecordHeader{
			{Key: headerEventID, Value: []byte(uuid.NewString())},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "failed publishing change of item '%s'", change.ItemID)
	}

	return nil
}
