package item

import (
	"context"
	"fmt"
	"time"

	"github.com/naughtygopher/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

// streamEvent is the subset of a MongoDB change stream document the relay cares about
type streamEvent struct {
	OperationType string     `bson:"operationType"`
	FullDocument  *mongoItem `bson:"fullDocument"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	ClusterTime primitive.Timestamp `bson:"clusterTime"`
}

func (sev *streamEvent) change() (*Change, bool) {
	ch := &Change{
		ItemID: sev.DocumentKey.ID.Hex(),
		At:     time.Unix(int64(sev.ClusterTime.T), 0),
	}
	if sev.ClusterTime.T == 0 {
		ch.At = time.Now()
	}

	switch sev.OperationType {
	case "insert":
		ch.Op = OpCreate
	case "update", "replace":
		ch.Op = OpUpdate
	case "delete":
		ch.Op = OpDelete
	default:
		return nil, false
	}

	if ch.Op == OpDelete {
		return ch, true
	}

	// fullDocument is nil for updates if the document was deleted before the lookup happened,
	// its delete event follows
	if sev.FullDocument == nil {
		return nil, false
	}
	ch.Name = sev.FullDocument.Name

	return ch, true
}

// ResumeTokenCollection keeps the change stream position of the relay, i.e. up to which write
// the changes were published
const ResumeTokenCollection = "item_change_relay"

// changeStreamHistoryLost is returned by MongoDB when a resume token is older than the oplog
const changeStreamHistoryLost = 286

type resumePoint struct {
	ID        string    `bson:"_id"`
	Token     bson.Raw  `bson:"token"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type relayedChange struct {
	change *Change
	token  bson.Raw
}

func watchOptions(token bson.Raw) *options.ChangeStreamOptions {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	if token != nil {
		opts.SetResumeAfter(token)
	}
	return opts
}

func isHistoryLost(err error) bool {
	var serr mongo.ServerError
	return errors.As(err, &serr) && serr.HasErrorCode(changeStreamHistoryLost)
}

// ChangeRelay watches the items collection and publishes one change per write. It is an
// in-process alternative to running the Debezium connector, it never runs as part of an
// API request.
// The resume token of every published change is stored in ResumeTokenCollection, and a
// restarted relay continues after the last published change. Changes are published at least
// once. If the stored token has already rolled off the oplog, the writes in between are not
// published and the relay continues from the current position.
type ChangeRelay struct {
	collection *mongo.Collection
	tokens     *mongo.Collection
	relayID    string
	publisher  publisher
	bufferSize int
}

func NewChangeRelay(db *mongo.Database, pub publisher) (*ChangeRelay, error) {
	if db == nil || pub == nil {
		return nil, errors.New("change relay requires a database and a publisher")
	}
	const bufferSize = 64
	return &ChangeRelay{
		collection: db.Collection(CollectionName),
		tokens:     db.Collection(ResumeTokenCollection),
		relayID:    CollectionName,
		publisher:  pub,
		bufferSize: bufferSize,
	}, nil
}

// Run blocks until the context is cancelled or either watching or publishing fails
func (cr *ChangeRelay) Run(ctx context.Context) error {
	token, err := cr.resumeToken(ctx)
	if err != nil {
		return err
	}

	stream, err := cr.collection.Watch(ctx, mongo.Pipeline{}, watchOptions(token))
	if token != nil && isHistoryLost(err) {
		logger.WarnCtx(ctx, "item change stream can not be resumed, relaying changes from now on")
		stream, err = cr.collection.Watch(ctx, mongo.Pipeline{}, watchOptions(nil))
	}
	if err != nil {
		return errors.Wrap(err, "failed to watch item collection")
	}

	changes := make(chan relayedChange, cr.bufferSize)
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(changes)
		defer func() {
			_ = stream.Close(context.Background())
		}()
		return cr.watch(gctx, stream, changes)
	})

	group.Go(func() error {
		return cr.publish(gctx, changes)
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (cr *ChangeRelay) watch(ctx context.Context, stream *mongo.ChangeStream, out chan<- relayedChange) error {
	for stream.Next(ctx) {
		sev := new(streamEvent)
		err := stream.Decode(sev)
		if err != nil {
			logger.ErrWithStacktrace(errors.Wrap(err, "failed decoding change stream event"))
			continue
		}

		change, ok := sev.change()
		if !ok {
			logger.DebugCtx(ctx, "ignoring change stream event", zap.String("operationType", sev.OperationType))
			continue
		}

		rc := relayedChange{
			change: change,
			token:  append(bson.Raw(nil), stream.ResumeToken()...),
		}
		select {
		case out <- rc:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := stream.Err()
	if err != nil {
		return errors.Wrap(err, "item change stream failed")
	}

	return ctx.Err()
}

func (cr *ChangeRelay) publish(ctx context.Context, in <-chan relayedChange) error {
	for rc := range in {
		change := rc.change
		err := cr.publisher.Publish(ctx, change)
		if err != nil {
			return err
		}
		logger.InfoCtx(ctx, fmt.Sprintf("relayed item change '%s'", change.Op), zap.String("id", change.ItemID))

		err = cr.saveResumeToken(ctx, rc.token)
		if err != nil {
			// the change is published again after a restart
			logger.ErrWithStacktraceCtx(ctx, err)
		}
	}
	return nil
}

func (cr *ChangeRelay) resumeToken(ctx context.Context) (bson.Raw, error) {
	if cr.tokens == nil {
		return nil, nil
	}

	rp := new(resumePoint)
	err := cr.tokens.FindOne(ctx, bson.M{"_id": cr.relayID}).Decode(rp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed reading change relay resume token")
	}

	return rp.Token, nil
}

func (cr *ChangeRelay) saveResumeToken(ctx context.Context, token bson.Raw) error {
	if cr.tokens == nil || len(token) == 0 {
		return nil
	}

	_, err := cr.tokens.UpdateOne(
		ctx,
		bson.M{"_id": cr.relayID},
		bson.M{"$set": bson.M{"token": token, "updatedAt": time.Now()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(err, "failed saving change relay resume token")
	}

	return nil
}
