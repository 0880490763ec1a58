package item

import (
	"context"

	"github.com/naughtygopher/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the collection (or bucket) every item document lives in
const CollectionName = "items"

type persistentStore interface {
	// Save inserts the item if it has no ID, otherwise overwrites the stored item with the same ID
	Save(ctx context.Context, item Item) (*Item, error)
	FindByID(ctx context.Context, id string) (*Item, error)
	Delete(ctx context.Context, item Item) error
}

// mongoItem is the document layout of an item, _id is assigned by the driver on insert
type mongoItem struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

func (mi *mongoItem) item() *Item {
	return &Item{ID: mi.ID.Hex(), Name: mi.Name}
}

type mongoItemStore struct {
	mongoDriver    *mongo.Database
	itemCollection *mongo.Collection
}

func NewMongoPersistentStore(client *mongo.Database) (*mongoItemStore, error) { //nolint:revive // it is ok to return unexported type in this case, ensures controlled access
	istore := &mongoItemStore{
		mongoDriver:    client,
		itemCollection: client.Collection(CollectionName),
	}
	return istore, nil
}

func (istore *mongoItemStore) Save(ctx context.Context, item Item) (*Item, error) {
	if item.ID == "" {
		return istore.insert(ctx, item)
	}

	oid, err := primitive.ObjectIDFromHex(item.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid item ID '%s'", item.ID)
	}

	_, err = istore.itemCollection.ReplaceOne(
		ctx,
		bson.M{"_id": oid},
		mongoItem{ID: oid, Name: item.Name},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not save the item")
	}

	return &item, nil
}

func (istore *mongoItemStore) insert(ctx context.Context, item Item) (*Item, error) {
	result, err := istore.itemCollection.InsertOne(ctx, mongoItem{Name: item.Name})
	if err != nil {
		return nil, errors.Wrap(err, "could not insert the item")
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errors.Errorf("unexpected inserted ID type %T", result.InsertedID)
	}
	item.ID = oid.Hex()

	return &item, nil
}

func (istore *mongoItemStore) FindByID(ctx context.Context, id string) (*Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// an ID which could never have been assigned by the store
		return nil, ErrNotFound
	}

	result := istore.itemCollection.FindOne(ctx, bson.M{"_id": oid})
	doc := new(mongoItem)
	err = result.Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed getting item")
	}

	return doc.item(), nil
}

func (istore *mongoItemStore) Delete(ctx context.Context, item Item) error {
	oid, err := primitive.ObjectIDFromHex(item.ID)
	if err != nil {
		return errors.Wrapf(err, "invalid item ID '%s'", item.ID)
	}

	_, err = istore.itemCollection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "could not delete the item")
	}

	return nil
}
