package item

import (
	"context"

	"github.com/asdine/storm/v3"
	"github.com/google/uuid"
	"github.com/naughtygopher/errors"
)

type stormItem struct {
	ID   string `storm:"id"`
	Name string
}

// stormItemStore keeps items in an embedded bbolt file. It is meant for running the service
// locally without MongoDB, writes to it are not observed by any change data capture.
type stormItemStore struct {
	db *storm.DB
}

func NewStormPersistentStore(path string) (*stormItemStore, error) { //nolint:revive // it is ok to return unexported type in this case, ensures controlled access
	db, err := storm.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open storm database '%s'", path)
	}

	err = db.Init(&stormItem{})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "could not init item bucket")
	}

	return &stormItemStore{db: db}, nil
}

func (sstore *stormItemStore) Save(_ context.Context, item Item) (*Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	err := sstore.db.Save(&stormItem{ID: item.ID, Name: item.Name})
	if err != nil {
		return nil, errors.Wrap(err, "could not save the item")
	}

	return &item, nil
}

func (sstore *stormItemStore) FindByID(_ context.Context, id string) (*Item, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	doc := new(stormItem)
	err := sstore.db.One("ID", id, doc)
	if err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed getting item")
	}

	return &Item{ID: doc.ID, Name: doc.Name}, nil
}

func (sstore *stormItemStore) Delete(_ context.Context, item Item) error {
	err := sstore.db.DeleteStruct(&stormItem{ID: item.ID})
	if err != nil {
		return errors.Wrap(err, "could not delete the item")
	}
	return nil
}

func (sstore *stormItemStore) Close() error {
	err := sstore.db.Close()
	if err != nil {
		return errors.Wrap(err, "could not close storm database")
	}
	return nil
}
