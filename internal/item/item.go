// Package item is responsible for implementing all features required for handling Item
package item

import (
	"context"

	"github.com/naughtygopher/errors"
	"go.uber.org/zap"

	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

var ErrNotFound = errors.NotFound("item not found")

type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service struct holds all the dependencies required, as interfaces. e.g. persistent store interface,
// cache interface etc.
// And all its usecases as methods(with pointer receiver) of this struct.
type Service struct {
	persistentStore persistentStore
}

// NewService accepts any external dependencies required for the item service.
// e.g. DB driver.
func NewService(storage persistentStore) (*Service, error) {
	if storage == nil {
		return nil, errors.New("item service requires a persistent store")
	}
	return &Service{
		persistentStore: storage,
	}, nil
}

// Create stores a new item with the given name and returns the ID assigned by the store
func (svc *Service) Create(ctx context.Context, name string) (string, error) {
	created, err := svc.persistentStore.Save(ctx, Item{Name: name})
	if err != nil {
		return "", err
	}

	logger.InfoCtx(ctx, "item created", zap.String("id", created.ID))
	return created.ID, nil
}

// Update overwrites the name of an existing item. The lookup and the write are two separate
// store calls, a concurrent delete in between is not guarded against.
func (svc *Service) Update(ctx context.Context, id, name string) error {
	existing, err := svc.find(ctx, id)
	if err != nil {
		return err
	}

	existing.Name = name
	_, err = svc.persistentStore.Save(ctx, *existing)
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "item updated", zap.String("id", id), zap.String("name", name))
	return nil
}

func (svc *Service) Get(ctx context.Context, id string) (*Item, error) {
	existing, err := svc.find(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Item{ID: existing.ID, Name: existing.Name}, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	existing, err := svc.find(ctx, id)
	if err != nil {
		return err
	}

	err = svc.persistentStore.Delete(ctx, *existing)
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "item deleted", zap.String("id", id))
	return nil
}

func (svc *Service) find(ctx context.Context, id string) (*Item, error) {
	existing, err := svc.persistentStore.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		logger.WarnCtx(ctx, "item not found", zap.String("id", id))
		return nil, errors.Wrapf(err, "'%s'", id)
	}
	if err != nil {
		return nil, err
	}

	return existing, nil
}
