package api

import (
	"context"

	"github.com/prashantkr001/item-service/internal/item"
)

// ItemCreate returns the ID of the newly created item
func (ap *API) ItemCreate(ctx context.Context, name string) (string, error) {
	id, err := ap.itemService.Create(ctx, name)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (ap *API) ItemUpdate(ctx context.Context, id, name string) error {
	return ap.itemService.Update(ctx, id, name)
}

func (ap *API) ItemGet(ctx context.Context, id string) (*item.Item, error) {
	it, err := ap.itemService.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (ap *API) ItemDelete(ctx context.Context, id string) error {
	return ap.itemService.Delete(ctx, id)
}
