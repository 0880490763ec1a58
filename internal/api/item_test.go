package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prashantkr001/item-service/internal/item"
)

type itemServiceMocker struct {
	items map[string]string
}

func (ism *itemServiceMocker) Create(_ context.Context, name string) (string, error) {
	id := "6523f1c2a1b2c3d4e5f60711"
	ism.items[id] = name
	return id, nil
}

func (ism *itemServiceMocker) Update(_ context.Context, id, name string) error {
	if _, ok := ism.items[id]; !ok {
		return item.ErrNotFound
	}
	ism.items[id] = name
	return nil
}

func (ism *itemServiceMocker) Get(_ context.Context, id string) (*item.Item, error) {
	name, ok := ism.items[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	return &item.Item{ID: id, Name: name}, nil
}

func (ism *itemServiceMocker) Delete(_ context.Context, id string) error {
	if _, ok := ism.items[id]; !ok {
		return item.ErrNotFound
	}
	delete(ism.items, id)
	return nil
}

func TestItemAPIs(t *testing.T) {
	requirer := require.New(t)
	ctx := t.Context()
	apis := NewService(&itemServiceMocker{items: map[string]string{}})

	id, err := apis.ItemCreate(ctx, "Widget")
	requirer.NoError(err)

	requirer.NoError(apis.ItemUpdate(ctx, id, "Gadget"))
	got, err := apis.ItemGet(ctx, id)
	requirer.NoError(err)
	assert.Equal(t, &item.Item{ID: id, Name: "Gadget"}, got)

	requirer.NoError(apis.ItemDelete(ctx, id))
	_, err = apis.ItemGet(ctx, id)
	requirer.ErrorIs(err, item.ErrNotFound)
	requirer.ErrorIs(apis.ItemUpdate(ctx, id, "Gadget"), item.ErrNotFound)
	requirer.ErrorIs(apis.ItemDelete(ctx, id), item.ErrNotFound)
}
