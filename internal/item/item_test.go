package item

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/naughtygopher/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeMocker struct {
	locker *sync.Mutex
	data   map[string]Item
	nextID int
	saves  int
	// failWith is returned from every store call when set
	failWith error
}

func (sMo *storeMocker) Save(_ context.Context, item Item) (*Item, error) {
	sMo.locker.Lock()
	defer sMo.locker.Unlock()
	if sMo.failWith != nil {
		return nil, sMo.failWith
	}

	if item.ID == "" {
		sMo.nextID++
		item.ID = fmt.Sprintf("item-%d", sMo.nextID)
	}
	sMo.saves++
	sMo.data[item.ID] = item
	return &item, nil
}

func (sMo *storeMocker) FindByID(_ context.Context, id string) (*Item, error) {
	sMo.locker.Lock()
	defer sMo.locker.Unlock()
	if sMo.failWith != nil {
		return nil, sMo.failWith
	}

	item, ok := sMo.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (sMo *storeMocker) Delete(_ context.Context, item Item) error {
	sMo.locker.Lock()
	defer sMo.locker.Unlock()
	if sMo.failWith != nil {
		return sMo.failWith
	}

	delete(sMo.data, item.ID)
	return nil
}

func newStoreMocker() *storeMocker {
	return &storeMocker{
		locker: &sync.Mutex{},
		data:   make(map[string]Item),
	}
}

// TestItemLifecycle ensures the business logic is in place
/*
It tests the following scenarios
1. Create assigns an ID and persists the name.
2. Update overwrites the name only.
3. Delete removes the item, and every later lookup is not found.
*/
func TestItemLifecycle(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	smo := newStoreMocker()
	svc, err := NewService(smo)
	requirer.NoError(err)
	ctx := t.Context()

	id, err := svc.Create(ctx, "Widget")
	requirer.NoError(err)
	requirer.NotEmpty(id)

	t.Run("check if item was persisted in the storage", func(_ *testing.T) {
		asserter.Equal(Item{ID: id, Name: "Widget"}, smo.data[id])
	})

	t.Run("get returns the created item", func(_ *testing.T) {
		got, gerr := svc.Get(ctx, id)
		requirer.NoError(gerr)
		asserter.Equal(&Item{ID: id, Name: "Widget"}, got)
	})

	t.Run("update overwrites the name and keeps the ID", func(_ *testing.T) {
		requirer.NoError(svc.Update(ctx, id, "Gadget"))
		// repeating the same update must not change the observable state
		requirer.NoError(svc.Update(ctx, id, "Gadget"))

		got, gerr := svc.Get(ctx, id)
		requirer.NoError(gerr)
		asserter.Equal(&Item{ID: id, Name: "Gadget"}, got)
		asserter.Len(smo.data, 1)
	})

	t.Run("delete removes the item", func(_ *testing.T) {
		requirer.NoError(svc.Delete(ctx, id))
		_, gerr := svc.Get(ctx, id)
		requirer.ErrorIs(gerr, ErrNotFound)

		requirer.ErrorIs(svc.Delete(ctx, id), ErrNotFound)
		requirer.ErrorIs(svc.Update(ctx, id, "Gizmo"), ErrNotFound)
		asserter.Empty(smo.data)
	})
}

func TestCreateThenGet(t *testing.T) {
	requirer := require.New(t)
	svc, err := NewService(newStoreMocker())
	requirer.NoError(err)

	names := []string{"Widget", "", "a name with spaces", "ünïcödé", "x"}
	for _, name := range names {
		id, cerr := svc.Create(t.Context(), name)
		requirer.NoError(cerr)

		got, gerr := svc.Get(t.Context(), id)
		requirer.NoError(gerr)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, name, got.Name)
	}
}

func TestUnknownID(t *testing.T) {
	requirer := require.New(t)
	smo := newStoreMocker()
	svc, err := NewService(smo)
	requirer.NoError(err)
	ctx := t.Context()

	_, err = svc.Get(ctx, "does-not-exist")
	requirer.ErrorIs(err, ErrNotFound)

	err = svc.Update(ctx, "does-not-exist", "Widget")
	requirer.ErrorIs(err, ErrNotFound)
	// a missed update must not create the item
	assert.Equal(t, 0, smo.saves)

	err = svc.Delete(ctx, "does-not-exist")
	requirer.ErrorIs(err, ErrNotFound)

	status, _, _ := errors.HTTPStatusCodeMessage(err)
	assert.Equal(t, 404, status)
}

func TestStoreFailure(t *testing.T) {
	requirer := require.New(t)
	smo := newStoreMocker()
	smo.failWith = errors.Wrap(fmt.Errorf("connection refused"), "could not save the item")
	svc, err := NewService(smo)
	requirer.NoError(err)
	ctx := t.Context()

	_, err = svc.Create(ctx, "Widget")
	requirer.Error(err)
	requirer.NotErrorIs(err, ErrNotFound)

	status, _, _ := errors.HTTPStatusCodeMessage(err)
	assert.Equal(t, 500, status)

	_, err = svc.Get(ctx, "item-1")
	requirer.Error(err)
	requirer.NotErrorIs(err, ErrNotFound)
}

func TestNewServiceWithoutStore(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}
