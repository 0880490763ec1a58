package item

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStormStore(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	ctx := t.Context()

	sstore, err := NewStormPersistentStore(filepath.Join(t.TempDir(), "items.db"))
	requirer.NoError(err)
	t.Cleanup(func() {
		_ = sstore.Close()
	})

	created, err := sstore.Save(ctx, Item{Name: "Widget"})
	requirer.NoError(err)
	requirer.NotEmpty(created.ID)

	found, err := sstore.FindByID(ctx, created.ID)
	requirer.NoError(err)
	asserter.Equal(created, found)

	_, err = sstore.Save(ctx, Item{ID: created.ID, Name: "Gadget"})
	requirer.NoError(err)
	found, err = sstore.FindByID(ctx, created.ID)
	requirer.NoError(err)
	asserter.Equal("Gadget", found.Name)

	requirer.NoError(sstore.Delete(ctx, *found))
	_, err = sstore.FindByID(ctx, created.ID)
	requirer.ErrorIs(err, ErrNotFound)

	_, err = sstore.FindByID(ctx, "")
	requirer.ErrorIs(err, ErrNotFound)
}

func TestServiceOnStormStore(t *testing.T) {
	requirer := require.New(t)
	ctx := t.Context()

	sstore, err := NewStormPersistentStore(filepath.Join(t.TempDir(), "items.db"))
	requirer.NoError(err)
	t.Cleanup(func() {
		_ = sstore.Close()
	})

	svc, err := NewService(sstore)
	requirer.NoError(err)

	id, err := svc.Create(ctx, "Widget")
	requirer.NoError(err)
	requirer.NoError(svc.Update(ctx, id, "Gadget"))

	got, err := svc.Get(ctx, id)
	requirer.NoError(err)
	assert.Equal(t, &Item{ID: id, Name: "Gadget"}, got)

	requirer.NoError(svc.Delete(ctx, id))
	_, err = svc.Get(ctx, id)
	requirer.ErrorIs(err, ErrNotFound)
}
