package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert assigns the ID", func(mt *mtest.T) {
		requirer := require.New(mt)
		istore, err := NewMongoPersistentStore(mt.DB)
		requirer.NoError(err)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		created, err := istore.Save(mt.Context(), Item{Name: "Widget"})
		requirer.NoError(err)
		assert.Equal(mt, "Widget", created.Name)
		_, err = primitive.ObjectIDFromHex(created.ID)
		assert.NoError(mt, err)
	})

	mt.Run("save with ID replaces", func(mt *mtest.T) {
		requirer := require.New(mt)
		istore, err := NewMongoPersistentStore(mt.DB)
		requirer.NoError(err)

		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		saved, err := istore.Save(mt.Context(), Item{ID: oid.Hex(), Name: "Gadget"})
		requirer.NoError(err)
		assert.Equal(mt, &Item{ID: oid.Hex(), Name: "Gadget"}, saved)

		started := mt.GetStartedEvent()
		requirer.NotNil(started)
		assert.Equal(mt, "update", started.CommandName)
		upsert, _ := started.Command.Lookup("updates", "0", "upsert").BooleanOK()
		assert.True(mt, upsert)

		// not an ObjectID, so it could never be stored
		_, err = istore.Save(mt.Context(), Item{ID: "abc", Name: "Gadget"})
		assert.Error(mt, err)
	})

	mt.Run("find by ID", func(mt *mtest.T) {
		requirer := require.New(mt)
		istore, err := NewMongoPersistentStore(mt.DB)
		requirer.NoError(err)

		oid := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Widget"},
		}))
		found, err := istore.FindByID(mt.Context(), oid.Hex())
		requirer.NoError(err)
		assert.Equal(mt, &Item{ID: oid.Hex(), Name: "Widget"}, found)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err = istore.FindByID(mt.Context(), primitive.NewObjectID().Hex())
		requirer.ErrorIs(err, ErrNotFound)

		// no command is sent for an invalid ID
		_, err = istore.FindByID(mt.Context(), "not-an-object-id")
		requirer.ErrorIs(err, ErrNotFound)
	})

	mt.Run("driver failures are not not-found", func(mt *mtest.T) {
		requirer := require.New(mt)
		istore, err := NewMongoPersistentStore(mt.DB)
		requirer.NoError(err)

		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "storage unavailable",
		}))
		_, err = istore.FindByID(mt.Context(), primitive.NewObjectID().Hex())
		requirer.Error(err)
		assert.NotErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		requirer := require.New(mt)
		istore, err := NewMongoPersistentStore(mt.DB)
		requirer.NoError(err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		requirer.NoError(istore.Delete(mt.Context(), Item{ID: primitive.NewObjectID().Hex()}))

		started := mt.GetStartedEvent()
		requirer.NotNil(started)
		assert.Equal(mt, "delete", started.CommandName)

		requirer.Error(istore.Delete(mt.Context(), Item{ID: "abc"}))
	})
}
