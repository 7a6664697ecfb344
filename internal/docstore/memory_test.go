package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("create then get", func(t *testing.T) {
		err := store.Create(ctx, "users/u1", map[string]any{"email": "a@b.c", "createdAt": ServerTimestamp})
		require.NoError(t, err)

		doc, err := store.Get(ctx, "users/u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", doc.ID)
		assert.Equal(t, "a@b.c", doc.Data["email"])

		var out struct {
			CreatedAt time.Time `json:"createdAt"`
		}
		require.NoError(t, doc.DataTo(&out))
		assert.False(t, out.CreatedAt.IsZero())
	})

	t.Run("create twice fails", func(t *testing.T) {
		err := store.Create(ctx, "users/u1", map[string]any{"email": "other"})
		assert.ErrorIs(t, err, ErrAlreadyExists)

		doc, err := store.Get(ctx, "users/u1")
		require.NoError(t, err)
		assert.Equal(t, "a@b.c", doc.Data["email"])
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := store.Get(ctx, "users/nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("collection path rejected as document", func(t *testing.T) {
		_, err := store.Get(ctx, "users")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestMemoryStore_Upsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	path := "users/u1/savedDestinations/Bali Beach"

	require.NoError(t, store.Upsert(ctx, path, map[string]any{"name": "Bali Beach", "description": "first", "imageUrl": "x"}, true))
	require.NoError(t, store.Upsert(ctx, path, map[string]any{"name": "Bali Beach", "description": "second"}, true))

	docs, err := store.Query(ctx, "users/u1/savedDestinations", QueryOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "second", docs[0].Data["description"])
	assert.Equal(t, "x", docs[0].Data["imageUrl"], "merge keeps fields not in the write")

	require.NoError(t, store.Upsert(ctx, path, map[string]any{"name": "Bali Beach"}, false))
	doc, err := store.Get(ctx, path)
	require.NoError(t, err)
	assert.NotContains(t, doc.Data, "description")
}

func TestMemoryStore_QueryOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Upsert(ctx, "users/u1/searchHistory/"+id,
			map[string]any{"searchedAt": base.Add(time.Duration(i) * time.Hour)}, false))
	}
	// nested collections are not part of the parent query
	require.NoError(t, store.Upsert(ctx, "users/u1/searchHistory/a/extra/z", map[string]any{}, false))

	docs, err := store.Query(ctx, "users/u1/searchHistory", QueryOptions{OrderBy: "searchedAt", Descending: true})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})

	docs, err = store.Query(ctx, "users/u1/searchHistory", QueryOptions{OrderBy: "searchedAt", Limit: 2})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)

	_, err = store.Query(ctx, "users/u1", QueryOptions{})
	assert.ErrorIs(t, err, ErrInvalidPath)
}
