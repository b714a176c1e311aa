package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	domainerrors "github.com/bookbuddyapp/bookbuddy-server/internal/errors"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store"
)

func TestFavouriteToggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.signup(t, "reader@example.com")
	book := env.addBook(t, user, "Dune", "Frank Herbert")

	on, err := env.favourites.Toggle(ctx, user, book.ID)
	require.NoError(t, err)
	assert.True(t, on)

	ok, err := env.favourites.IsFavourite(ctx, user, book.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := env.favourites.BookIDs(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{book.ID}, ids)

	on, err = env.favourites.Toggle(ctx, user, book.ID)
	require.NoError(t, err)
	assert.False(t, on)

	ids, err = env.favourites.BookIDs(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{}, ids)
}

func TestFavouriteAddRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.signup(t, "reader@example.com")
	dune := env.addBook(t, user, "Dune", "Frank Herbert")
	emma := env.addBook(t, user, "Emma", "Jane Austen")

	require.NoError(t, env.favourites.Add(ctx, user, dune.ID))
	require.NoError(t, env.favourites.Add(ctx, user, dune.ID))
	require.NoError(t, env.favourites.Add(ctx, user, emma.ID))

	list, err := env.favourites.List(ctx, user, "", store.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)

	list, err = env.favourites.List(ctx, user, "austen", store.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Emma", list.Items[0].Book.Title)

	require.NoError(t, env.favourites.Remove(ctx, user, dune.ID))
	require.NoError(t, env.favourites.Remove(ctx, user, dune.ID))

	assert.ErrorIs(t, env.favourites.Add(ctx, user, "book-missing"), domainerrors.ErrNotFound)
	_, err = env.favourites.Toggle(ctx, user, "book-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	ok, err := env.favourites.IsFavourite(ctx, nil, emma.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.signup(t, "reader@example.com")
	dune := env.addBook(t, user, "Dune", "Frank Herbert")
	emma := env.addBook(t, user, "Emma", "Jane Austen")

	base := time.Now()
	step := 0
	env.history.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	require.NoError(t, env.history.RecordView(ctx, user, dune.ID))
	require.NoError(t, env.history.RecordView(ctx, user, emma.ID))
	require.NoError(t, env.history.RecordView(ctx, user, dune.ID))

	entries, err := env.history.List(ctx, user, "")
	require.NoError(t, err)
	require.Len(t, entries, 2, "repeat views keep one entry")
	assert.Equal(t, dune.ID, entries[0].BookID)
	assert.Equal(t, emma.ID, entries[1].BookID)

	entries, err = env.history.List(ctx, user, "emma")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.ErrorIs(t, env.history.RecordView(ctx, user, "book-missing"), domainerrors.ErrNotFound)
}

func TestHistory_Limit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.signup(t, "reader@example.com")

	for i := range domain.HistoryLimit + 3 {
		book := env.addBook(t, user, "Volume "+string(rune('A'+i%26))+string(rune('a'+i/26)), "Anon")
		require.NoError(t, env.history.RecordView(ctx, user, book.ID))
	}

	entries, err := env.history.List(ctx, user, "")
	require.NoError(t, err)
	assert.Len(t, entries, domain.HistoryLimit)
}
