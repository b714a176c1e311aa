package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbuddyapp/bookbuddy-server/internal/search"
)

func newTestSearch(t *testing.T, env *testEnv) *SearchService {
	t.Helper()
	index, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir(), Logger: slog.Default()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return NewSearchService(index, env.store, nil)
}

func TestSearchService_ReindexAndSuggest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := env.signup(t, "reader@example.com")
	env.addBook(t, user, "Dune", "Frank Herbert")
	env.addBook(t, user, "Emma", "Jane Austen")

	svc := newTestSearch(t, env)
	require.NoError(t, svc.EnsureIndex(ctx))

	results, err := svc.Suggest(ctx, "aust")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Emma", results[0].Title)

	results, err = svc.Suggest(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_IndexFollowsStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newTestSearch(t, env)
	env.store.SetSearchIndexer(svc.index)

	user, _ := env.signup(t, "reader@example.com")
	book := env.addBook(t, user, "Frankenstein", "Mary Shelley")

	results, err := svc.Suggest(ctx, "franken")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, book.ID, results[0].ID)

	require.NoError(t, env.books.DeleteBook(ctx, user, book.ID))
	results, err = svc.Suggest(ctx, "franken")
	require.NoError(t, err)
	assert.Empty(t, results)
}
