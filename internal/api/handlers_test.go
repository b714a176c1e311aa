package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbuddyapp/bookbuddy-server/internal/domain"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestSuggest(t *testing.T) {
	ts := setupTestServer(t)
	user, _ := ts.signup(t, "reader@example.com")
	ts.addBook(t, user, "Frankenstein", "Mary Shelley")
	ts.addBook(t, user, "Dune", "Frank Herbert")

	resp := ts.api.Get("/search/suggest?q=frank")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[SuggestResponse](t, resp.Body.Bytes())
	assert.Equal(t, "frank", body.Query)
	assert.Len(t, body.Suggestions, 2)

	resp = ts.api.Get("/search/suggest?q=")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[SuggestResponse](t, resp.Body.Bytes()).Suggestions)
}

func TestToggleFavourite(t *testing.T) {
	ts := setupTestServer(t)
	user, cookie := ts.signup(t, "reader@example.com")
	book := ts.addBook(t, user, "Dune", "Frank Herbert")

	resp := ts.api.Post("/books/"+book.ID+"/favourite", cookie, emptyBody())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, decode[FavouriteResponse](t, resp.Body.Bytes()).Favourite)

	resp = ts.api.Get("/favourites", cookie)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{book.ID}, decode[FavouriteIDsResponse](t, resp.Body.Bytes()).BookIDs)

	resp = ts.api.Post("/books/"+book.ID+"/favourite", cookie, emptyBody())
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[FavouriteResponse](t, resp.Body.Bytes()).Favourite)
}

func TestToggleFavourite_RequiresSession(t *testing.T) {
	ts := setupTestServer(t)
	user, _ := ts.signup(t, "reader@example.com")
	book := ts.addBook(t, user, "Dune", "Frank Herbert")

	resp := ts.api.Post("/books/"+book.ID+"/favourite", emptyBody())
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	body := decode[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "UNAUTHENTICATED", body.Code)

	resp = ts.api.Get("/favourites", "Cookie: bookbuddy_session=forged")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestToggleFavourite_UnknownBook(t *testing.T) {
	ts := setupTestServer(t)
	_, cookie := ts.signup(t, "reader@example.com")

	resp := ts.api.Post("/books/book-missing/favourite", cookie, emptyBody())
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[APIError](t, resp.Body.Bytes()).Code)
}

func TestGetRating(t *testing.T) {
	ts := setupTestServer(t)
	a, _ := ts.signup(t, "a@example.com")
	b, _ := ts.signup(t, "b@example.com")
	book := ts.addBook(t, a, "Dune", "Frank Herbert")

	ctx := context.Background()
	_, _, err := ts.reviews.WriteReview(ctx, a, book.ID, service.ReviewInput{Rating: 4, Body: "Good."})
	require.NoError(t, err)
	_, _, err = ts.reviews.WriteReview(ctx, b, book.ID, service.ReviewInput{Rating: 5, Body: "Great."})
	require.NoError(t, err)

	resp := ts.api.Get("/books/" + book.ID + "/rating")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[RatingResponse](t, resp.Body.Bytes())
	assert.InDelta(t, 4.5, body.Average, 0.001)
	assert.Equal(t, 2, body.Count)

	resp = ts.api.Get("/books/book-missing/rating")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLookup(t *testing.T) {
	ts := setupTestServer(t)
	_, cookie := ts.signup(t, "reader@example.com")

	resp := ts.api.Get("/openlibrary/lookup?title=Dune")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/openlibrary/lookup?title=Dune", cookie)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/openlibrary/lookup?title=", cookie)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	body := decode[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "INVALID_INPUT", body.Code)

	ts.lookup.meta = &domain.BookMetadata{Title: "Dune", Author: "Frank Herbert", Year: 1965}
	resp = ts.api.Get("/openlibrary/lookup?title=Dune&author=Herbert", cookie)
	require.Equal(t, http.StatusOK, resp.Code)

	meta := decode[domain.BookMetadata](t, resp.Body.Bytes())
	assert.Equal(t, 1965, meta.Year)
}

func TestStatusToCode(t *testing.T) {
	assert.Equal(t, "INVALID_INPUT", statusToCode(http.StatusUnprocessableEntity))
	assert.Equal(t, "UNAUTHENTICATED", statusToCode(http.StatusUnauthorized))
	assert.Equal(t, "UNAUTHORIZED", statusToCode(http.StatusForbidden))
	assert.Equal(t, "RATE_LIMITED", statusToCode(http.StatusTooManyRequests))
	assert.Equal(t, "INTERNAL", statusToCode(http.StatusBadGateway))
}
