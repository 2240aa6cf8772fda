package books

import (
	"context"
	"errors"
	"testing"
	"time"

	"governance-gateway/middleware/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 19, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *MemoryStore, title, author string, at time.Time) Book {
	t.Helper()
	b, err := s.Create(context.Background(), Book{Title: title, Author: author, CreatedAt: at, UpdatedAt: at})
	require.NoError(t, err)
	return b
}

func storageTag(t *testing.T, err error) failure.StorageTag {
	t.Helper()
	var sf *failure.StorageFault
	require.True(t, errors.As(err, &sf), "expected StorageFault, got %v", err)
	return sf.Tag
}

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	b := seed(t, s, "Dune", "Frank Herbert", t0)
	assert.Equal(t, int64(1), b.ID)

	got, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	title := "Dune Messiah"
	upd, err := s.Update(ctx, b.ID, UpdateInput{Title: &title}, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", upd.Title)
	assert.Equal(t, "Frank Herbert", upd.Author)
	assert.Equal(t, t0.Add(time.Hour), upd.UpdatedAt)

	require.NoError(t, s.Delete(ctx, b.ID))
	_, err = s.Get(ctx, b.ID)
	assert.Equal(t, failure.TagRecordMissing, storageTag(t, err))
}

func TestMemoryStore_Faults(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, "Dune", "Frank Herbert", t0)
	other := seed(t, s, "Emma", "Jane Austen", t0)

	_, err := s.Create(ctx, Book{Title: "dune", Author: "frank herbert"})
	assert.Equal(t, failure.TagUniqueConflict, storageTag(t, err))

	title := "Dune"
	author := "Frank Herbert"
	_, err = s.Update(ctx, other.ID, UpdateInput{Title: &title, Author: &author}, t0)
	assert.Equal(t, failure.TagUniqueConflict, storageTag(t, err))

	assert.Equal(t, failure.TagRecordMissing, storageTag(t, s.Delete(ctx, 99)))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Get(cancelled, 1)
	assert.Equal(t, failure.TagUnknown, storageTag(t, err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_ListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i, title := range []string{"Dune", "Dune Messiah", "Children of Dune", "Emma"} {
		author := "Frank Herbert"
		if title == "Emma" {
			author = "Jane Austen"
		}
		seed(t, s, title, author, t0.Add(time.Duration(i)*time.Minute))
	}

	rows, total, err := s.List(ctx, Filter{Author: "herbert"}, Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 2)
	// mais novo primeiro
	assert.Equal(t, "Children of Dune", rows[0].Title)
	assert.Equal(t, "Dune Messiah", rows[1].Title)

	rows, total, err = s.List(ctx, Filter{Author: "herbert"}, Page{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dune", rows[0].Title)

	rows, _, err = s.List(ctx, Filter{}, Page{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
