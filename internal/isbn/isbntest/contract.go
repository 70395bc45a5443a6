// Package isbntest holds the behaviour every isbn.Repository must share.
package isbntest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookpublish/internal/isbn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Code builds a valid ISBN-13 under the 978-1-7361 test prefix.
func Code(n int) string {
	body := fmt.Sprintf("97817361%04d", n)
	return body + string(isbn.CheckDigit13(body))
}

func record(bookID string, format isbn.Format, n int) isbn.Record {
	return isbn.Record{
		BookID:     bookID,
		Format:     format,
		ISBN13:     Code(n),
		AssignedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// RunRepositoryContract exercises repo. Book IDs are prefixed with the test
// name so the contract can run against shared databases.
func RunRepositoryContract(t *testing.T, repo isbn.Repository) {
	ctx := context.Background()
	book := func(s string) string { return t.Name() + "-" + s }

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.Get(ctx, book("missing"), isbn.FormatEPUB)
		assert.ErrorIs(t, err, isbn.ErrNotFound)
	})

	t.Run("insert if absent", func(t *testing.T) {
		first := record(book("a"), isbn.FormatEPUB, 1)
		first.ISBN10 = "1736100011"
		stored, created, err := repo.InsertIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, first.ISBN13, stored.ISBN13)

		stored, created, err = repo.InsertIfAbsent(ctx, record(book("a"), isbn.FormatEPUB, 2))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ISBN13, stored.ISBN13)

		got, err := repo.Get(ctx, book("a"), isbn.FormatEPUB)
		require.NoError(t, err)
		assert.Equal(t, first.ISBN13, got.ISBN13)
		assert.Equal(t, first.ISBN10, got.ISBN10)
		assert.True(t, first.AssignedAt.Equal(got.AssignedAt))
	})

	t.Run("isbn in use", func(t *testing.T) {
		_, _, err := repo.InsertIfAbsent(ctx, record(book("b"), isbn.FormatEPUB, 3))
		require.NoError(t, err)
		_, _, err = repo.InsertIfAbsent(ctx, record(book("c"), isbn.FormatPrint, 3))
		assert.ErrorIs(t, err, isbn.ErrISBNInUse)
	})

	t.Run("list", func(t *testing.T) {
		id := book("d")
		_, _, err := repo.InsertIfAbsent(ctx, record(id, isbn.FormatPrint, 4))
		require.NoError(t, err)
		_, _, err = repo.InsertIfAbsent(ctx, record(id, isbn.FormatEPUB, 5))
		require.NoError(t, err)

		got, err := repo.List(ctx, id)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, isbn.FormatEPUB, got[0].Format)
		assert.Equal(t, isbn.FormatPrint, got[1].Format)

		none, err := repo.List(ctx, book("nobody"))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("sequence", func(t *testing.T) {
		a, err := repo.NextSequence(ctx)
		require.NoError(t, err)
		b, err := repo.NextSequence(ctx)
		require.NoError(t, err)
		assert.Greater(t, b, a)
	})

	t.Run("concurrent insert", func(t *testing.T) {
		id := book("race")
		const n = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
			codes   = map[string]bool{}
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				stored, ok, err := repo.InsertIfAbsent(ctx, record(id, isbn.FormatEPUB, 100+i))
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if ok {
					created++
				}
				codes[stored.ISBN13] = true
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, created)
		assert.Len(t, codes, 1)
	})
}
