package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/ports"
)

type recordDigestStore interface {
	ports.RecordStore
	ports.DigestStore
}

var capturedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func acceptedItem(url, title string) domain.AcceptedItem {
	return domain.AcceptedItem{
		Title:         title,
		URL:           url,
		SourceID:      "hn",
		RelevanceNote: "matches distributed systems",
		Summary:       "short summary",
		CapturedAt:    capturedAt,
	}
}

// runStoreContract checks the behaviour every RecordStore/DigestStore
// backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) recordDigestStore) {
	t.Run("empty day", func(t *testing.T) {
		store := newStore(t)
		record, err := store.Read(context.Background(), "2026-03-14")
		require.NoError(t, err)
		assert.Equal(t, domain.DayKey("2026-03-14"), record.Day)
		assert.Equal(t, 0, record.Len())
	})

	t.Run("sequential double append", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		day := domain.DayKey("2026-03-14")

		written, err := store.Append(ctx, day, acceptedItem("https://a.example/u1", "First [draft]"))
		require.NoError(t, err)
		assert.True(t, written)

		before, err := store.Read(ctx, day)
		require.NoError(t, err)

		written, err = store.Append(ctx, day, acceptedItem("https://a.example/u1/", "Again"))
		require.NoError(t, err)
		assert.False(t, written)

		after, err := store.Read(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, before.Len(), after.Len())
		require.Len(t, after.Items, 1)

		got := after.Items[0]
		assert.Equal(t, "First [draft]", got.Title)
		assert.Equal(t, "https://a.example/u1", got.URL)
		assert.Equal(t, "hn", got.SourceID)
		assert.Equal(t, "matches distributed systems", got.RelevanceNote)
		assert.Equal(t, "short summary", got.Summary)
		assert.True(t, capturedAt.Equal(got.CapturedAt))
		assert.Equal(t, day, got.DayKey)
	})

	t.Run("order and day isolation", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for i, u := range []string{"https://a.example/3", "https://a.example/1", "https://a.example/2"} {
			_, err := store.Append(ctx, "2026-03-14", acceptedItem(u, fmt.Sprintf("item %d", i)))
			require.NoError(t, err)
		}
		written, err := store.Append(ctx, "2026-03-15", acceptedItem("https://a.example/1", "next day"))
		require.NoError(t, err)
		assert.True(t, written)

		record, err := store.Read(ctx, "2026-03-14")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example/3", "https://a.example/1", "https://a.example/2"}, record.URLs())
		for i, item := range record.Items {
			assert.Equal(t, fmt.Sprintf("item %d", i), item.Title)
		}

		next, err := store.Read(ctx, "2026-03-15")
		require.NoError(t, err)
		assert.Equal(t, 1, next.Len())
	})

	t.Run("whitespace inside url", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		day := domain.DayKey("2026-03-14")

		for i := 0; i < 2; i++ {
			written, err := store.Append(ctx, day, acceptedItem("https://a.example/search?q=go\tlang  x", "search"))
			require.NoError(t, err)
			assert.Equal(t, i == 0, written)
		}

		record, err := store.Read(ctx, day)
		require.NoError(t, err)
		require.Len(t, record.Items, 1)
		assert.Equal(t, "https://a.example/search?q=go%09lang%20%20x", record.Items[0].URL)
		assert.Equal(t, record.Items[0].URL, record.Items[0].Key())
	})

	t.Run("concurrent appends", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		day := domain.DayKey("2026-03-14")

		var (
			wg          sync.WaitGroup
			sameWritten atomic.Int32
		)
		for i := 0; i < 16; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				written, err := store.Append(ctx, day, acceptedItem(fmt.Sprintf("https://a.example/distinct/%d", i), "distinct"))
				assert.NoError(t, err)
				assert.True(t, written)
			}(i)
			go func() {
				defer wg.Done()
				written, err := store.Append(ctx, day, acceptedItem("https://a.example/shared", "shared"))
				assert.NoError(t, err)
				if written {
					sameWritten.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), sameWritten.Load())

		record, err := store.Read(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 17, record.Len())
	})

	t.Run("invalid day", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Append(context.Background(), "../../etc", acceptedItem("https://a.example/x", "x"))
		assert.True(t, domain.IsConfig(err))
	})

	t.Run("digest replace", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		day := domain.DayKey("2026-03-14")

		_, err := store.Load(ctx, day)
		assert.True(t, errors.Is(err, domain.ErrDigestNotFound))

		require.NoError(t, store.Save(ctx, domain.Digest{Day: day, Body: "# old\n"}))
		require.NoError(t, store.Save(ctx, domain.Digest{Day: day, Body: "# new\n"}))

		got, err := store.Load(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, "# new\n", got.Body)
		assert.Equal(t, day, got.Day)
	})
}
