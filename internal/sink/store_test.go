package sink_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kepixel/kepixel-go/internal/sink"
)

func stores(t *testing.T) map[string]sink.Store {
	t.Helper()
	sqlite, err := sink.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]sink.Store{
		"memory": sink.NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_SaveList(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first, err := store.Save(ctx, sink.Record{Kind: sink.KindIdentify, AppID: "app-1", UserID: "u1", Body: []byte(`{}`)})
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)
			assert.False(t, first.Received.IsZero())

			_, err = store.Save(ctx, sink.Record{Kind: sink.KindTrack, AppID: "app-1", Event: "Login", Body: []byte(`{"event":"Login"}`)})
			require.NoError(t, err)
			_, err = store.Save(ctx, sink.Record{Kind: sink.KindTrack, AppID: "app-2", Event: "Sign Up"})
			require.NoError(t, err)

			all, err := store.List(ctx, sink.Filter{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, first.ID, all[0].ID)

			tracks, err := store.List(ctx, sink.Filter{Kind: sink.KindTrack, AppID: "app-1"})
			require.NoError(t, err)
			require.Len(t, tracks, 1)
			assert.Equal(t, "Login", tracks[0].Event)
			assert.JSONEq(t, `{"event":"Login"}`, string(tracks[0].Body))

			limited, err := store.List(ctx, sink.Filter{Limit: 2})
			require.NoError(t, err)
			assert.Len(t, limited, 2)

			none, err := store.List(ctx, sink.Filter{Kind: sink.KindBeacon})
			require.NoError(t, err)
			assert.NotNil(t, none)
			assert.Empty(t, none)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Close())
			require.NoError(t, store.Close())

			_, err := store.Save(ctx, sink.Record{Kind: sink.KindTrack})
			assert.ErrorIs(t, err, sink.ErrStoreClosed)
			_, err = store.List(ctx, sink.Filter{})
			assert.ErrorIs(t, err, sink.ErrStoreClosed)
		})
	}
}

func TestStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			const n = 40
			var wg sync.WaitGroup
			for range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := store.Save(ctx, sink.Record{Kind: sink.KindBeacon, AppID: "app"})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			all, err := store.List(ctx, sink.Filter{AppID: "app"})
			require.NoError(t, err)
			assert.Len(t, all, n)
		})
	}
}

func TestSQLiteStore_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sink.db")

	store1, err := sink.NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = store1.Save(ctx, sink.Record{Kind: sink.KindTrack, AppID: "app-1", Event: "Login"})
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	store2, err := sink.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store2.Close()

	records, err := store2.List(ctx, sink.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Login", records[0].Event)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := sink.NewSQLiteStore("/nonexistent/path/sink.db")
	assert.Error(t, err)
}
