package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := InitializeRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	s := NewRedisStore(client)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSQLiteTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "homework.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func storeBackends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"redis":  newRedisTestStore,
		"sqlite": newSQLiteTestStore,
	}
}

func TestStoreContract(t *testing.T) {
	for name, newStore := range storeBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			raw, err := s.Read(ctx, KeyClasses)
			require.NoError(t, err)
			assert.Nil(t, raw, "absent key")

			require.NoError(t, s.Write(ctx, map[string][]byte{
				KeyClasses:  []byte(`[{"id":"c1","name":"3B"}]`),
				KeyStudents: []byte(`[]`),
			}))

			raw, err = s.Read(ctx, KeyClasses)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":"c1","name":"3B"}]`, string(raw))

			require.NoError(t, s.Write(ctx, map[string][]byte{KeyClasses: []byte(`[]`)}))
			raw, err = s.Read(ctx, KeyClasses)
			require.NoError(t, err)
			assert.Equal(t, "[]", string(raw))

			snap, err := s.Snapshot(ctx, KeyClasses, KeyStudents, KeyRecords)
			require.NoError(t, err)
			assert.Equal(t, "[]", string(snap[KeyClasses]))
			assert.Equal(t, "[]", string(snap[KeyStudents]))
			assert.Nil(t, snap[KeyRecords])

			require.NoError(t, s.Remove(ctx, KeyClasses, KeyStudents, KeyPeriods))
			raw, err = s.Read(ctx, KeyStudents)
			require.NoError(t, err)
			assert.Nil(t, raw)
		})
	}
}

func TestReadCollection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := readCollection[string](ctx, s, "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	require.NoError(t, s.Write(ctx, map[string][]byte{"nulled": []byte("null")}))
	got, err = readCollection[string](ctx, s, "nulled")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	require.NoError(t, s.Write(ctx, map[string][]byte{"broken": []byte("{")}))
	_, err = readCollection[string](ctx, s, "broken")
	assert.Error(t, err)
}

func TestWriteCollectionNilIsEmptyArray(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, writeCollection[string](ctx, s, "k", nil))

	raw, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
