// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSuiteEngine runs the behavior every engine must provide against
// engines created by newEngine.
func TestSuiteEngine(t *testing.T, newEngine func() Engine) {
	t.Run("TransactionSnapshot", func(t *testing.T) {
		engine := newEngine()
		defer engine.Close()

		tx, err := engine.Transaction()
		require.NoError(t, err)

		key := []byte("key1")
		value := []byte("value1")
		require.NoError(t, tx.Put(key, value))

		// Uncommitted writes are invisible.
		snapshot, err := engine.Snapshot()
		require.NoError(t, err)

		has, err := snapshot.Has(key)
		require.NoError(t, err)
		require.False(t, has)

		gotValue, err := snapshot.Get(key)
		require.ErrorIs(t, err, ErrNotFound)
		require.Nil(t, gotValue)
		snapshot.Release()

		require.NoError(t, tx.Commit())

		snapshot, err = engine.Snapshot()
		require.NoError(t, err)
		defer snapshot.Release()

		gotValue, err = snapshot.Get(key)
		require.NoError(t, err)
		require.Equal(t, value, gotValue)
	})

	t.Run("SnapshotIsolation", func(t *testing.T) {
		engine := newEngine()
		defer engine.Close()

		key := []byte("coin")
		tx, err := engine.Transaction()
		require.NoError(t, err)
		require.NoError(t, tx.Put(key, []byte("v1")))
		require.NoError(t, tx.Commit())

		before, err := engine.Snapshot()
		require.NoError(t, err)
		defer before.Release()

		tx, err = engine.Transaction()
		require.NoError(t, err)
		require.NoError(t, tx.Delete(key))
		require.NoError(t, tx.Commit())

		// The earlier snapshot still sees the deleted key.
		got, err := before.Get(key)
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), got)

		after, err := engine.Snapshot()
		require.NoError(t, err)
		defer after.Release()

		has, err := after.Has(key)
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("Iterator", func(t *testing.T) {
		for _, test := range []struct {
			kvs       map[string]string
			ranges    *Range
			expectkvs [][2]string
		}{
			{
				kvs:       map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"},
				ranges:    &Range{Start: []byte("key0"), Limit: []byte("key1")},
				expectkvs: nil,
			},
			{
				kvs:       map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"},
				ranges:    &Range{Start: []byte("key1"), Limit: []byte("key3")},
				expectkvs: [][2]string{{"key1", "value1"}, {"key2", "value2"}},
			},
			{
				kvs:       map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"},
				ranges:    &Range{Start: []byte("key10"), Limit: []byte("key30")},
				expectkvs: [][2]string{{"key2", "value2"}, {"key3", "value3"}},
			},
			{
				kvs:       map[string]string{"key10": "value10", "key11": "value11", "key20": "value20", "key21": "value21"},
				ranges:    BytesPrefix([]byte("key1")),
				expectkvs: [][2]string{{"key10", "value10"}, {"key11", "value11"}},
			},
		} {
			engine := newEngine()

			tx, err := engine.Transaction()
			require.NoError(t, err)
			for k, v := range test.kvs {
				require.NoError(t, tx.Put([]byte(k), []byte(v)))
			}
			require.NoError(t, tx.Commit())

			snapshot, err := engine.Snapshot()
			require.NoError(t, err)

			iter := snapshot.NewIterator(test.ranges)
			var idx int
			for iter.Next() {
				require.Less(t, idx, len(test.expectkvs),
					"unexpected pair %s=%s", iter.Key(), iter.Value())
				require.Equal(t, []byte(test.expectkvs[idx][0]), iter.Key())
				require.Equal(t, []byte(test.expectkvs[idx][1]), iter.Value())
				idx++
			}
			require.NoError(t, iter.Error())
			require.Equal(t, len(test.expectkvs), idx)

			iter.Release()
			snapshot.Release()
			require.NoError(t, engine.Close())
		}
	})

	t.Run("Close", func(t *testing.T) {
		engine := newEngine()

		tx, err := engine.Transaction()
		require.NoError(t, err)
		tx.Discard()
		tx.Discard()
		require.ErrorIs(t, tx.Commit(), ErrTxClosed)
		require.ErrorIs(t, tx.Put([]byte("k"), []byte("v")), ErrTxClosed)

		snapshot, err := engine.Snapshot()
		require.NoError(t, err)

		iter := snapshot.NewIterator(&Range{})
		require.NoError(t, iter.Error())
		iter.Release()
		iter.Release()

		snapshot.Release()
		snapshot.Release()
		_, err = snapshot.Get([]byte("key"))
		require.ErrorIs(t, err, ErrSnapshotReleased)

		require.NoError(t, engine.Close())
		require.ErrorIs(t, engine.Close(), ErrClosed)

		_, err = engine.Transaction()
		require.ErrorIs(t, err, ErrClosed)
		_, err = engine.Snapshot()
		require.ErrorIs(t, err, ErrClosed)
	})
}
