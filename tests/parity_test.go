//go:build cgo

// Package tests contains behavioral parity tests between ordkv and libmdbx
// (via mdbx-go). The data files are not interchangeable; these tests check
// that the two stacks classify the same situations the same way: missing
// keys, overwrite conflicts, snapshot isolation and reopen persistence.
package tests

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ordkv/ordkv"

	mdbx "github.com/erigontech/mdbx-go/mdbx"
)

// withLibmdbx runs fn inside a libmdbx write transaction on the root DBI.
func withLibmdbx(t *testing.T, path string, fn func(txn *mdbx.Txn, dbi mdbx.DBI)) {
	t.Helper()

	// Lock OS thread for mdbx-go transaction safety
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	env, err := mdbx.NewEnv(mdbx.Label("parity"))
	require.NoError(t, err)
	defer env.Close()

	env.SetGeometry(-1, -1, 1<<30, -1, -1, 4096)
	require.NoError(t, env.Open(path, mdbx.Create, 0644))

	txn, err := env.BeginTxn(nil, 0)
	require.NoError(t, err)

	dbi, err := txn.OpenRoot(0)
	if err != nil {
		txn.Abort()
		t.Fatal(err)
	}

	fn(txn, dbi)

	_, err = txn.Commit()
	require.NoError(t, err)
}

// withOrdkv runs fn inside an ordkv write transaction.
func withOrdkv(t *testing.T, path string, fn func(txn *ordkv.Txn)) {
	t.Helper()

	env, err := ordkv.Create()
	require.NoError(t, err)
	defer env.Close()

	require.NoError(t, env.Open(path, 0, 0644))
	require.NoError(t, env.Update(func(txn *ordkv.Txn) error {
		fn(txn)
		return nil
	}))
}

func TestNotFoundParity(t *testing.T) {
	mdbxDir := t.TempDir()
	ordkvDir := t.TempDir()

	var mdbxMissing, ordkvMissing bool

	withLibmdbx(t, mdbxDir, func(txn *mdbx.Txn, dbi mdbx.DBI) {
		_, err := txn.Get(dbi, []byte("absent"))
		require.Error(t, err)
		mdbxMissing = mdbx.IsNotFound(err)
	})

	withOrdkv(t, ordkvDir, func(txn *ordkv.Txn) {
		_, err := txn.Get([]byte("absent"))
		require.Error(t, err)
		ordkvMissing = ordkv.IsNotFound(err)
	})

	require.True(t, mdbxMissing, "libmdbx should classify a missing key as not-found")
	require.True(t, ordkvMissing, "ordkv should classify a missing key as not-found")
}

func TestKeyExistParity(t *testing.T) {
	mdbxDir := t.TempDir()
	ordkvDir := t.TempDir()

	var mdbxExists, ordkvExists bool

	withLibmdbx(t, mdbxDir, func(txn *mdbx.Txn, dbi mdbx.DBI) {
		require.NoError(t, txn.Put(dbi, []byte("k"), []byte("v1"), 0))
		err := txn.Put(dbi, []byte("k"), []byte("v2"), mdbx.NoOverwrite)
		require.Error(t, err)
		mdbxExists = mdbx.IsKeyExists(err)
	})

	withOrdkv(t, ordkvDir, func(txn *ordkv.Txn) {
		require.NoError(t, txn.Put([]byte("k"), []byte("v1"), 0))
		err := txn.Put([]byte("k"), []byte("v2"), ordkv.NoOverwrite)
		require.Error(t, err)
		ordkvExists = ordkv.IsKeyExist(err)
	})

	require.True(t, mdbxExists, "libmdbx should classify an overwrite conflict as key-exist")
	require.True(t, ordkvExists, "ordkv should classify an overwrite conflict as key-exist")
}

func TestErrorCodeNumberingParity(t *testing.T) {
	// The classifier codes carry MDBX numbering, so values logged by either
	// stack mean the same thing.
	require.EqualValues(t, int(mdbx.KeyExist), int(ordkv.ErrKeyExist))
	require.EqualValues(t, int(mdbx.NotFound), int(ordkv.ErrNotFound))
	require.EqualValues(t, int(mdbx.MapFull), int(ordkv.ErrMapFull))
	require.EqualValues(t, int(mdbx.ReadersFull), int(ordkv.ErrReadersFull))
	require.EqualValues(t, int(mdbx.BadTxn), int(ordkv.ErrBadTxn))
}

func TestReopenParity(t *testing.T) {
	entries := map[string]string{
		"key1":  "value1",
		"key2":  "value2",
		"hello": "world",
	}

	t.Run("libmdbx", func(t *testing.T) {
		dir := t.TempDir()
		withLibmdbx(t, dir, func(txn *mdbx.Txn, dbi mdbx.DBI) {
			for k, v := range entries {
				require.NoError(t, txn.Put(dbi, []byte(k), []byte(v), 0))
			}
		})
		withLibmdbx(t, dir, func(txn *mdbx.Txn, dbi mdbx.DBI) {
			for k, v := range entries {
				val, err := txn.Get(dbi, []byte(k))
				require.NoError(t, err)
				require.Equal(t, v, string(val))
			}
		})
	})

	t.Run("ordkv", func(t *testing.T) {
		dir := t.TempDir()
		withOrdkv(t, dir, func(txn *ordkv.Txn) {
			for k, v := range entries {
				require.NoError(t, txn.Put([]byte(k), []byte(v), 0))
			}
		})
		withOrdkv(t, dir, func(txn *ordkv.Txn) {
			for k, v := range entries {
				val, err := txn.Get([]byte(k))
				require.NoError(t, err)
				require.Equal(t, v, string(val))
			}
		})
	})
}

func TestSnapshotIsolationParity(t *testing.T) {
	t.Run("libmdbx", func(t *testing.T) {
		dir := t.TempDir()

		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		env, err := mdbx.NewEnv(mdbx.Label("parity"))
		require.NoError(t, err)
		defer env.Close()
		env.SetGeometry(-1, -1, 1<<30, -1, -1, 4096)
		require.NoError(t, env.Open(dir, mdbx.Create, 0644))

		reader, err := env.BeginTxn(nil, mdbx.Readonly)
		require.NoError(t, err)
		defer reader.Abort()
		rdbi, err := reader.OpenRoot(0)
		require.NoError(t, err)

		writer, err := env.BeginTxn(nil, 0)
		require.NoError(t, err)
		wdbi, err := writer.OpenRoot(0)
		require.NoError(t, err)
		require.NoError(t, writer.Put(wdbi, []byte("k"), []byte("v"), 0))
		_, err = writer.Commit()
		require.NoError(t, err)

		_, err = reader.Get(rdbi, []byte("k"))
		require.True(t, mdbx.IsNotFound(err), "reader must not see the later commit")
	})

	t.Run("ordkv", func(t *testing.T) {
		dir := t.TempDir()

		env, err := ordkv.Create()
		require.NoError(t, err)
		defer env.Close()
		require.NoError(t, env.Open(dir, 0, 0644))

		reader, err := env.BeginTxn(nil, ordkv.TxnReadOnly)
		require.NoError(t, err)
		defer reader.Abort()

		require.NoError(t, env.Update(func(txn *ordkv.Txn) error {
			return txn.Put([]byte("k"), []byte("v"), 0)
		}))

		_, err = reader.Get([]byte("k"))
		require.True(t, ordkv.IsNotFound(err), "reader must not see the later commit")
	})
}
