package ordkv

import "github.com/ordkv/ordkv/internal/engine"

// Environment flags. Values match the MDBX numbering.
const (
	// NoSubdir means the path given to Open is the data file itself,
	// not a directory containing it.
	NoSubdir = engine.NoSubdir

	// ReadOnly opens the environment in read-only mode.
	ReadOnly = engine.ReadOnly

	// NoMetaSync flushes commit data asynchronously.
	NoMetaSync = engine.NoMetaSync

	// SafeNoSync skips flushing on commit; durability requires an
	// explicit Env.Sync.
	SafeNoSync = engine.SafeNoSync

	// UtterlyNoSync skips all flushing.
	UtterlyNoSync = engine.UtterlyNoSync
)

// Transaction flags.
const (
	// TxnReadWrite is the default read-write transaction.
	TxnReadWrite = engine.TxnReadWrite

	// TxnReadOnly begins a read-only transaction.
	TxnReadOnly = engine.TxnReadOnly
)

// Put flags.
const (
	// Upsert is the default insert-or-update mode.
	Upsert = engine.Upsert

	// NoOverwrite makes Put fail with ErrKeyExist if the key is present.
	NoOverwrite = engine.NoOverwrite
)

// DataFileName is the data file created inside an environment directory
// when NoSubdir is not set.
const DataFileName = engine.DataFileName
