// Package engine is the storage engine behind the ordkv handle layer.
//
// The package deliberately exposes a procedural, C-style surface: a fixed set
// of entry points that operate on opaque *Env and *Txn handles and report
// every outcome as an integer Status. Callers (the ordkv wrapper) never
// inspect handle internals; they only thread handles between entry points and
// classify non-OK statuses.
//
// The engine is a miniature stand-in for an MDBX-class store: it keeps
// committed state as immutable MVCC snapshots, enforces the single-writer /
// many-readers protocol, supports one level chain of nested write
// transactions via layered write sets, and persists committed state into a
// single page-rounded memory-mapped file. B-tree paging, garbage collection
// and on-disk compatibility with other engines are not goals.
package engine

import "os"

// Environment flags. Values match the MDBX numbering so that the wrapper's
// exported constants line up with what libmdbx users expect.
const (
	// NoSubdir means the path given to EnvOpen is the data file itself,
	// not a directory containing it.
	NoSubdir uint = 0x00004000

	// ReadOnly opens the environment in read-only mode.
	ReadOnly uint = 0x00020000

	// NoMetaSync flushes commit data asynchronously.
	NoMetaSync uint = 0x00040000

	// SafeNoSync skips flushing on commit entirely.
	SafeNoSync uint = 0x00010000

	// UtterlyNoSync skips all flushing.
	UtterlyNoSync = SafeNoSync | NoMetaSync
)

// Transaction flags.
const (
	// TxnReadWrite is the default read-write transaction.
	TxnReadWrite uint = 0

	// TxnReadOnly begins a read-only transaction.
	TxnReadOnly uint = 0x20000
)

// Put flags.
const (
	// Upsert is the default insert-or-update mode.
	Upsert uint = 0

	// NoOverwrite makes Put fail with KeyExist if the key is present.
	NoOverwrite uint = 0x10
)

// DataFileName is the data file name inside an environment directory.
const DataFileName = "ordkv.dat"

// Defaults applied by EnvCreate.
const (
	DefaultMapSize    uint64 = 10 * 1024 * 1024
	DefaultMaxReaders uint32 = 126
	DefaultMaxDBs     uint32 = 16
)

// EnvCreate allocates a new environment handle in the configurable state.
func EnvCreate() (*Env, Status) {
	return newEnv(), OK
}

// EnvSetFlags sets or clears environment flags. Valid only before EnvOpen.
func EnvSetFlags(env *Env, flags uint, on bool) Status {
	return env.setFlags(flags, on)
}

// EnvSetMapSize sets the target size of the data file mapping in bytes.
// The effective size is rounded up to the OS page size at EnvOpen time.
// Valid only before EnvOpen.
func EnvSetMapSize(env *Env, size uint64) Status {
	return env.setMapSize(size)
}

// EnvSetMaxReaders bounds the number of concurrently active read-only
// transactions. Valid only before EnvOpen.
func EnvSetMaxReaders(env *Env, readers uint32) Status {
	return env.setMaxReaders(readers)
}

// EnvSetMaxDBs bounds the number of named sub-databases. Valid only before
// EnvOpen.
func EnvSetMaxDBs(env *Env, dbs uint32) Status {
	return env.setMaxDBs(dbs)
}

// EnvOpen binds the environment to a filesystem path and establishes the
// data file mapping. The parent directory must already exist; OS failures
// come back as errno statuses.
func EnvOpen(env *Env, path string, flags uint, mode os.FileMode) Status {
	return env.open(path, flags, mode)
}

// EnvSync flushes the mapped data file to stable storage. A forced sync
// waits for the pages to reach the device.
func EnvSync(env *Env, force bool) Status {
	return env.sync(force)
}

// EnvClose releases the mapping and the handle. It never fails. Close waits
// for in-flight transactions to finish before unmapping.
func EnvClose(env *Env) {
	env.close()
}

// EnvInfo reports the environment's effective configuration and state.
func EnvInfo(env *Env) (Info, Status) {
	return env.info()
}

// TxnBegin starts a transaction against env's current snapshot. A non-nil
// parent makes the new transaction a nested child of a write transaction;
// the engine does not support read-only nesting. A write TxnBegin blocks
// until no other write transaction is active.
func TxnBegin(env *Env, parent *Txn, flags uint) (*Txn, Status) {
	return env.beginTxn(parent, flags)
}

// TxnEnv returns the environment the transaction was begun against.
func TxnEnv(txn *Txn) *Env {
	if txn == nil {
		return nil
	}
	return txn.env
}

// TxnID returns the snapshot identifier the transaction observes, or zero
// for a reset or consumed handle.
func TxnID(txn *Txn) uint64 {
	return txn.id()
}

// TxnCommit consumes the transaction. Child commits merge into the parent's
// write set; root commits publish a new snapshot and persist it. On failure
// the transaction's state is discarded as if aborted.
func TxnCommit(txn *Txn) Status {
	return txn.commit()
}

// TxnAbort consumes the transaction and discards its writes. It never fails
// and tolerates handles that were already consumed.
func TxnAbort(txn *Txn) {
	txn.abort()
}

// TxnReset releases a read-only transaction's snapshot and reader slot while
// keeping the handle allocated for TxnRenew. It never fails; misuse on a
// write or consumed handle is ignored.
func TxnReset(txn *Txn) {
	txn.reset()
}

// TxnRenew reacquires a fresh snapshot for a reset read-only transaction.
func TxnRenew(txn *Txn) Status {
	return txn.renew()
}

// Get returns the value bound to key in the transaction's view.
func Get(txn *Txn, key []byte) ([]byte, Status) {
	return txn.get(key)
}

// Put binds key to val in a write transaction.
func Put(txn *Txn, key, val []byte, flags uint) Status {
	return txn.put(key, val, flags)
}

// Del removes key from a write transaction's view.
func Del(txn *Txn, key []byte) Status {
	return txn.del(key)
}
