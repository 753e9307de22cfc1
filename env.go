package ordkv

import (
	"os"
	"sync/atomic"

	"github.com/ordkv/ordkv/internal/engine"
)

// Env is an environment handle: one data file and the transactions running
// against it. The lifecycle is linear: Create, configure, Open once, use,
// Close exactly once. Configuration calls after Open fail with ErrInvalid,
// and a second Close panics rather than corrupting engine state.
type Env struct {
	env    *engine.Env
	path   string
	closed atomic.Bool
}

// Create allocates a new unopened environment handle with default geometry.
func Create() (*Env, error) {
	env, st := engine.EnvCreate()
	if err := classify("env_create", st); err != nil {
		return nil, err
	}
	return &Env{env: env}, nil
}

// NewEnv is an alias for Create (mdbx-go naming).
func NewEnv() (*Env, error) {
	return Create()
}

// SetFlags sets (on=true) or clears (on=false) environment flags.
// Valid only before Open.
func (e *Env) SetFlags(flags uint, on bool) error {
	return classify("env_set_flags", engine.EnvSetFlags(e.env, flags, on))
}

// SetMapSize sets the target size of the data file mapping in bytes. The
// effective size is rounded up to the OS page size at Open time.
// Valid only before Open.
func (e *Env) SetMapSize(size uint64) error {
	return classify("env_set_mapsize", engine.EnvSetMapSize(e.env, size))
}

// SetMaxReaders bounds the number of concurrently active read-only
// transactions. Valid only before Open.
func (e *Env) SetMaxReaders(readers uint32) error {
	return classify("env_set_maxreaders", engine.EnvSetMaxReaders(e.env, readers))
}

// SetMaxDBs bounds the number of named sub-databases. Valid only before Open.
func (e *Env) SetMaxDBs(dbs uint32) error {
	return classify("env_set_maxdbs", engine.EnvSetMaxDBs(e.env, dbs))
}

// Open binds the environment to a filesystem path. Unless NoSubdir is set,
// path must be an existing directory and the data file is created inside it;
// a missing directory comes back as a classified errno error.
func (e *Env) Open(path string, flags uint, mode os.FileMode) error {
	if err := classify("env_open", engine.EnvOpen(e.env, path, flags, mode)); err != nil {
		return err
	}
	e.path = path
	return nil
}

// Sync flushes the data file to stable storage. With force the call does not
// return until the pages have reached the device; without it the flush is
// scheduled asynchronously.
func (e *Env) Sync(force bool) error {
	return classify("env_sync", engine.EnvSync(e.env, force))
}

// Close releases the environment. It blocks until in-flight transactions
// finish. Closing an environment twice is a caller bug and panics.
func (e *Env) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		panic("ordkv: environment closed twice")
	}
	engine.EnvClose(e.env)
}

// Path returns the path the environment was opened with, or empty if it has
// not been opened.
func (e *Env) Path() string {
	return e.path
}

// Info reports the environment's effective configuration and state.
type Info struct {
	MapSize    int64  // effective mapping size (page rounded)
	PageSize   int    // OS page size
	MaxReaders uint32
	MaxDBs     uint32
	NumReaders uint32 // currently active read-only transactions
	LastTxnID  uint64 // most recently committed transaction
	Path       string
}

// Info reports the environment's effective configuration and state.
func (e *Env) Info() (Info, error) {
	inf, st := engine.EnvInfo(e.env)
	if err := classify("env_info", st); err != nil {
		return Info{}, err
	}
	return Info{
		MapSize:    inf.MapSize,
		PageSize:   inf.PageSize,
		MaxReaders: inf.MaxReaders,
		MaxDBs:     inf.MaxDBs,
		NumReaders: inf.NumReaders,
		LastTxnID:  inf.LastTxnID,
		Path:       inf.Path,
	}, nil
}

// BeginTxn starts a transaction. A nil parent begins a root transaction;
// flags selects TxnReadOnly or TxnReadWrite. A non-nil parent begins a
// nested child of a write transaction and locks the parent until the child
// commits or aborts. A root write BeginTxn blocks until the current writer
// finishes.
func (e *Env) BeginTxn(parent *Txn, flags uint) (*Txn, error) {
	var p *engine.Txn
	if parent != nil {
		if parent.state != txnActive || parent.child != nil {
			return nil, classify("txn_begin", engine.BadTxn)
		}
		p = parent.txn
	}
	txn, st := engine.TxnBegin(e.env, p, flags)
	if err := classify("txn_begin", st); err != nil {
		return nil, err
	}
	t := &Txn{
		env:      e,
		txn:      txn,
		parent:   parent,
		readonly: flags&TxnReadOnly != 0,
	}
	if parent != nil {
		parent.child = t
	}
	return t, nil
}
