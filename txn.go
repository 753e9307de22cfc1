package ordkv

import "github.com/ordkv/ordkv/internal/engine"

// txnState tracks the wrapper-level transaction lifecycle.
type txnState int

const (
	txnActive txnState = iota
	txnReset           // read-only, snapshot released, renewable
	txnCommitted
	txnAborted
)

// Txn is a transaction handle.
//
// A handle is consumed by Commit or Abort; any later operation on it fails
// with ErrBadTxn (Abort itself stays a safe no-op, so it can be deferred
// unconditionally). While a nested child is live, the parent is locked and
// rejects all operations until the child commits or aborts. Read-only
// handles can additionally move through Reset and Renew to reuse the
// allocation across snapshots.
type Txn struct {
	env      *Env
	txn      *engine.Txn
	parent   *Txn
	child    *Txn
	readonly bool
	state    txnState
}

// Env returns the environment the transaction runs against.
func (t *Txn) Env() *Env {
	return t.env
}

// ID returns the snapshot identifier the transaction observes. Consumed and
// reset handles report zero.
func (t *Txn) ID() uint64 {
	return engine.TxnID(t.txn)
}

// IsReadOnly reports whether the transaction was begun with TxnReadOnly.
func (t *Txn) IsReadOnly() bool {
	return t.readonly
}

// usable reports whether the handle may perform data operations.
func (t *Txn) usable() bool {
	return t != nil && t.state == txnActive && t.child == nil
}

// Get returns the value bound to key in the transaction's view. A missing
// key is reported as a classified ErrNotFound.
func (t *Txn) Get(key []byte) ([]byte, error) {
	if !t.usable() {
		return nil, classify("get", engine.BadTxn)
	}
	val, st := engine.Get(t.txn, key)
	if err := classify("get", st); err != nil {
		return nil, err
	}
	return val, nil
}

// Put binds key to val. With NoOverwrite an existing key fails with a
// classified ErrKeyExist.
func (t *Txn) Put(key, val []byte, flags uint) error {
	if !t.usable() {
		return classify("put", engine.BadTxn)
	}
	return classify("put", engine.Put(t.txn, key, val, flags))
}

// Del removes key from the transaction's view.
func (t *Txn) Del(key []byte) error {
	if !t.usable() {
		return classify("del", engine.BadTxn)
	}
	return classify("del", engine.Del(t.txn, key))
}

// Commit makes the transaction's writes visible and consumes the handle.
// For a nested child the writes land in the parent's open view; for a root
// write transaction they are persisted and published. Committing a handle
// that is consumed, reset, or locked by a live child fails with ErrBadTxn.
func (t *Txn) Commit() error {
	if t.state != txnActive || t.child != nil {
		return classify("txn_commit", engine.BadTxn)
	}
	st := engine.TxnCommit(t.txn)
	if st != engine.OK {
		// The engine discards a failed commit as if aborted.
		t.consume(txnAborted)
		return classify("txn_commit", st)
	}
	t.consume(txnCommitted)
	return nil
}

// Abort discards the transaction's writes and consumes the handle. It is
// idempotent: aborting an already consumed handle is a no-op, so Abort can
// be deferred next to BeginTxn. Aborting a parent aborts its live child
// first.
func (t *Txn) Abort() {
	if t == nil || t.state == txnCommitted || t.state == txnAborted {
		return
	}
	if t.child != nil {
		t.child.Abort()
	}
	engine.TxnAbort(t.txn)
	t.consume(txnAborted)
}

// Reset releases a read-only transaction's snapshot and reader slot while
// keeping the handle for Renew. Reset on a write, consumed, or already reset
// handle is ignored.
func (t *Txn) Reset() {
	if t == nil || !t.readonly || t.state != txnActive {
		return
	}
	engine.TxnReset(t.txn)
	t.state = txnReset
}

// Renew binds a reset read-only handle to the current snapshot, so the same
// allocation observes commits made since the Reset. Renew on a handle that
// is not a reset read-only transaction fails with ErrBadTxn.
func (t *Txn) Renew() error {
	if t == nil || !t.readonly || t.state != txnReset {
		return classify("txn_renew", engine.BadTxn)
	}
	if err := classify("txn_renew", engine.TxnRenew(t.txn)); err != nil {
		return err
	}
	t.state = txnActive
	return nil
}

// consume finalizes the handle and releases the parent lock.
func (t *Txn) consume(final txnState) {
	t.state = final
	if t.parent != nil && t.parent.child == t {
		t.parent.child = nil
	}
}
