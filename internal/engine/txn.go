package engine

import "syscall"

// Txn is a transaction handle. A read-only transaction pins one committed
// snapshot. A write transaction layers a private write set over its base:
// the committed snapshot for a root, the parent's view for a nested child.
type Txn struct {
	env      *Env
	parent   *Txn
	child    *Txn
	readonly bool

	done    bool // consumed by commit/abort
	inReset bool // read-only: slot released, awaiting renew

	snap   *snapshot // read view, or write base for a root write txn
	writes map[string][]byte
	dels   map[string]struct{}
}

// usable reports whether the handle may perform work: not consumed, not
// reset, and not locked by a live child.
func (t *Txn) usable() bool {
	return t != nil && !t.done && !t.inReset && t.child == nil
}

func (t *Txn) id() uint64 {
	if t == nil || t.done {
		return 0
	}
	if t.readonly {
		if t.inReset || t.snap == nil {
			return 0
		}
		return t.snap.txnID
	}
	root := t
	for root.parent != nil {
		root = root.parent
	}
	return root.snap.txnID + 1
}

func (t *Txn) get(key []byte) ([]byte, Status) {
	if !t.usable() {
		return nil, BadTxn
	}

	k := string(key)
	if t.readonly {
		if v, ok := t.snap.records[k]; ok {
			return v, OK
		}
		return nil, NotFound
	}

	// Walk the write-set chain down to the root's base snapshot.
	for cur := t; cur != nil; cur = cur.parent {
		if _, ok := cur.dels[k]; ok {
			return nil, NotFound
		}
		if v, ok := cur.writes[k]; ok {
			return v, OK
		}
		if cur.parent == nil {
			if v, ok := cur.snap.records[k]; ok {
				return v, OK
			}
		}
	}
	return nil, NotFound
}

func (t *Txn) put(key, val []byte, flags uint) Status {
	if !t.usable() {
		return BadTxn
	}
	if t.readonly {
		return Status(syscall.EACCES)
	}

	if flags&NoOverwrite != 0 {
		if _, st := t.get(key); st == OK {
			return KeyExist
		}
	}

	k := string(key)
	v := make([]byte, len(val))
	copy(v, val)
	t.writes[k] = v
	delete(t.dels, k)
	return OK
}

func (t *Txn) del(key []byte) Status {
	if !t.usable() {
		return BadTxn
	}
	if t.readonly {
		return Status(syscall.EACCES)
	}
	if _, st := t.get(key); st != OK {
		return st
	}

	k := string(key)
	delete(t.writes, k)
	t.dels[k] = struct{}{}
	return OK
}

func (t *Txn) commit() Status {
	if t == nil || t.done || t.child != nil {
		return BadTxn
	}

	if t.readonly {
		// Committing a read transaction just releases its snapshot.
		if !t.inReset {
			t.env.releaseReaderSlot()
		}
		t.finish()
		return OK
	}

	if t.parent != nil {
		// Merge the child's write set into the parent's open view.
		for k := range t.dels {
			delete(t.parent.writes, k)
			t.parent.dels[k] = struct{}{}
		}
		for k, v := range t.writes {
			t.parent.writes[k] = v
			delete(t.parent.dels, k)
		}
		t.finish()
		return OK
	}

	st := t.env.commitRoot(t)
	t.env.releaseWriter()
	t.finish()
	return st
}

func (t *Txn) abort() {
	if t == nil || t.done {
		return
	}
	// Aborting a parent takes any live child down with it.
	if t.child != nil {
		t.child.abort()
	}

	if t.readonly {
		if !t.inReset {
			t.env.releaseReaderSlot()
		}
		t.finish()
		return
	}

	if t.parent == nil {
		t.env.releaseWriter()
	}
	t.finish()
}

func (t *Txn) reset() {
	if t == nil || t.done || !t.readonly || t.inReset {
		return
	}
	t.env.releaseReaderSlot()
	t.snap = nil
	t.inReset = true
}

func (t *Txn) renew() Status {
	if t == nil || t.done || !t.readonly || !t.inReset {
		return BadTxn
	}
	if !t.env.isOpen() {
		return Invalid
	}
	if st := t.env.acquireReaderSlot(); st != OK {
		return st
	}
	t.snap = t.env.current.Load()
	t.inReset = false
	return OK
}

// finish consumes the handle and releases the parent lock.
func (t *Txn) finish() {
	t.done = true
	if t.parent != nil {
		t.parent.child = nil
	}
	t.snap = nil
	t.writes = nil
	t.dels = nil
	t.env.txnWg.Done()
}
