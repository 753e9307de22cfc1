package engine

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/ordkv/ordkv/internal/mmap"
)

// sysPageSize is the system's memory page size, cached at init time.
// Mapping sizes are rounded up to this granularity.
var sysPageSize = int64(syscall.Getpagesize())

// alignToSysPageSize rounds up a size to the system page size.
func alignToSysPageSize(size int64) int64 {
	if size%sysPageSize == 0 {
		return size
	}
	return ((size / sysPageSize) + 1) * sysPageSize
}

// snapshot is one committed MVCC version of the store. records is immutable
// once the snapshot has been published via Env.current.
type snapshot struct {
	txnID   uint64
	records map[string][]byte
}

// Env is the environment handle: one data file, its mapping, the committed
// snapshot chain and the transaction protocol state.
type Env struct {
	mu     sync.RWMutex // guards config fields and open/close state
	opened bool
	closed bool

	path  string
	flags uint

	// Pre-open configuration
	mapSize    uint64
	maxReaders uint32
	maxDBs     uint32

	file    *os.File
	dataMap *mmap.Map

	// Most recently committed snapshot (atomic for concurrent readers)
	current atomic.Pointer[snapshot]

	// Single-writer protocol
	writerMu     sync.Mutex
	writerCond   *sync.Cond
	writerActive bool

	// Reader slot accounting
	readerMu sync.Mutex
	readers  uint32

	// Close waits for in-flight transactions before unmapping
	txnWg sync.WaitGroup
}

func newEnv() *Env {
	e := &Env{
		mapSize:    DefaultMapSize,
		maxReaders: DefaultMaxReaders,
		maxDBs:     DefaultMaxDBs,
	}
	e.writerCond = sync.NewCond(&e.writerMu)
	return e
}

func (e *Env) isOpen() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opened && !e.closed
}

func (e *Env) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// configure runs fn under the config lock, rejecting calls once the
// environment has been opened or closed.
func (e *Env) configure(fn func()) Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened || e.closed {
		return Invalid
	}
	fn()
	return OK
}

func (e *Env) setFlags(flags uint, on bool) Status {
	return e.configure(func() {
		if on {
			e.flags |= flags
		} else {
			e.flags &^= flags
		}
	})
}

func (e *Env) setMapSize(size uint64) Status {
	return e.configure(func() {
		if size > 0 {
			e.mapSize = size
		}
	})
}

func (e *Env) setMaxReaders(readers uint32) Status {
	if readers == 0 {
		return Invalid
	}
	return e.configure(func() {
		e.maxReaders = readers
	})
}

func (e *Env) setMaxDBs(dbs uint32) Status {
	return e.configure(func() {
		e.maxDBs = dbs
	})
}

func (e *Env) open(path string, flags uint, mode os.FileMode) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opened || e.closed {
		return Invalid
	}

	merged := e.flags | flags

	// The parent directory must already exist; the engine never creates it.
	dataPath := path
	if merged&NoSubdir == 0 {
		fi, err := os.Stat(path)
		if err != nil {
			return errnoStatus(err)
		}
		if !fi.IsDir() {
			return Status(syscall.ENOTDIR)
		}
		dataPath = filepath.Join(path, DataFileName)
	}

	readonly := merged&ReadOnly != 0
	oflag := os.O_RDWR | os.O_CREATE
	if readonly {
		oflag = os.O_RDONLY
	}

	f, err := os.OpenFile(dataPath, oflag, mode)
	if err != nil {
		return errnoStatus(err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return errnoStatus(err)
	}
	fileSize := fi.Size()

	if readonly && fileSize < headerSize {
		f.Close()
		return Invalid
	}

	// Effective mapping: configured map size rounded up to page granularity,
	// or the existing file if it is already larger.
	mapLen := alignToSysPageSize(int64(e.mapSize))
	if fileSize > mapLen {
		mapLen = alignToSysPageSize(fileSize)
	}
	if readonly {
		mapLen = fileSize
	} else if fileSize < mapLen {
		if err := f.Truncate(mapLen); err != nil {
			f.Close()
			return errnoStatus(err)
		}
	}

	m, err := mmap.New(int(f.Fd()), 0, int(mapLen), !readonly)
	if err != nil {
		f.Close()
		return errnoStatus(err)
	}

	var snap *snapshot
	if fileSize == 0 {
		snap = &snapshot{txnID: initialTxnID, records: map[string][]byte{}}
		if st := writeFile(m, snap); st != OK {
			m.Close()
			f.Close()
			return st
		}
		if err := m.Sync(); err != nil {
			m.Close()
			f.Close()
			return errnoStatus(err)
		}
	} else {
		var st Status
		snap, st = readFile(m.Data())
		if st != OK {
			m.Close()
			f.Close()
			return st
		}
	}

	e.path = path
	e.flags = merged
	e.file = f
	e.dataMap = m
	e.current.Store(snap)
	e.opened = true
	return OK
}

func (e *Env) sync(force bool) Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.opened || e.closed || e.dataMap == nil {
		return Invalid
	}

	var err error
	if force {
		err = e.dataMap.Sync()
	} else {
		err = e.dataMap.SyncAsync()
	}
	if err != nil {
		return errnoStatus(err)
	}
	return OK
}

// close releases the mapping and file. Waits for in-flight transactions so
// no reader observes an unmapped region.
func (e *Env) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	// Wake writers blocked on the single-writer slot so they can observe
	// the closed state instead of waiting forever.
	e.writerMu.Lock()
	e.writerCond.Broadcast()
	e.writerMu.Unlock()

	e.txnWg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dataMap != nil {
		e.dataMap.Close()
		e.dataMap = nil
	}
	if e.file != nil {
		e.file.Close()
		e.file = nil
	}
}

// Info reports the environment's effective configuration and state.
type Info struct {
	MapSize    int64
	PageSize   int
	MaxReaders uint32
	MaxDBs     uint32
	NumReaders uint32
	LastTxnID  uint64
	Path       string
}

func (e *Env) info() (Info, Status) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return Info{}, Invalid
	}

	inf := Info{
		PageSize:   int(sysPageSize),
		MaxReaders: e.maxReaders,
		MaxDBs:     e.maxDBs,
		Path:       e.path,
	}
	if e.dataMap != nil {
		inf.MapSize = e.dataMap.Size()
	}
	if snap := e.current.Load(); snap != nil {
		inf.LastTxnID = snap.txnID
	}
	e.readerMu.Lock()
	inf.NumReaders = e.readers
	e.readerMu.Unlock()
	return inf, OK
}

func (e *Env) beginTxn(parent *Txn, flags uint) (*Txn, Status) {
	if e == nil || !e.isOpen() {
		return nil, Invalid
	}

	if parent != nil {
		// Nesting is write-only and single-child.
		if flags&TxnReadOnly != 0 || parent.env != e || parent.readonly ||
			parent.done || parent.child != nil {
			return nil, BadTxn
		}
		child := &Txn{
			env:    e,
			parent: parent,
			writes: make(map[string][]byte),
			dels:   make(map[string]struct{}),
		}
		parent.child = child
		e.txnWg.Add(1)
		return child, OK
	}

	if flags&TxnReadOnly != 0 {
		if st := e.acquireReaderSlot(); st != OK {
			return nil, st
		}
		snap := e.current.Load()
		e.txnWg.Add(1)
		return &Txn{env: e, readonly: true, snap: snap}, OK
	}

	if e.flags&ReadOnly != 0 {
		return nil, Status(syscall.EACCES)
	}

	// Block until the single writer slot is free.
	e.writerMu.Lock()
	for e.writerActive && !e.isClosed() {
		e.writerCond.Wait()
	}
	if e.isClosed() {
		e.writerMu.Unlock()
		return nil, Invalid
	}
	e.writerActive = true
	e.writerMu.Unlock()

	snap := e.current.Load()
	e.txnWg.Add(1)
	return &Txn{
		env:    e,
		snap:   snap,
		writes: make(map[string][]byte),
		dels:   make(map[string]struct{}),
	}, OK
}

func (e *Env) releaseWriter() {
	e.writerMu.Lock()
	e.writerActive = false
	e.writerCond.Signal()
	e.writerMu.Unlock()
}

func (e *Env) acquireReaderSlot() Status {
	e.readerMu.Lock()
	defer e.readerMu.Unlock()
	if e.readers >= e.maxReaders {
		return ReadersFull
	}
	e.readers++
	return OK
}

func (e *Env) releaseReaderSlot() {
	e.readerMu.Lock()
	e.readers--
	e.readerMu.Unlock()
}

// commitRoot applies a root write transaction: builds the next snapshot,
// persists it into the mapping per the durability flags, then publishes it.
func (e *Env) commitRoot(t *Txn) Status {
	base := t.snap
	records := make(map[string][]byte, len(base.records)+len(t.writes))
	for k, v := range base.records {
		records[k] = v
	}
	for k := range t.dels {
		delete(records, k)
	}
	for k, v := range t.writes {
		records[k] = v
	}

	next := &snapshot{txnID: base.txnID + 1, records: records}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed || e.dataMap == nil {
		return Invalid
	}
	if st := writeFile(e.dataMap, next); st != OK {
		return st
	}
	switch {
	case e.flags&SafeNoSync != 0:
		// Durability deferred to an explicit EnvSync.
	case e.flags&NoMetaSync != 0:
		if err := e.dataMap.SyncAsync(); err != nil {
			return errnoStatus(err)
		}
	default:
		if err := e.dataMap.Sync(); err != nil {
			return errnoStatus(err)
		}
	}
	e.current.Store(next)
	return OK
}
