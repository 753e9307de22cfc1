//go:build cgo

package benchmarks

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	mdbxgo "github.com/erigontech/mdbx-go/mdbx"
	"github.com/tecbot/gorocksdb"
	bolt "go.etcd.io/bbolt"

	"github.com/ordkv/ordkv"
)

// Cached benchmark database directory
const benchCacheDir = "testdata/benchdb"

var (
	cacheMu   sync.Mutex
	ordkvEnvs = make(map[string]*ordkv.Env)
	mdbxEnvs  = make(map[string]*mdbxgo.Env)
	boltDBs   = make(map[string]*bolt.DB)
	rocksDBs  = make(map[string]*gorocksdb.DB)
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// getCachedOrdkvEnv returns a cached pre-populated ordkv environment,
// creating it if needed.
func getCachedOrdkvEnv(b *testing.B, size int) *ordkv.Env {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("ordkv_%d", size)
	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_ordkv.db", size))

	if env, ok := ordkvEnvs[key]; ok {
		return env
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	env, err := ordkv.Create()
	if err != nil {
		b.Fatal(err)
	}
	if err := env.SetMapSize(256 * 1024 * 1024); err != nil {
		b.Fatal(err)
	}
	if err := env.Open(path, ordkv.NoSubdir|ordkv.SafeNoSync, 0644); err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached ordkv DB with %d keys...", size)
		populateOrdkv(b, env, size)
	} else {
		b.Logf("Using cached ordkv DB with %d keys", size)
	}

	ordkvEnvs[key] = env
	return env
}

func populateOrdkv(b *testing.B, env *ordkv.Env, numKeys int) {
	key := make([]byte, 8)
	val := make([]byte, 32)

	if err := env.Update(func(txn *ordkv.Txn) error {
		for i := 0; i < numKeys; i++ {
			binary.BigEndian.PutUint64(key, uint64(i))
			binary.BigEndian.PutUint64(val, uint64(i))
			if err := txn.Put(key, val, ordkv.Upsert); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		b.Fatal(err)
	}
}

// getCachedMdbxEnv returns a cached pre-populated libmdbx environment,
// creating it if needed.
func getCachedMdbxEnv(b *testing.B, size int) *mdbxgo.Env {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("mdbx_%d", size)
	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_mdbx.db", size))

	if env, ok := mdbxEnvs[key]; ok {
		return env
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	runtime.LockOSThread()
	env, err := mdbxgo.NewEnv(mdbxgo.Label("bench"))
	if err != nil {
		b.Fatal(err)
	}
	env.SetGeometry(-1, -1, 1<<32, -1, -1, 4096)
	if err := env.Open(path, mdbxgo.NoSubdir|mdbxgo.NoMetaSync, 0644); err != nil {
		b.Fatal(err)
	}
	runtime.UnlockOSThread()

	if !exists {
		b.Logf("Creating cached mdbx DB with %d keys...", size)
		populateMdbx(b, env, size)
	} else {
		b.Logf("Using cached mdbx DB with %d keys", size)
	}

	mdbxEnvs[key] = env
	return env
}

func populateMdbx(b *testing.B, env *mdbxgo.Env, numKeys int) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		b.Fatal(err)
	}
	dbi, err := txn.OpenRoot(0)
	if err != nil {
		txn.Abort()
		b.Fatal(err)
	}

	key := make([]byte, 8)
	val := make([]byte, 32)
	for i := 0; i < numKeys; i++ {
		binary.BigEndian.PutUint64(key, uint64(i))
		binary.BigEndian.PutUint64(val, uint64(i))
		if err := txn.Put(dbi, key, val, mdbxgo.Upsert); err != nil {
			txn.Abort()
			b.Fatal(err)
		}
	}
	if _, err := txn.Commit(); err != nil {
		b.Fatal(err)
	}
}

// getCachedBoltDB returns a cached pre-populated BoltDB, creating it if
// needed.
func getCachedBoltDB(b *testing.B, size int) *bolt.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("bolt_%d", size)
	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_bolt.db", size))

	if db, ok := boltDBs[key]; ok {
		return db
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	db, err := bolt.Open(path, 0644, &bolt.Options{
		NoSync:         true,
		NoFreelistSync: true,
	})
	if err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached BoltDB with %d keys...", size)
		populateBolt(b, db, size)
	} else {
		b.Logf("Using cached BoltDB with %d keys", size)
	}

	boltDBs[key] = db
	return db
}

func populateBolt(b *testing.B, db *bolt.DB, numKeys int) {
	key := make([]byte, 8)
	val := make([]byte, 32)

	if err := db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte("bench"))
		if err != nil {
			return err
		}
		for i := 0; i < numKeys; i++ {
			binary.BigEndian.PutUint64(key, uint64(i))
			binary.BigEndian.PutUint64(val, uint64(i))
			if err := bucket.Put(key, val); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		b.Fatal(err)
	}
}

// getCachedRocksDB returns a cached pre-populated RocksDB, creating it if
// needed.
func getCachedRocksDB(b *testing.B, size int) *gorocksdb.DB {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	key := fmt.Sprintf("rocks_%d", size)
	path := filepath.Join(benchCacheDir, fmt.Sprintf("plain_%d_rocks.db", size))

	if db, ok := rocksDBs[key]; ok {
		return db
	}

	if err := os.MkdirAll(benchCacheDir, 0755); err != nil {
		b.Fatal(err)
	}
	exists := fileExists(path)

	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	opts.SetWriteBufferSize(64 * 1024 * 1024)

	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		b.Fatal(err)
	}

	if !exists {
		b.Logf("Creating cached RocksDB with %d keys...", size)
		populateRocks(b, db, size)
	} else {
		b.Logf("Using cached RocksDB with %d keys", size)
	}

	rocksDBs[key] = db
	return db
}

func populateRocks(b *testing.B, db *gorocksdb.DB, numKeys int) {
	wo := gorocksdb.NewDefaultWriteOptions()
	defer wo.Destroy()

	batch := gorocksdb.NewWriteBatch()
	defer batch.Destroy()

	key := make([]byte, 8)
	val := make([]byte, 32)
	for i := 0; i < numKeys; i++ {
		binary.BigEndian.PutUint64(key, uint64(i))
		binary.BigEndian.PutUint64(val, uint64(i))
		batch.Put(key, val)
	}
	if batch.Count() > 0 {
		if err := db.Write(wo, batch); err != nil {
			b.Fatal(err)
		}
	}
}

// CleanupBenchCache closes all cached environments.
func CleanupBenchCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	for _, env := range ordkvEnvs {
		env.Close()
	}
	for _, env := range mdbxEnvs {
		env.Close()
	}
	for _, db := range boltDBs {
		db.Close()
	}
	for _, db := range rocksDBs {
		db.Close()
	}
	ordkvEnvs = make(map[string]*ordkv.Env)
	mdbxEnvs = make(map[string]*mdbxgo.Env)
	boltDBs = make(map[string]*bolt.DB)
	rocksDBs = make(map[string]*gorocksdb.DB)
}

// DeleteBenchCache removes all cached database files.
func DeleteBenchCache() error {
	return os.RemoveAll(benchCacheDir)
}

// shuffleOrder pre-generates a deterministic random visiting order.
func shuffleOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j := int(uint64(i*17+31) % uint64(i+1))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func formatSize(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%dM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dk", n/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
