//go:build cgo

package benchmarks

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"testing"

	mdbxgo "github.com/erigontech/mdbx-go/mdbx"
	"github.com/tecbot/gorocksdb"

	"github.com/ordkv/ordkv"
)

func newRocksWriteOpts() *gorocksdb.WriteOptions {
	wo := gorocksdb.NewDefaultWriteOptions()
	wo.DisableWAL(true) // Disable WAL for fair comparison (others don't sync either)
	return wo
}

// BenchmarkWriteOps benchmarks Put on pre-populated databases. The write
// transaction is opened once before timing, so the loop measures pure Put
// cost.
func BenchmarkWriteOps(b *testing.B) {
	sizes := []int{10_000, 100_000}

	for _, size := range sizes {
		sizeName := formatSize(size)

		b.Run(fmt.Sprintf("SeqPut_%s/ordkv", sizeName), func(b *testing.B) {
			benchSeqPutOrdkv(b, size)
		})
		b.Run(fmt.Sprintf("SeqPut_%s/mdbx", sizeName), func(b *testing.B) {
			benchSeqPutMdbx(b, size)
		})
		b.Run(fmt.Sprintf("SeqPut_%s/bolt", sizeName), func(b *testing.B) {
			benchSeqPutBolt(b, size)
		})
		b.Run(fmt.Sprintf("SeqPut_%s/rocksdb", sizeName), func(b *testing.B) {
			benchSeqPutRocksDB(b, size)
		})

		b.Run(fmt.Sprintf("RandPut_%s/ordkv", sizeName), func(b *testing.B) {
			benchRandPutOrdkv(b, size)
		})
		b.Run(fmt.Sprintf("RandPut_%s/mdbx", sizeName), func(b *testing.B) {
			benchRandPutMdbx(b, size)
		})
		b.Run(fmt.Sprintf("RandPut_%s/bolt", sizeName), func(b *testing.B) {
			benchRandPutBolt(b, size)
		})
		b.Run(fmt.Sprintf("RandPut_%s/rocksdb", sizeName), func(b *testing.B) {
			benchRandPutRocksDB(b, size)
		})
	}
}

func benchSeqPutOrdkv(b *testing.B, numKeys int) {
	env := getCachedOrdkvEnv(b, numKeys)

	key := make([]byte, 8)
	val := make([]byte, 32)

	txn, err := env.BeginTxn(nil, ordkv.TxnReadWrite)
	if err != nil {
		b.Fatal(err)
	}
	defer txn.Abort()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		binary.BigEndian.PutUint64(key, uint64(i%numKeys))
		binary.BigEndian.PutUint64(val, uint64(i))
		if err := txn.Put(key, val, ordkv.Upsert); err != nil {
			b.Fatal(err)
		}
	}
}

func benchRandPutOrdkv(b *testing.B, numKeys int) {
	env := getCachedOrdkvEnv(b, numKeys)

	key := make([]byte, 8)
	val := make([]byte, 32)
	order := shuffleOrder(numKeys)

	txn, err := env.BeginTxn(nil, ordkv.TxnReadWrite)
	if err != nil {
		b.Fatal(err)
	}
	defer txn.Abort()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		j := order[i%numKeys]
		binary.BigEndian.PutUint64(key, uint64(j))
		binary.BigEndian.PutUint64(val, uint64(i))
		if err := txn.Put(key, val, ordkv.Upsert); err != nil {
			b.Fatal(err)
		}
	}
}

func benchSeqPutMdbx(b *testing.B, numKeys int) {
	env := getCachedMdbxEnv(b, numKeys)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	key := make([]byte, 8)
	val := make([]byte, 32)

	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		b.Fatal(err)
	}
	defer txn.Abort()

	dbi, err := txn.OpenRoot(0)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		binary.BigEndian.PutUint64(key, uint64(i%numKeys))
		binary.BigEndian.PutUint64(val, uint64(i))
		if err := txn.Put(dbi, key, val, mdbxgo.Upsert); err != nil {
			b.Fatal(err)
		}
	}
}

func benchRandPutMdbx(b *testing.B, numKeys int) {
	env := getCachedMdbxEnv(b, numKeys)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	key := make([]byte, 8)
	val := make([]byte, 32)
	order := shuffleOrder(numKeys)

	txn, err := env.BeginTxn(nil, 0)
	if err != nil {
		b.Fatal(err)
	}
	defer txn.Abort()

	dbi, err := txn.OpenRoot(0)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		j := order[i%numKeys]
		binary.BigEndian.PutUint64(key, uint64(j))
		binary.BigEndian.PutUint64(val, uint64(i))
		if err := txn.Put(dbi, key, val, mdbxgo.Upsert); err != nil {
			b.Fatal(err)
		}
	}
}

func benchSeqPutBolt(b *testing.B, numKeys int) {
	db := getCachedBoltDB(b, numKeys)

	key := make([]byte, 8)
	val := make([]byte, 32)

	tx, err := db.Begin(true)
	if err != nil {
		b.Fatal(err)
	}
	defer tx.Rollback()

	bucket := tx.Bucket([]byte("bench"))
	if bucket == nil {
		b.Fatal("bucket not found")
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		binary.BigEndian.PutUint64(key, uint64(i%numKeys))
		binary.BigEndian.PutUint64(val, uint64(i))
		bucket.Put(key, val)
	}
}

func benchRandPutBolt(b *testing.B, numKeys int) {
	db := getCachedBoltDB(b, numKeys)

	key := make([]byte, 8)
	val := make([]byte, 32)
	order := shuffleOrder(numKeys)

	tx, err := db.Begin(true)
	if err != nil {
		b.Fatal(err)
	}
	defer tx.Rollback()

	bucket := tx.Bucket([]byte("bench"))
	if bucket == nil {
		b.Fatal("bucket not found")
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		j := order[i%numKeys]
		binary.BigEndian.PutUint64(key, uint64(j))
		binary.BigEndian.PutUint64(val, uint64(i))
		bucket.Put(key, val)
	}
}

func benchSeqPutRocksDB(b *testing.B, numKeys int) {
	db := getCachedRocksDB(b, numKeys)

	wo := newRocksWriteOpts()
	defer wo.Destroy()

	key := make([]byte, 8)
	val := make([]byte, 32)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		binary.BigEndian.PutUint64(key, uint64(i%numKeys))
		binary.BigEndian.PutUint64(val, uint64(i))
		db.Put(wo, key, val)
	}
}

func benchRandPutRocksDB(b *testing.B, numKeys int) {
	db := getCachedRocksDB(b, numKeys)

	wo := newRocksWriteOpts()
	defer wo.Destroy()

	key := make([]byte, 8)
	val := make([]byte, 32)
	order := shuffleOrder(numKeys)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		j := order[i%numKeys]
		binary.BigEndian.PutUint64(key, uint64(j))
		binary.BigEndian.PutUint64(val, uint64(i))
		db.Put(wo, key, val)
	}
}
