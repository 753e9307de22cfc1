// Package ordkv is a pure Go embedded transactional key-value store with an
// MDBX-style API.
//
// The package is a safety layer over a procedural storage engine: every
// engine status code is classified into a typed *Error carrying the failing
// operation and its code, and handle lifecycles are made explicit. An
// environment is configured, opened once and closed exactly once; a
// transaction is consumed by Commit or Abort and rejects use afterwards.
//
// Key features:
//   - MVCC snapshots: readers never block and never see partial writes
//   - Single writer, multiple readers concurrency model
//   - Nested write transactions (child commits merge into the parent)
//   - Reset/Renew reuse of read-only transaction handles
//   - Memory-mapped data file with page-rounded sizing
//
// Basic usage:
//
//	env, err := ordkv.Create()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer env.Close()
//
//	err = env.Open("/path/to/db", 0, 0644)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Begin a write transaction
//	txn, err := env.BeginTxn(nil, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer txn.Abort()
//
//	// Put a key-value pair
//	err = txn.Put([]byte("key"), []byte("value"), 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := txn.Commit(); err != nil {
//	    log.Fatal(err)
//	}
package ordkv
