package ordkv

// DBI is a named sub-database handle. Only the unnamed root keyspace is
// implemented; Txn.Get/Put/Del operate on it directly. The type and the
// MaxDBs bound are reserved so named sub-databases can be added without
// breaking the API.
type DBI uint32

// RootDBI is the unnamed root keyspace.
const RootDBI DBI = 0
