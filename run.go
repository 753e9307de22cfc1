package ordkv

// TxnOp is a function that operates on a transaction.
// This is the callback type for View, Update, and RunTxn.
type TxnOp func(txn *Txn) error

// View executes a read-only transaction.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func (e *Env) View(fn TxnOp) error {
	return e.RunTxn(TxnReadOnly, fn)
}

// Update executes a read-write transaction.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func (e *Env) Update(fn TxnOp) error {
	return e.RunTxn(TxnReadWrite, fn)
}

// RunTxn runs a transaction with the given flags.
// The transaction is automatically committed when fn returns nil,
// or aborted when fn returns an error.
func (e *Env) RunTxn(flags uint, fn TxnOp) error {
	txn, err := e.BeginTxn(nil, flags)
	if err != nil {
		return err
	}
	if err := fn(txn); err != nil {
		txn.Abort()
		return err
	}
	return txn.Commit()
}
