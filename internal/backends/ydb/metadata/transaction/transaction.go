// Package transaction provides YDB transaction controls shared by the backend.
package transaction

import "github.com/ydb-platform/ydb-go-sdk/v3/table"

var (
	// ReadTx reads consistent data in a single-statement read-only transaction.
	ReadTx = table.TxControl(
		table.BeginTx(
			table.WithOnlineReadOnly(),
		),
		table.CommitTx(),
	)

	// StaleReadTx reads possibly stale data; used for metadata and explain.
	StaleReadTx = table.TxControl(
		table.BeginTx(
			table.WithStaleReadOnly(),
		),
		table.CommitTx(),
	)

	// WriteTx commits a serializable read-write transaction.
	WriteTx = table.SerializableReadWriteTxControl(
		table.CommitTx(),
	)
)
