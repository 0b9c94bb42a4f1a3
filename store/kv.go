package store

import (
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	badger3 "github.com/ipfs/go-ds-badger3"
)

// NewDefaultInMemoryKVStore builds a datastore that works in-memory (without accessing disk).
func NewDefaultInMemoryKVStore() ds.Batching {
	return dssync.MutexWrap(ds.NewMapDatastore())
}

// NewDefaultKVStore creates instance of default key-value store backed by badger.
//
// Badger holds a lock on its directory, so a process must open a path only
// once; use SharedOpener to hand the same instance to several users.
func NewDefaultKVStore(rootDir, dbPath, dbName string) (ds.Batching, error) {
	path := filepath.Join(rootify(dbPath, rootDir), dbName)
	opts := badger3.DefaultOptions
	opts.Options = opts.Options.WithLoggingLevel(badger.WARNING)
	db, err := badger3.NewDatastore(path, &opts)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// rootify works just like in cosmos-sdk
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
