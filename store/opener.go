package store

import (
	"fmt"
	"path/filepath"
	"sync"

	ds "github.com/ipfs/go-datastore"

	"github.com/rollkit/lightbridge/types"
)

// Opener opens the store kept at a path.
type Opener interface {
	Open(path string) (*Handle, error)
}

// Handle is one user's reference to an open datastore. Close releases the
// reference; the datastore itself is closed with the last reference.
type Handle struct {
	ds.Batching

	once    sync.Once
	release func() error
}

// Close releases the handle. Calling it more than once is a no-op.
func (h *Handle) Close() error {
	var err error
	h.once.Do(func() {
		err = h.release()
	})
	return err
}

// Factory creates the datastore for a path.
type Factory func(path string) (ds.Batching, error)

type sharedDB struct {
	db   ds.Batching
	refs int
}

// SharedOpener reference-counts one datastore per path, so the node's writer
// and the per-call readers of the entry points share a single instance.
type SharedOpener struct {
	factory Factory

	mtx sync.Mutex
	dbs map[string]*sharedDB
}

var _ Opener = &SharedOpener{}

// NewSharedOpener returns an opener creating datastores with factory.
func NewSharedOpener(factory Factory) *SharedOpener {
	return &SharedOpener{
		factory: factory,
		dbs:     make(map[string]*sharedDB),
	}
}

// NewBadgerOpener returns an opener backed by badger datastores.
func NewBadgerOpener() *SharedOpener {
	return NewSharedOpener(func(path string) (ds.Batching, error) {
		return NewDefaultKVStore("", path, "")
	})
}

// NewInMemoryOpener returns an opener keeping one in-memory datastore per
// path for the lifetime of the opener.
func NewInMemoryOpener() *SharedOpener {
	var mtx sync.Mutex
	memo := make(map[string]ds.Batching)
	return NewSharedOpener(func(path string) (ds.Batching, error) {
		mtx.Lock()
		defer mtx.Unlock()
		db, ok := memo[path]
		if !ok {
			db = NewDefaultInMemoryKVStore()
			memo[path] = db
		}
		return db, nil
	})
}

// Open returns a handle to the datastore at path, creating it on first use.
func (o *SharedOpener) Open(path string) (*Handle, error) {
	key := filepath.Clean(path)

	o.mtx.Lock()
	defer o.mtx.Unlock()

	shared, ok := o.dbs[key]
	if !ok {
		db, err := o.factory(key)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open store at %s: %v", types.ErrConnection, key, err)
		}
		shared = &sharedDB{db: db}
		o.dbs[key] = shared
	}
	shared.refs++

	return &Handle{
		Batching: shared.db,
		release: func() error {
			return o.release(key)
		},
	}, nil
}

// Refs returns the number of open handles for path.
func (o *SharedOpener) Refs(path string) int {
	o.mtx.Lock()
	defer o.mtx.Unlock()
	if shared, ok := o.dbs[filepath.Clean(path)]; ok {
		return shared.refs
	}
	return 0
}

func (o *SharedOpener) release(key string) error {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	shared, ok := o.dbs[key]
	if !ok {
		return nil
	}
	shared.refs--
	if shared.refs > 0 {
		return nil
	}
	delete(o.dbs, key)
	return shared.db.Close()
}
