package overlays

import (
	"iter"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/drpcorg/docstore/model"
	"github.com/drpcorg/docstore/store_errors"
	"github.com/drpcorg/docstore/utils"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const cacheSize = 10000

// OKey is the pebble key of a document's overlay:
// lit A, then the canonical document path.
func OKey(key model.DocumentKey) []byte {
	return append([]byte{'A'}, key.Bytes()...)
}

// PebbleIndex is the persisted overlay index. Overlay TLV lives
// in the 'A' keyspace of the store database, so iteration in
// document-identity order is the native key order. Reads go
// through an LRU cache; writes take a per-document lock so the
// cache and the database never disagree.
type PebbleIndex struct {
	db    *pebble.DB
	wo    *pebble.WriteOptions
	log   utils.Logger
	cache *lru.Cache[model.DocumentKey, model.Overlay]
	locks utils.CMap[model.DocumentKey, *sync.Mutex]
}

var _ Index = (*PebbleIndex)(nil)

func NewPebbleIndex(db *pebble.DB, wo *pebble.WriteOptions, log utils.Logger) *PebbleIndex {
	cache, _ := lru.New[model.DocumentKey, model.Overlay](cacheSize)
	return &PebbleIndex{db: db, wo: wo, log: log, cache: cache}
}

func (pi *PebbleIndex) lock(key model.DocumentKey) func() {
	lock, _ := pi.locks.LoadOrStore(key, &sync.Mutex{})
	lock.Lock()
	return func() {
		lock.Unlock()
		pi.locks.Delete(key)
	}
}

func (pi *PebbleIndex) Get(key model.DocumentKey) (model.Overlay, error) {
	if o, ok := pi.cache.Get(key); ok {
		Lookups.WithLabelValues("hit").Inc()
		return o.Clone(), nil
	}
	tlv, closer, err := pi.db.Get(OKey(key))
	if err == pebble.ErrNotFound {
		Lookups.WithLabelValues("absent").Inc()
		return model.Overlay{}, store_errors.ErrOverlayUnknown
	}
	if err != nil {
		return model.Overlay{}, err
	}
	defer closer.Close()
	o, err := model.OverlayFromTlv(tlv)
	if err != nil {
		return model.Overlay{}, errors.Wrapf(err, "overlay record for %s", key)
	}
	Lookups.WithLabelValues("miss").Inc()
	pi.cache.Add(key, o.Clone())
	return o, nil
}

func (pi *PebbleIndex) Set(o model.Overlay) error {
	if !o.Mutation().IsValid() {
		return store_errors.ErrInvalidMutation
	}
	key := o.Key()
	unlock := pi.lock(key)
	defer unlock()
	if err := pi.db.Set(OKey(key), o.Tlv(), pi.wo); err != nil {
		return err
	}
	pi.cache.Add(key, o.Clone())
	Writes.Inc()
	return nil
}

func (pi *PebbleIndex) Delete(key model.DocumentKey) error {
	unlock := pi.lock(key)
	defer unlock()
	if err := pi.db.Delete(OKey(key), pi.wo); err != nil {
		return err
	}
	pi.cache.Remove(key)
	Deletes.Inc()
	return nil
}

// All yields the persisted overlays in document-identity order;
// records that fail to decode are logged and skipped.
func (pi *PebbleIndex) All() iter.Seq[model.Overlay] {
	return func(yield func(model.Overlay) bool) {
		it, err := pi.db.NewIter(&pebble.IterOptions{
			LowerBound: []byte{'A'},
			UpperBound: []byte{'A' + 1},
		})
		if err != nil {
			pi.log.Error("failed to create overlay iterator", "err", err)
			return
		}
		defer it.Close()
		for valid := it.First(); valid; valid = it.Next() {
			o, err := model.OverlayFromTlv(it.Value())
			if err != nil {
				pi.log.Error("skipping bad overlay record",
					"key", string(it.Key()[1:]), "err", err)
				continue
			}
			if !yield(o) {
				return
			}
		}
	}
}
