package overlays

import (
	"iter"
	"slices"

	"github.com/drpcorg/docstore/model"
	"github.com/drpcorg/docstore/store_errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// MemIndex is the in-memory overlay index.
type MemIndex struct {
	m *xsync.MapOf[model.DocumentKey, model.Overlay]
}

var _ Index = (*MemIndex)(nil)

func NewMemIndex() *MemIndex {
	return &MemIndex{m: xsync.NewMapOf[model.DocumentKey, model.Overlay]()}
}

func (mi *MemIndex) Get(key model.DocumentKey) (model.Overlay, error) {
	o, ok := mi.m.Load(key)
	if !ok {
		Lookups.WithLabelValues("miss").Inc()
		return model.Overlay{}, store_errors.ErrOverlayUnknown
	}
	Lookups.WithLabelValues("hit").Inc()
	return o.Clone(), nil
}

func (mi *MemIndex) Set(o model.Overlay) error {
	if !o.Mutation().IsValid() {
		return store_errors.ErrInvalidMutation
	}
	mi.m.Store(o.Key(), o.Clone())
	Writes.Inc()
	return nil
}

func (mi *MemIndex) Delete(key model.DocumentKey) error {
	mi.m.Delete(key)
	Deletes.Inc()
	return nil
}

func (mi *MemIndex) Len() int {
	return mi.m.Size()
}

func (mi *MemIndex) All() iter.Seq[model.Overlay] {
	return func(yield func(model.Overlay) bool) {
		all := make([]model.Overlay, 0, mi.m.Size())
		mi.m.Range(func(_ model.DocumentKey, o model.Overlay) bool {
			all = append(all, o)
			return true
		})
		slices.SortFunc(all, func(a, b model.Overlay) int {
			return a.Key().Compare(b.Key())
		})
		for _, o := range all {
			if !yield(o.Clone()) {
				return
			}
		}
	}
}
