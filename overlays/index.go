// Package overlays keeps the per-document mutation overlays the
// local-view materializer reads instead of replaying the whole
// pending-write history.
package overlays

import (
	"iter"

	"github.com/drpcorg/docstore/model"
	"github.com/prometheus/client_golang/prometheus"
)

var Lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "docstore",
	Subsystem: "overlays",
	Name:      "lookups",
}, []string{"result"})

var Writes = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "docstore",
	Subsystem: "overlays",
	Name:      "writes",
})

var Deletes = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "docstore",
	Subsystem: "overlays",
	Name:      "deletes",
})

// Index maps document identity to the document's overlay. Only
// overlays with a valid mutation can be indexed; they alone have
// a key. The index owns independent copies of inserted values.
type Index interface {
	// Get returns the overlay for the key,
	// store_errors.ErrOverlayUnknown when there is none.
	Get(key model.DocumentKey) (model.Overlay, error)
	Set(o model.Overlay) error
	Delete(key model.DocumentKey) error
	// All yields overlays in document-identity order.
	All() iter.Seq[model.Overlay]
}
