package docstore

import (
	"iter"
	"log/slog"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/drpcorg/docstore/model"
	"github.com/drpcorg/docstore/overlays"
	"github.com/drpcorg/docstore/store_errors"
	"github.com/drpcorg/docstore/utils"
	"github.com/google/uuid"
	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/learn-decentralized-systems/toytlv"
)

const OverlayOutQueueLimit = 1 << 20

type Options struct {
	Name         string
	Logger       utils.Logger
	Pebble       pebble.Options
	WriteOptions *pebble.WriteOptions
}

func (o *Options) SetDefaults() {
	if o.Logger == nil {
		o.Logger = utils.NewDefaultLogger(slog.LevelInfo)
	}
	if o.WriteOptions == nil {
		o.WriteOptions = &pebble.WriteOptions{Sync: false}
	}
}

/*
	Store is the local half of a synced document store: base
	documents as last seen from the server plus an overlay per
	locally changed document. Reads materialize the local view
	by applying the overlay to the base document; nothing ever
	replays the pending-write history.

	Keyspace by leading byte: 'A' overlays, 'D' base documents.
*/
type Store struct {
	db  *pebble.DB
	dir string
	sid string
	log utils.Logger

	overlays *overlays.PebbleIndex

	// queues fed with every overlay change, drained by the sync layer
	outq    map[string]toyqueue.DrainCloser
	outlock sync.Mutex

	opts Options
}

func Open(dir string, opts Options) (*Store, error) {
	opts.SetDefaults()
	db, err := pebble.Open(dir, &opts.Pebble)
	if err != nil {
		return nil, err
	}
	store := &Store{
		db:   db,
		dir:  dir,
		sid:  uuid.Must(uuid.NewV7()).String(),
		log:  opts.Logger,
		opts: opts,
		outq: make(map[string]toyqueue.DrainCloser),
	}
	store.overlays = overlays.NewPebbleIndex(db, opts.WriteOptions, opts.Logger)
	store.log.Info("store open", "dir", dir, "name", opts.Name, "session", store.sid)
	return store, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return store_errors.ErrClosed
	}
	s.outlock.Lock()
	for name, q := range s.outq {
		_ = q.Close()
		delete(s.outq, name)
	}
	s.outlock.Unlock()
	err := s.db.Close()
	s.db = nil
	s.log.Info("store closed", "dir", s.dir, "session", s.sid)
	return err
}

// DKey is the pebble key of a base document:
// lit D, then the canonical document path.
func DKey(key model.DocumentKey) []byte {
	return append([]byte{'D'}, key.Bytes()...)
}

// SetBase stores the server revision of a document; a
// non-existing document removes the base record.
func (s *Store) SetBase(doc model.Document) error {
	if s.db == nil {
		return store_errors.ErrClosed
	}
	if !doc.Exists {
		return s.db.Delete(DKey(doc.Key), s.opts.WriteOptions)
	}
	return s.db.Set(DKey(doc.Key), doc.Fields.Tlv(), s.opts.WriteOptions)
}

// GetBase returns the stored server revision; a key with no
// record materializes as a missing document, not an error.
func (s *Store) GetBase(key model.DocumentKey) (model.Document, error) {
	if s.db == nil {
		return model.Document{}, store_errors.ErrClosed
	}
	tlv, closer, err := s.db.Get(DKey(key))
	if err == pebble.ErrNotFound {
		return model.MissingDocument(key), nil
	}
	if err != nil {
		return model.Document{}, err
	}
	defer closer.Close()
	fields, err := model.FieldsFromTlv(tlv)
	if err != nil {
		return model.Document{}, err
	}
	return model.NewDocument(key, fields), nil
}

// Overlays exposes the persisted overlay index.
func (s *Store) Overlays() overlays.Index {
	return s.overlays
}

// SaveOverlay records the net pending change the write pipeline
// computed for a document. An invalid mutation has no key and
// cannot be indexed.
func (s *Store) SaveOverlay(largestBatchID int64, m model.Mutation) error {
	if s.db == nil {
		return store_errors.ErrClosed
	}
	if !m.IsValid() {
		return store_errors.ErrInvalidMutation
	}
	o := model.NewOverlay(largestBatchID, m)
	if err := s.overlays.Set(o); err != nil {
		return err
	}
	s.broadcast(toyqueue.Records{toytlv.Record('U', o.Tlv())})
	return nil
}

func (s *Store) Overlay(key model.DocumentKey) (model.Overlay, error) {
	if s.db == nil {
		return model.Overlay{}, store_errors.ErrClosed
	}
	return s.overlays.Get(key)
}

// DeleteOverlay drops a document's overlay, i.e. all its
// contributing batches were acknowledged and no net local
// change remains.
func (s *Store) DeleteOverlay(key model.DocumentKey) error {
	if s.db == nil {
		return store_errors.ErrClosed
	}
	if err := s.overlays.Delete(key); err != nil {
		return err
	}
	s.broadcast(toyqueue.Records{toytlv.Record('R', toytlv.Record('K', key.Bytes()))})
	return nil
}

// LocalView materializes the current local view of one
// document: the base document with the overlay mutation
// applied, or the base document as-is when there is none.
func (s *Store) LocalView(key model.DocumentKey) (model.Document, error) {
	doc, err := s.GetBase(key)
	if err != nil {
		return model.Document{}, err
	}
	o, err := s.overlays.Get(key)
	if err == store_errors.ErrOverlayUnknown {
		return doc, nil
	}
	if err != nil {
		return model.Document{}, err
	}
	o.Mutation().ApplyToLocalView(&doc)
	return doc, nil
}

// LocalViews materializes every document with a pending overlay
// in one pass, in document-identity order.
func (s *Store) LocalViews() iter.Seq[model.Document] {
	return func(yield func(model.Document) bool) {
		for o := range s.overlays.All() {
			doc, err := s.GetBase(o.Key())
			if err != nil {
				s.log.Error("failed to read base document",
					"key", o.Key().String(), "err", err)
				return
			}
			o.Mutation().ApplyToLocalView(&doc)
			if !yield(doc) {
				return
			}
		}
	}
}

// AddOverlayHose registers a named queue that receives a TLV
// packet for every overlay change: U with the overlay record,
// R with the dropped document key.
func (s *Store) AddOverlayHose(name string) (feed toyqueue.FeedCloser) {
	queue := toyqueue.RecordQueue{Limit: OverlayOutQueueLimit}
	s.outlock.Lock()
	q := s.outq[name]
	s.outq[name] = &queue
	s.outlock.Unlock()
	if q != nil {
		s.log.Warn("closing the old overlay hose", "name", name)
		_ = q.Close()
	}
	return queue.Blocking()
}

func (s *Store) RemoveOverlayHose(name string) error {
	s.outlock.Lock()
	q := s.outq[name]
	delete(s.outq, name)
	s.outlock.Unlock()
	if q != nil {
		_ = q.Close()
	}
	return nil
}

func (s *Store) broadcast(records toyqueue.Records) {
	s.outlock.Lock()
	for name, hose := range s.outq {
		err := hose.Drain(records)
		if err != nil {
			delete(s.outq, name)
		}
	}
	s.outlock.Unlock()
}
