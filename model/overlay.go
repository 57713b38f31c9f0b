package model

import (
	"strconv"

	"github.com/cespare/xxhash"
	"github.com/drpcorg/docstore/store_errors"
	"github.com/learn-decentralized-systems/toytlv"
)

/*
	Overlay is the net pending local change for one document:
	the single mutation equivalent to replaying every queued
	write for that document, plus the id of the most recent
	batch that contributed to it. The local-view materializer
	applies it to the base document instead of replaying the
	whole mutation history.

	Overlay is a pure value. The zero value is the default
	overlay: LargestBatchID() == -1, invalid mutation. A valid
	batch id with an invalid mutation is a legal state too: the
	batch was seen but its writes cancelled out.
*/
type Overlay struct {
	// stored as largest batch id plus one, so the zero value
	// reads the -1 "no batch" sentinel
	batch    int64
	mutation Mutation
}

func NewOverlay(largestBatchID int64, mutation Mutation) Overlay {
	return Overlay{batch: largestBatchID + 1, mutation: mutation}
}

// LargestBatchID is the id of the most recent pending write
// batch that contributed to this overlay, -1 for none.
func (o Overlay) LargestBatchID() int64 {
	return o.batch - 1
}

func (o Overlay) Mutation() Mutation {
	return o.mutation
}

// Key names the overlaid document; requires a valid mutation.
func (o Overlay) Key() DocumentKey {
	return o.mutation.Key()
}

func (o Overlay) Equal(other Overlay) bool {
	return o.batch == other.batch && o.mutation.Equal(other.mutation)
}

// Clone deep-copies, so neither value sees the other's edits.
func (o Overlay) Clone() Overlay {
	o.mutation = o.mutation.Clone()
	return o
}

// Take moves the value out: the returned overlay carries the
// mutation, the source's mutation becomes invalid (its batch id
// is left as-is; nothing downstream reads it after a take).
func (o *Overlay) Take() Overlay {
	taken := Overlay{batch: o.batch, mutation: o.mutation}
	o.mutation = Mutation{}
	return taken
}

// Tlv is the canonical form: B batch-id, then the mutation
// record when the mutation is valid. The same bytes back the
// hash and the persisted index entry.
func (o Overlay) Tlv() []byte {
	tlv := toytlv.Record('B', ZipInt64(o.LargestBatchID()))
	return append(tlv, o.mutation.Tlv()...)
}

func OverlayFromTlv(tlv []byte) (Overlay, error) {
	zip, rest := toytlv.Take('B', tlv)
	if zip == nil {
		return Overlay{}, store_errors.ErrBadOverlayRecord
	}
	mutation, err := MutationFromTlv(rest)
	if err != nil {
		return Overlay{}, err
	}
	return NewOverlay(UnzipInt64(zip), mutation), nil
}

// Hash combines both fields; equal overlays hash equal.
func (o Overlay) Hash() uint64 {
	return xxhash.Sum64(o.Tlv())
}

// OverlayHash hashes overlays for use as a map key hasher;
// it agrees with Overlay.Hash on every instance.
type OverlayHash struct{}

func (OverlayHash) Sum(o Overlay) uint64 {
	return o.Hash()
}

func (o Overlay) String() string {
	b := append([]byte{}, "Overlay(largest_batch_id="...)
	b = strconv.AppendInt(b, o.LargestBatchID(), 10)
	if o.mutation.IsValid() {
		b = append(b, ", mutation="...)
		b = append(b, o.mutation.String()...)
	}
	b = append(b, ')')
	return string(b)
}
