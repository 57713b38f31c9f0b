package model

import (
	"strings"

	"github.com/drpcorg/docstore/store_errors"
)

/*
	DocumentKey is the path-like identity of a stored document:
	an even number of non-empty segments alternating collection
	names and document ids, e.g. "rooms/eros" or
	"rooms/eros/messages/1".

	Keys order by the byte order of the canonical slash-joined
	form; the pebble keyspaces and the in-memory index agree on
	that order.
*/
type DocumentKey struct {
	path string
}

func KeyFromString(path string) (DocumentKey, error) {
	segs := strings.Split(path, "/")
	if len(segs) == 0 || len(segs)%2 != 0 {
		return DocumentKey{}, store_errors.ErrBadDocumentKey
	}
	for _, seg := range segs {
		if len(seg) == 0 {
			return DocumentKey{}, store_errors.ErrBadDocumentKey
		}
	}
	return DocumentKey{path: path}, nil
}

// MustKey is for tests and literals of known shape.
func MustKey(path string) DocumentKey {
	key, err := KeyFromString(path)
	if err != nil {
		panic(err)
	}
	return key
}

func KeyFromBytes(by []byte) (DocumentKey, error) {
	return KeyFromString(string(by))
}

// IsValid reports whether the key names a document;
// the zero value does not.
func (k DocumentKey) IsValid() bool {
	return len(k.path) != 0
}

func (k DocumentKey) Segments() []string {
	if !k.IsValid() {
		return nil
	}
	return strings.Split(k.path, "/")
}

// CollectionPath is the key minus the final document id.
func (k DocumentKey) CollectionPath() string {
	i := strings.LastIndexByte(k.path, '/')
	if i < 0 {
		return ""
	}
	return k.path[:i]
}

// DocumentID is the final segment.
func (k DocumentKey) DocumentID() string {
	i := strings.LastIndexByte(k.path, '/')
	return k.path[i+1:]
}

func (k DocumentKey) Less(other DocumentKey) bool {
	return k.path < other.path
}

func (k DocumentKey) Compare(other DocumentKey) int {
	return strings.Compare(k.path, other.path)
}

func (k DocumentKey) Bytes() []byte {
	return []byte(k.path)
}

func (k DocumentKey) String() string {
	return k.path
}
