package model

import "fmt"

// Document is a materialized document value: either an existing
// document with contents or a hole (Exists == false) where the
// key names nothing.
type Document struct {
	Key    DocumentKey
	Fields Fields
	Exists bool
}

func NewDocument(key DocumentKey, fields Fields) Document {
	return Document{Key: key, Fields: fields, Exists: true}
}

func MissingDocument(key DocumentKey) Document {
	return Document{Key: key}
}

func (d Document) Equal(other Document) bool {
	if d.Key != other.Key || d.Exists != other.Exists {
		return false
	}
	return !d.Exists || d.Fields.Equal(other.Fields)
}

func (d Document) Clone() Document {
	d.Fields = d.Fields.Clone()
	return d
}

func (d Document) String() string {
	if !d.Exists {
		return fmt.Sprintf("Document(%s, missing)", d.Key)
	}
	return fmt.Sprintf("Document(%s, %s)", d.Key, d.Fields)
}
