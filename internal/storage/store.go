package storage

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/cvbuilder/backend/internal/models"
)

// CVCollection is the collection (or table) holding CV documents.
const CVCollection = "CVs"

var (
	ErrNotFound     = errors.New("document not found")
	ErrBlobNotFound = errors.New("blob not found")
)

type marker int

const (
	deleteMarker marker = iota + 1
	timestampMarker
)

var (
	// DeleteField as a field value removes the field from the document
	// instead of setting it to an empty value.
	DeleteField any = deleteMarker
	// ServerTimestamp as a field value is replaced by the store's clock at
	// write time.
	ServerTimestamp any = timestampMarker
)

// IsDeleteField reports whether v is the DeleteField marker.
func IsDeleteField(v any) bool {
	m, ok := v.(marker)
	return ok && m == deleteMarker
}

// IsServerTimestamp reports whether v is the ServerTimestamp marker.
func IsServerTimestamp(v any) bool {
	m, ok := v.(marker)
	return ok && m == timestampMarker
}

// Fields is a partial document keyed by stored field name.
type Fields map[string]any

// Keys returns the field names in sorted order so writes are deterministic.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DocumentStore is the durable CV store with push subscriptions.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*models.CVDocument, error)
	Insert(ctx context.Context, fields Fields) (string, error)
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, userID string) ([]*models.CVDocument, error)
	// Subscribe delivers the owner's complete CV list on start and after
	// every change. The channel closes when ctx ends or the feed fails.
	Subscribe(ctx context.Context, userID string) (<-chan []*models.CVDocument, error)
	Close(ctx context.Context) error
}

// BlobStore keeps uploaded images under opaque keys.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// applyFields writes fields onto doc. now stamps ServerTimestamp markers;
// a nil now leaves them unapplied.
func applyFields(doc *models.CVDocument, fields Fields, now func() any) {
	for _, k := range fields.Keys() {
		v := fields[k]
		switch {
		case IsDeleteField(v):
			doc.ClearField(k)
		case IsServerTimestamp(v):
			if now != nil {
				doc.SetField(k, now())
			}
		default:
			doc.SetField(k, v)
		}
	}
}

// sortNewestFirst orders CV lists by createdAt descending, ties by id.
func sortNewestFirst(docs []*models.CVDocument) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}
