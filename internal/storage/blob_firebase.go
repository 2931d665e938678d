package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
)

// FirebaseBlobStore keeps images in the Firebase Storage bucket and hands
// out token download URLs, the same URLs the web SDK produces.
type FirebaseBlobStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

// NewFirebaseBlobStore uses bucketName, or the app's default bucket when empty.
func NewFirebaseBlobStore(ctx context.Context, app *firebase.App, bucketName string) (*FirebaseBlobStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase storage: client: %w", err)
	}

	var bh *gcs.BucketHandle
	if bucketName == "" {
		bh, err = client.DefaultBucket()
	} else {
		bh, err = client.Bucket(bucketName)
	}
	if err != nil {
		return nil, fmt.Errorf("firebase storage: bucket: %w", err)
	}

	attrs, err := bh.Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase storage: bucket attrs: %w", err)
	}
	return &FirebaseBlobStore{bucket: bh, bucketName: attrs.Name}, nil
}

func (s *FirebaseBlobStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	token := uuid.New().String()

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("firebase storage: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("firebase storage: close %s: %w", key, err)
	}
	return firebaseDownloadURL(s.bucketName, key, token), nil
}

// Delete treats an already missing object as deleted.
func (s *FirebaseBlobStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("firebase storage: delete %s: %w", key, err)
	}
	return nil
}

func (s *FirebaseBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("firebase storage: open %s: %w", key, err)
	}
	return rc, nil
}

func firebaseDownloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket,
		url.PathEscape(objectName),
		url.QueryEscape(token),
	)
}
