package firebase

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
)

// BucketStore keeps notice files in a Cloud Storage bucket.
type BucketStore struct {
	bucket *storage.BucketHandle
	name   string
}

func NewBucketStore(bucket *storage.BucketHandle, name string) *BucketStore {
	return &BucketStore{bucket: bucket, name: name}
}

// Upload writes r to key and returns the public URL of the object.
func (s *BucketStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", errors.Wrapf(err, "uploading %s", key)
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrapf(err, "finalizing %s", key)
	}
	return ObjectURL(s.name, key), nil
}

// Delete removes the object; a missing object is not an error.
func (s *BucketStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func ObjectURL(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, strings.Join(parts, "/"))
}
