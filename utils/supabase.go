package utils

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	storage "github.com/supabase-community/storage-go"
)

// Storage keeps uploaded material files.
type Storage interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
	Owns(publicURL string) bool
}

// SupabaseStorage stores objects in one Supabase Storage bucket and hands out
// public URLs of the form <base>/storage/v1/object/public/<bucket>/<path>.
type SupabaseStorage struct {
	baseURL string
	bucket  string
	client  *storage.Client
}

func NewSupabaseStorage(baseURL, key, bucket string) *SupabaseStorage {
	baseURL = strings.TrimRight(baseURL, "/")
	return &SupabaseStorage{
		baseURL: baseURL,
		bucket:  bucket,
		client:  storage.NewClient(baseURL+"/storage/v1", key, nil),
	}
}

func (s *SupabaseStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string) (string, error) {
	options := storage.FileOptions{
		ContentType: &contentType,
	}
	if _, err := s.client.UploadFile(s.bucket, objectPath, data, options); err != nil {
		return "", errors.Wrapf(err, "upload %s", objectPath)
	}
	return s.publicURL(objectPath), nil
}

func (s *SupabaseStorage) Delete(ctx context.Context, publicURL string) error {
	bucket, object, err := ObjectFromPublicURL(publicURL)
	if err != nil {
		return err
	}
	if bucket != s.bucket {
		return fmt.Errorf("object %s belongs to bucket %s", object, bucket)
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{object}); err != nil {
		return errors.Wrapf(err, "remove %s", object)
	}
	return nil
}

func (s *SupabaseStorage) Owns(publicURL string) bool {
	return strings.HasPrefix(publicURL, s.publicURL(""))
}

func (s *SupabaseStorage) publicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

// ObjectFromPublicURL splits a storage URL containing "/storage/v1/object/"
// into its bucket and object path.
func ObjectFromPublicURL(publicURL string) (bucket, object string, err error) {
	idx := strings.Index(publicURL, "/storage/v1/object/")
	if idx == -1 {
		return "", "", fmt.Errorf("no storage object path in URL: %s", publicURL)
	}

	rest := publicURL[idx+len("/storage/v1/object/"):]
	rest = strings.TrimPrefix(rest, "public/")

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse bucket/object from URL: %s", publicURL)
	}
	object = parts[1]
	if q := strings.Index(object, "?"); q != -1 {
		object = object[:q]
	}
	if u, err := url.PathUnescape(object); err == nil {
		object = u
	}
	return parts[0], object, nil
}
