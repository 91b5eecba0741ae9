package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectFromPublicURL(t *testing.T) {
	bucket, object, err := ObjectFromPublicURL("https://abc.supabase.co/storage/v1/object/public/materials/materials/a%20b.pdf?download=1")
	require.NoError(t, err)
	assert.Equal(t, "materials", bucket)
	assert.Equal(t, "materials/a b.pdf", object)

	_, _, err = ObjectFromPublicURL("https://drive.google.com/file/d/123")
	assert.Error(t, err)

	_, _, err = ObjectFromPublicURL("https://abc.supabase.co/storage/v1/object/public/materials")
	assert.Error(t, err)
}

func TestSupabaseStorageOwns(t *testing.T) {
	s := NewSupabaseStorage("https://abc.supabase.co/", "key", "materials")

	assert.True(t, s.Owns("https://abc.supabase.co/storage/v1/object/public/materials/materials/x.pdf"))
	assert.False(t, s.Owns("https://abc.supabase.co/storage/v1/object/public/other/x.pdf"))
	assert.False(t, s.Owns("https://example.com/x.pdf"))
}
