package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestSaveSniffsContentType(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), 10)
	require.NoError(t, err)

	uploader := uuid.New()
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x00}, 64)...)

	saved, err := s.Save(context.Background(), uploader, CategoryAvatar, "me.png", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "image/png", saved.MIMEType)
	assert.Equal(t, int64(len(payload)), saved.Size)

	_, err = os.Stat(filepath.Join(s.rootPath, saved.RelativePath))
	assert.NoError(t, err)
}

func TestSaveRejectsDisallowedType(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), 10)
	require.NoError(t, err)

	// %PDF magic is valid for payment proofs but not avatars.
	payload := append([]byte("%PDF-1.7"), bytes.Repeat([]byte{0x20}, 64)...)

	_, err = s.Save(context.Background(), uuid.New(), CategoryAvatar, "doc.pdf", bytes.NewReader(payload))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")

	_, err = s.Save(context.Background(), uuid.New(), CategoryPaymentProof, "doc.pdf", bytes.NewReader(payload))
	assert.NoError(t, err)
}

func TestSaveRejectsUnrecognizedContent(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), 10)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), uuid.New(), CategoryChatFile, "blob.bin",
		bytes.NewReader([]byte("just some text")))
	assert.Error(t, err)
}

func TestSaveEnforcesSizeLimit(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), 1)
	require.NoError(t, err)

	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x00}, 2*1024*1024)...)
	_, err = s.Save(context.Background(), uuid.New(), CategoryAvatar, "big.png", bytes.NewReader(payload))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestDeleteRefusesPathEscape(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), 10)
	require.NoError(t, err)

	err = s.Delete(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}
