package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// Upload categories map to subdirectories and to the MIME families
// each one accepts.
const (
	CategoryAvatar       = "avatars"
	CategoryGigMedia     = "gig-media"
	CategoryDeliverable  = "deliverables"
	CategoryChatFile     = "chat-files"
	CategoryPaymentProof = "payment-proofs"
)

var allowedMIMEs = map[string]map[string]bool{
	CategoryAvatar: {
		"image/jpeg": true, "image/png": true, "image/webp": true,
	},
	CategoryGigMedia: {
		"image/jpeg": true, "image/png": true, "image/webp": true, "video/mp4": true,
	},
	CategoryPaymentProof: {
		"image/jpeg": true, "image/png": true, "application/pdf": true,
	},
	CategoryDeliverable: nil, // any sniffable type
	CategoryChatFile:    nil,
}

// FileStorage keeps uploads on the local filesystem under a per-user
// directory tree. Content types are sniffed from the bytes, never
// trusted from the request.
type FileStorage struct {
	rootPath       string
	maxUploadBytes int64
}

func NewFileStorage(rootPath string, maxUploadMB int64) (*FileStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create root %s: %w", rootPath, err)
	}
	return &FileStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// SavedFile describes a stored upload.
type SavedFile struct {
	RelativePath string
	MIMEType     string
	Size         int64
}

// Save sniffs the content type, enforces the category's MIME allow-list
// and the size limit, and writes the file atomically via a temp name.
func (s *FileStorage) Save(ctx context.Context, uploaderID uuid.UUID, category, originalName string, r io.Reader) (*SavedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	allowed, ok := allowedMIMEs[category]
	if !ok {
		return nil, fmt.Errorf("storage: unknown upload category %q", category)
	}

	head := make([]byte, 261)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("storage: cannot read upload: %w", err)
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot sniff content type: %w", err)
	}
	if kind == filetype.Unknown {
		return nil, fmt.Errorf("storage: unrecognized file content")
	}
	if allowed != nil && !allowed[kind.MIME.Value] {
		return nil, fmt.Errorf("storage: %s not allowed for %s uploads", kind.MIME.Value, category)
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%s_%d%s", uploaderID.String(), time.Now().UnixNano(), filepath.Ext(safeName))

	dir := filepath.Join(s.rootPath, category, uploaderID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create upload dir: %w", err)
	}

	targetPath := filepath.Join(dir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot create file: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: write failed: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: file exceeds %d byte limit", s.maxUploadBytes)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("storage: close failed: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: rename failed: %w", err)
	}

	return &SavedFile{
		RelativePath: filepath.Join(category, uploaderID.String(), fileName),
		MIMEType:     kind.MIME.Value,
		Size:         written,
	}, nil
}

// Delete removes a stored file; a missing file is not an error.
func (s *FileStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(s.rootPath, filepath.Clean(relativePath))
	if !strings.HasPrefix(target, s.rootPath) {
		return fmt.Errorf("storage: path escapes root")
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: cannot delete file: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "file"
	}
	return name
}
