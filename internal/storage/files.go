package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore keeps attachment bytes on the local filesystem beneath a
// single root directory. Records in the database point at the returned
// paths; create and delete are always paired with the record lifecycle.
type FileStore struct {
	root    string
	maxSize int64
}

// NewFileStore ensures the upload root exists.
func NewFileStore(root string, maxSize int64) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("upload root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{root: root, maxSize: maxSize}, nil
}

// Save streams src to a freshly named file and returns the stored name,
// absolute path and byte size. The original filename never reaches the
// filesystem; only its extension survives.
func (fs *FileStore) Save(src io.Reader, originalName string) (filename, path string, size int64, err error) {
	filename = uuid.NewString() + filepath.Ext(originalName)
	path = filepath.Join(fs.root, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", "", 0, err
	}
	defer dst.Close()

	if fs.maxSize > 0 {
		src = io.LimitReader(src, fs.maxSize+1)
	}
	size, err = io.Copy(dst, src)
	if err != nil {
		os.Remove(path)
		return "", "", 0, err
	}
	if fs.maxSize > 0 && size > fs.maxSize {
		os.Remove(path)
		return "", "", 0, fmt.Errorf("file exceeds maximum size of %d bytes", fs.maxSize)
	}
	return filename, path, size, nil
}

// Open returns a reader over the stored bytes.
func (fs *FileStore) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Remove deletes the stored bytes. A missing file is not an error: the
// record is the source of truth and the goal state is "gone".
func (fs *FileStore) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
