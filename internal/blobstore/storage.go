package blobstore

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/audfs/creator-node/internal/adapter"
	"github.com/audfs/creator-node/internal/domain"
	"github.com/audfs/creator-node/internal/logger"
)

// Storage is the content-addressed blob store on local disk. Plain blobs
// live at <root>/<CID>, directory entries at <root>/<dirCID>/<CID>. Every
// write goes through a temp file and a rename, so a path either holds the
// complete blob or nothing.
type Storage struct {
	fs   adapter.FileSystem
	root string
}

// NewStorage creates the store rooted at root, creating the directory if
// needed.
func NewStorage(fs adapter.FileSystem, root string) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Storage{fs: fs, root: root}, nil
}

// Root returns the storage root directory.
func (s *Storage) Root() string {
	return s.root
}

// PathFor returns the canonical location of a plain blob.
func (s *Storage) PathFor(cid string) string {
	return filepath.Join(s.root, cid)
}

// PathForEntry returns the canonical location of a directory entry.
func (s *Storage) PathForEntry(dirCID, cid string) string {
	return filepath.Join(s.root, dirCID, cid)
}

// Has reports whether a blob already sits at path.
func (s *Storage) Has(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureDir materializes the directory that anchors a dir CID and returns
// its path.
func (s *Storage) EnsureDir(dirCID string) (string, error) {
	path := s.PathFor(dirCID)
	if err := s.fs.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob dir: %w", err)
	}
	return path, nil
}

// Store writes a blob under its content address. Re-storing existing
// content is a no-op.
func (s *Storage) Store(data []byte) (string, string, error) {
	cid := CID(data)
	path := s.PathFor(cid)
	if err := s.writeAtomic(path, data); err != nil {
		return "", "", err
	}
	return cid, path, nil
}

// StoreEntry writes a blob into a directory's namespace.
func (s *Storage) StoreEntry(dirCID string, data []byte) (string, string, error) {
	if _, err := s.EnsureDir(dirCID); err != nil {
		return "", "", err
	}
	cid := CID(data)
	path := s.PathForEntry(dirCID, cid)
	if err := s.writeAtomic(path, data); err != nil {
		return "", "", err
	}
	return cid, path, nil
}

// StoreStream writes a stream, deriving its content address as the bytes
// pass through.
func (s *Storage) StoreStream(r io.Reader) (string, string, error) {
	tmpName, digest, err := s.spool(r)
	if err != nil {
		return "", "", err
	}

	cid := encodeMultihash(digest)
	path := s.PathFor(cid)
	if s.Has(path) {
		s.removeQuiet(tmpName)
		return cid, path, nil
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.removeQuiet(tmpName)
		return "", "", fmt.Errorf("failed to finalize blob: %w", err)
	}
	return cid, path, nil
}

// StoreStreamAs persists a stream claimed to hash to cid, verifying the
// claim before the blob becomes visible.
func (s *Storage) StoreStreamAs(cid string, r io.Reader) (string, error) {
	return s.storeStreamAt(cid, s.PathFor(cid), r)
}

// StoreStreamEntryAs is StoreStreamAs for a directory entry.
func (s *Storage) StoreStreamEntryAs(dirCID, cid string, r io.Reader) (string, error) {
	if _, err := s.EnsureDir(dirCID); err != nil {
		return "", err
	}
	return s.storeStreamAt(cid, s.PathForEntry(dirCID, cid), r)
}

// Open opens a stored blob for serving.
func (s *Storage) Open(path string) (adapter.ReadSeekFile, os.FileInfo, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: blob not on disk", domain.ErrNotFound)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%w: path holds a directory", domain.ErrBadRequest)
	}
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, info, nil
}

// Verify re-hashes the blob at path and reports whether it still matches
// cid.
func (s *Storage) Verify(cid, path string) (bool, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open blob: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close blob", zap.Error(err), zap.String("path", path))
		}
	}()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return false, fmt.Errorf("failed to hash blob: %w", err)
	}
	return encodeMultihash(hasher.Sum(nil)) == cid, nil
}

// Discard removes the blob at path so a verified copy can take its place.
func (s *Storage) Discard(path string) error {
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to discard blob: %w", err)
	}
	return nil
}

func (s *Storage) writeAtomic(path string, data []byte) error {
	if s.Has(path) {
		return nil
	}

	tmp, err := s.fs.CreateTemp(s.root, "blob-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.removeQuiet(tmpName)
		return fmt.Errorf("failed to write blob: %w", err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		s.removeQuiet(tmpName)
		return fmt.Errorf("failed to finalize blob: %w", err)
	}
	return nil
}

// spool drains r into a temp file, hashing as it copies, and returns the
// temp path with the sha2-256 digest.
func (s *Storage) spool(r io.Reader) (string, []byte, error) {
	tmp, err := s.fs.CreateTemp(s.root, "blob-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	hasher := sha256.New()
	_, err = io.Copy(io.MultiWriter(tmp, hasher), r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.removeQuiet(tmpName)
		return "", nil, fmt.Errorf("failed to write blob: %w", err)
	}
	return tmpName, hasher.Sum(nil), nil
}

func (s *Storage) storeStreamAt(cid, path string, r io.Reader) (string, error) {
	if s.Has(path) {
		return path, nil
	}

	tmpName, digest, err := s.spool(r)
	if err != nil {
		return "", err
	}

	if got := encodeMultihash(digest); got != cid {
		s.removeQuiet(tmpName)
		return "", fmt.Errorf("%w: content hashed to %s, expected %s", domain.ErrUpstream, got, cid)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		s.removeQuiet(tmpName)
		return "", fmt.Errorf("failed to finalize blob: %w", err)
	}
	return path, nil
}

func (s *Storage) removeQuiet(path string) {
	if err := s.fs.Remove(path); err != nil {
		logger.Warn("failed to remove temp file", zap.Error(err), zap.String("path", path))
	}
}
