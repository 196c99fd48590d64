package adapter

import (
	"io"
	"os"
)

// FileSystem defines an interface for file system operations to enable mocking
//
//go:generate mockgen -source=filesystem.go -destination=../mocks/filesystem.go -package=mocks -mock_names=FileSystem=MockFileSystem
type FileSystem interface {
	// Create creates or truncates the named file
	Create(name string) (File, error)

	// CreateTemp creates a new temporary file in dir
	CreateTemp(dir, pattern string) (File, error)

	// Open opens the named file for reading
	Open(name string) (ReadSeekFile, error)

	// Stat returns the FileInfo describing the named file
	Stat(name string) (os.FileInfo, error)

	// MkdirAll creates the named directory along with any parents
	MkdirAll(path string, perm os.FileMode) error

	// Rename renames (moves) oldpath to newpath
	Rename(oldpath, newpath string) error

	// Remove removes the named file or directory
	Remove(name string) error

	// TempDir returns the default directory to use for temporary files
	TempDir() string
}

// File defines an interface for writable file operations
type File interface {
	io.Writer
	io.Closer

	// Name returns the path of the file as presented to Create
	Name() string
}

// ReadSeekFile defines an interface for readable, seekable file operations
type ReadSeekFile interface {
	io.Reader
	io.Seeker
	io.Closer
}

// RealFileSystem implements FileSystem using the standard os package
type RealFileSystem struct{}

// NewFileSystem creates a new real file system
func NewFileSystem() FileSystem {
	return &RealFileSystem{}
}

// Create creates or truncates the named file
func (fs *RealFileSystem) Create(name string) (File, error) {
	return os.Create(name) //nolint:gosec,G304
}

// CreateTemp creates a new temporary file in dir
func (fs *RealFileSystem) CreateTemp(dir, pattern string) (File, error) {
	return os.CreateTemp(dir, pattern)
}

// Open opens the named file for reading
func (fs *RealFileSystem) Open(name string) (ReadSeekFile, error) {
	return os.Open(name) //nolint:gosec,G304
}

// Stat returns the FileInfo describing the named file
func (fs *RealFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// MkdirAll creates the named directory along with any parents
func (fs *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Rename renames (moves) oldpath to newpath
func (fs *RealFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Remove removes the named file or directory
func (fs *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// TempDir returns the default directory to use for temporary files
func (fs *RealFileSystem) TempDir() string {
	return os.TempDir()
}
