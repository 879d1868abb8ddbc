// Package storage is the file-system view of the signal inbox.
package storage

import "time"

// FileMeta describes one batch file.
type FileMeta struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for inbox file operations. Paths are relative to
// the inbox root.
type Provider interface {
	// List returns metadata for every batch file under dir, skipping hidden
	// files and directories.
	List(dir string) ([]FileMeta, error)
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
}
