package duckdb

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for an input file of a run.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file. Stdin ("-") and
// empty paths yield a fingerprint carrying only the path.
func StatFile(path string) (FileFingerprint, error) {
	if path == "" || path == "-" {
		return FileFingerprint{Path: path}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
