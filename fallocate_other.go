//go:build !linux && !darwin

package hmsearch

import "os"

// fallocateFile reserves size bytes of disk space on platforms without a
// native fallocate equivalent, falling back to Truncate. This sets the file
// size but may not reserve actual disk blocks on every filesystem.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
