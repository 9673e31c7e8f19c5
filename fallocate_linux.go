//go:build linux

package hmsearch

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes of disk space for file before any
// content is written, so a full disk fails SaveFile immediately instead of
// partway through a large serialized index. On Linux, uses the fallocate
// syscall for efficient space reservation.
func fallocateFile(file *os.File, size int64) error {
	err := unix.Fallocate(int(file.Fd()), 0, 0, size)
	if err != nil {
		// Fallback to ftruncate if fallocate fails (e.g., NFS, some filesystems).
		return unix.Ftruncate(int(file.Fd()), size)
	}
	// Fallocate reserves blocks but doesn't set file size - must also truncate.
	return unix.Ftruncate(int(file.Fd()), size)
}
