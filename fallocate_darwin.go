//go:build darwin

package hmsearch

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes of disk space before SaveFile writes
// any content. On macOS, uses fcntl F_PREALLOCATE for space reservation.
func fallocateFile(file *os.File, size int64) error {
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Offset:  0,
		Length:  size,
	}

	err := unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst)
	if err != nil {
		// Fallback to ftruncate if F_PREALLOCATE fails.
		return unix.Ftruncate(int(file.Fd()), size)
	}

	// F_PREALLOCATE only reserves space, doesn't set file size.
	return unix.Ftruncate(int(file.Fd()), size)
}
