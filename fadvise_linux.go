//go:build linux

package hmsearch

import "golang.org/x/sys/unix"

// fadviseRandom hints to the kernel that the mapped index file will be
// accessed non-sequentially: ODV probes jump between buckets and signature
// slots in whatever order query traffic dictates, so sequential readahead
// wastes page cache. Best-effort: errors are silently ignored.
func fadviseRandom(fd int, offset, length int64) {
	_ = unix.Fadvise(fd, offset, length, unix.FADV_RANDOM)
}
