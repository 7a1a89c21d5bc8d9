//go:build !unix

package filesystem

import "os"

func access(_ string, info os.FileInfo) (readable, writable bool) {
	perm := info.Mode().Perm()
	return perm&0o400 != 0, perm&0o200 != 0
}
