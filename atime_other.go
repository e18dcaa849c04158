//go:build !linux && !openbsd && !dragonfly && !solaris && !illumos && !aix && !darwin && !freebsd && !netbsd && !windows

package archiver

import (
	"io/fs"
	"time"
)

// accessTime falls back to the modification time on
// platforms where the access time is not exposed.
func accessTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
