// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// isFatalFsnotifyError reports inotify resource exhaustion, after which a
// watch session would silently miss edits:
//   - ENOSPC: fs.inotify.max_user_watches exceeded (large virtualenvs inside
//     the package are the usual cause)
//   - EMFILE, ENFILE: file descriptor limits
func isFatalFsnotifyError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
