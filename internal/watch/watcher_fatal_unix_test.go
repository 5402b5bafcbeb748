// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import "syscall"

// inotify failures: watch and descriptor exhaustion end the session, a
// single unreadable directory (a locked .venv, say) does not.
var (
	fatalErrnos     = []syscall.Errno{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE}
	transientErrnos = []syscall.Errno{syscall.EPERM, syscall.EACCES}
)
