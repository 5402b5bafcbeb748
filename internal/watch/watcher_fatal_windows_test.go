// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import "syscall"

// ReadDirectoryChangesW failures: handle and memory exhaustion, or the
// package directory disappearing, end the session.
var (
	fatalErrnos = []syscall.Errno{
		errnoTooManyOpenFiles,
		errnoInvalidHandle,
		errnoNotEnoughMemory,
	}
	transientErrnos = []syscall.Errno{
		syscall.Errno(2), // ERROR_FILE_NOT_FOUND
		syscall.Errno(5), // ERROR_ACCESS_DENIED
	}
)
