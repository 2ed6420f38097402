//go:build windows

package zonemeter

import (
	"errors"
	"syscall"
)

// Win32 ERROR_SHARING_VIOLATION and ERROR_LOCK_VIOLATION.
const (
	errSharingViolation syscall.Errno = 32
	errLockViolation    syscall.Errno = 33
)

func isBusy(err error) bool {
	return errors.Is(err, errSharingViolation) || errors.Is(err, errLockViolation)
}
