//go:build windows

package file

import (
	"os"

	"golang.org/x/sys/windows"
)

// Locks cover the first byte, enough to serialize whole-file access between cooperating processes.

func lockExclusive(f *os.File) error {
	return lockFile(f, windows.LOCKFILE_EXCLUSIVE_LOCK)
}

func lockShared(f *os.File) error {
	return lockFile(f, 0)
}

func lockFile(f *os.File, flags uint32) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, ol)
}

func unlock(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}
