//go:build !unix && !windows

package file

import "os"

// No advisory locking on this platform; writers race and the last one wins.

func lockExclusive(*os.File) error { return nil }

func lockShared(*os.File) error { return nil }

func unlock(*os.File) error { return nil }
