package apartment

import "golang.org/x/sys/unix"

func threadID() (uint64, bool) { return uint64(unix.Gettid()), true }
