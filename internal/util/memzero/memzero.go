package memzero

import "runtime"

// Zero overwrites b with zeros. Best-effort: the loop is kept out of inlining
// range so the compiler does not elide the writes.
//
//go:noinline
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
