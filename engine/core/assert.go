package core

import "fmt"

// Assert panics with the formatted message when cond is false and the binary
// was built with the `debug` tag. Release builds only log the failure.
func Assert(cond bool, msg string, args ...interface{}) {
	if cond {
		return
	}
	if DebugBuild {
		panic(fmt.Sprintf("assertion failed: "+msg, args...))
	}
	LogError("assertion failed: "+msg, args...)
}
