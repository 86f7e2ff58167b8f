//go:build !debug

package core

// DebugBuild reports whether assertions abort the process.
const DebugBuild = false
