//go:build !debug

package envelope

const strictLookup = false
