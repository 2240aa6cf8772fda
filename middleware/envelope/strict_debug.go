//go:build debug

package envelope

const strictLookup = true
