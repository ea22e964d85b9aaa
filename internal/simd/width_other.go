//go:build !amd64

package simd

// Width is the number of float32 lanes per group: one 128-bit NEON/SSE register.
const Width = 4
