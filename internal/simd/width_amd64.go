package simd

// Width is the number of float32 lanes per group: one 256-bit AVX register.
const Width = 8
