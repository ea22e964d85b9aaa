// Package simd describes the fixed lane width used by the batch update paths
// and reports the vector features of the host CPU.
//
// Batch kernels process Width consecutive float32 values per group through
// fixed-size array views, which the compiler keeps bounds-check free and is
// free to vectorize. Width is a compile-time constant per GOARCH; it never
// changes at run time, so a batch length validated once stays valid.
package simd

import (
	"strings"

	"golang.org/x/sys/cpu"
)

// Aligned reports whether n is a whole number of lane groups.
func Aligned(n int) bool {
	return n%Width == 0
}

// Split returns the lane-aligned prefix length of n and the remainder that
// must go through the scalar path.
func Split(n int) (body, tail int) {
	tail = n % Width
	return n - tail, tail
}

// Lanes returns a fixed-width view of s starting at i. It panics if fewer
// than Width elements remain.
func Lanes(s []float32, i int) *[Width]float32 {
	return (*[Width]float32)(s[i : i+Width])
}

// NativeWidth returns the widest float32 lane count the host CPU supports.
func NativeWidth() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 16
	case cpu.X86.HasAVX2 || cpu.X86.HasAVX:
		return 8
	case cpu.X86.HasSSE2, cpu.ARM64.HasASIMD:
		return 4
	default:
		return 1
	}
}

// Features lists the vector extensions detected on the host, e.g. "sse2,avx,avx2".
func Features() string {
	var f []string
	add := func(ok bool, name string) {
		if ok {
			f = append(f, name)
		}
	}
	add(cpu.X86.HasSSE2, "sse2")
	add(cpu.X86.HasSSE41, "sse4.1")
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasFMA, "fma")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasSVE, "sve")
	if len(f) == 0 {
		return "none"
	}
	return strings.Join(f, ",")
}
