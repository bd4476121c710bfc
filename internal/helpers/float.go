package helpers

import "math"

// This wraps float64 math operations. Why does this exist? The Go compiler
// contains some optimizations to take advantage of "fused multiply and add"
// (FMA) instructions on certain processors. These instructions lead to
// different output on those processors, which means esbuild's output is no
// longer deterministic across all platforms. From the Go specification itself
// (https://go.dev/ref/spec#Floating_point_operators):
//
//	An implementation may combine multiple floating-point operations into a
//	single fused operation, possibly across statements, and produce a result
//	that differs from the value obtained by executing and rounding the
//	instructions individually. An explicit floating-point type conversion
//	rounds to the precision of the target type, preventing fusion that would
//	discard that rounding.
//
//	For instance, some architectures provide a "fused multiply and add" (FMA)
//	instruction that computes x*y + z without rounding the intermediate result
//	x*y.
//
// Therefore we need to add explicit type conversions such as "float64(x)" to
// prevent optimizations that break correctness. Rather than adding them on a
// case-by-case basis as real correctness issues are discovered, we instead
// preemptively force them to be added everywhere by using this wrapper type
// for all floating-point math.
//
// Trimmed to the operators internal/passes/constfold.go actually folds
// ("+", "-", "*", "/", "**"); the teacher's wider F64 surface (trig,
// rounding, min/max, lerp, sign-copy, ...) backs peephole optimizations
// this module doesn't implement and has no caller here.
type F64 struct {
	value float64
}

func NewF64(a float64) F64 {
	return F64{value: float64(a)}
}

func (a F64) Value() float64 {
	return a.value
}

func (a F64) Add(b F64) F64 {
	return NewF64(a.value + b.value)
}

func (a F64) Sub(b F64) F64 {
	return NewF64(a.value - b.value)
}

func (a F64) Mul(b F64) F64 {
	return NewF64(a.value * b.value)
}

func (a F64) Div(b F64) F64 {
	return NewF64(a.value / b.value)
}

func (a F64) Pow(b F64) F64 {
	return NewF64(math.Pow(a.value, b.value))
}
