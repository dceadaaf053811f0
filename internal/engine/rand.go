// internal/engine/rand.go
package engine

import "math/rand"

// SystemRand adapts the global math/rand source to the Rand interface.
type SystemRand struct{}

func (SystemRand) Intn(n int) int   { return rand.Intn(n) }
func (SystemRand) Float64() float64 { return rand.Float64() }
