// Package utils contains math and parallelism helpers shared by the geometry packages.
package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Math.pow( x, 2 ) is slow, this is faster
func Square(n float64) float64 {
	return n * n
}

// ClampMin returns x bounded below by floor.
func ClampMin(x, floor float64) float64 {
	if x < floor {
		return floor
	}
	return x
}
