package tour

import "math"

// Ease is the quadratic ease-in-out curve used for camera pans.
func Ease(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
