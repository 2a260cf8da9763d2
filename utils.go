package pan

import "math"

type numeric interface {
	int | int32 | float64
}

func clamp[T numeric](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// gainUnity is the fixed-point gain scale: 256 plays a sample unchanged.
const gainUnity = 256

// velocityGain maps a strike velocity 1..127 to a fixed-point gain.
// The 0.7 exponent is a perceptual curve; a linear map makes soft strikes
// sound disproportionately quiet.
func velocityGain(velocity int) int {
	v := clamp(velocity, 1, 127)
	return int(math.Pow(float64(v)/127.0, 0.7) * gainUnity)
}
