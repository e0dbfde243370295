package world

import "math"

// Deterministic 2D value noise. Lattice values come from an integer hash of
// (x, z, seed), so the field is a pure function of its inputs.

// Octave is one layer of the height field.
type Octave struct {
	Frequency float64
	Amplitude float64
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func hash2(x, z, seed int64) uint64 {
	// SplitMix64 style integer hash, stable across runs for same inputs
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(z)*0x517CC1B727220A95 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

// latticeValue maps a lattice point to [0,1]
func latticeValue(x, z, seed int64) float64 {
	return float64(hash2(x, z, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

// valueNoise2D returns smoothly interpolated noise in [0,1].
func valueNoise2D(x, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	ix, iz := int64(x0), int64(z0)

	fx := fade(x - x0)
	fz := fade(z - z0)

	v00 := latticeValue(ix, iz, seed)
	v10 := latticeValue(ix+1, iz, seed)
	v01 := latticeValue(ix, iz+1, seed)
	v11 := latticeValue(ix+1, iz+1, seed)

	return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fz)
}

// octaveSum adds amplitude_i * noise(frequency_i * x, frequency_i * z) over
// all octaves, with each octave's noise centred to [-1,1] and given its own
// seed offset.
func octaveSum(x, z float64, seed int64, octaves []Octave) float64 {
	sum := 0.0
	for i, o := range octaves {
		n := valueNoise2D(x*o.Frequency, z*o.Frequency, seed+int64(i*131))
		sum += o.Amplitude * (2*n - 1)
	}
	return sum
}
