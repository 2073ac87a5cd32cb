package market

import "math/rand"

// NoiseSource supplies the random term of each price update.
// It is injected so a run can be replayed exactly from a seed.
type NoiseSource interface {
	Sample() float64
}

// UniformNoise draws from [-Amplitude, Amplitude].
type UniformNoise struct {
	Amplitude float64
	Rand      *rand.Rand
}

func NewUniformNoise(amplitude float64, seed int64) *UniformNoise {
	return &UniformNoise{
		Amplitude: amplitude,
		Rand:      rand.New(rand.NewSource(seed)),
	}
}

func (u *UniformNoise) Sample() float64 {
	if u.Amplitude == 0 {
		return 0
	}
	return (u.Rand.Float64()*2 - 1) * u.Amplitude
}

// FixedNoise always returns the same value.
type FixedNoise float64

func (f FixedNoise) Sample() float64 { return float64(f) }

// SequenceNoise replays Values in order and then repeats the last one.
type SequenceNoise struct {
	Values []float64
	next   int
}

func (s *SequenceNoise) Sample() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	if s.next >= len(s.Values) {
		return s.Values[len(s.Values)-1]
	}
	v := s.Values[s.next]
	s.next++
	return v
}
