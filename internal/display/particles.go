package display

import (
	"math/rand/v2"
	"sync"
)

// DefaultParticleCount is the number of particles rendered behind the display
const DefaultParticleCount = 30

// Particle is a purely decorative dot. TX and TY are the travel offset in
// pixels, Left and Top the start position in percent of the viewport, Delay
// the animation delay in seconds.
type Particle struct {
	ID    int     `json:"id"`
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
	Left  float64 `json:"left"`
	Top   float64 `json:"top"`
	Delay float64 `json:"delay"`
}

// ParticleField memoizes a generated particle set. The set is regenerated only
// when the requested count changes.
type ParticleField struct {
	mu        sync.Mutex
	rng       *rand.Rand
	count     int
	particles []Particle
}

// NewParticleField generates count particles from seed
func NewParticleField(count int, seed uint64) *ParticleField {
	if count < 0 {
		count = 0
	}
	f := &ParticleField{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	f.count = count
	f.particles = GenerateParticles(count, f.rng)
	return f
}

// Particles returns a copy of the current set
func (f *ParticleField) Particles() []Particle {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Particle, len(f.particles))
	copy(out, f.particles)
	return out
}

// Count returns the current particle count
func (f *ParticleField) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// SetCount changes the particle count. It reports whether the set was
// regenerated.
func (f *ParticleField) SetCount(count int) bool {
	if count < 0 {
		count = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if count == f.count {
		return false
	}
	f.count = count
	f.particles = GenerateParticles(count, f.rng)
	return true
}

// GenerateParticles draws count particles from rng
func GenerateParticles(count int, rng *rand.Rand) []Particle {
	particles := make([]Particle, count)
	for i := range particles {
		particles[i] = Particle{
			ID:    i,
			TX:    (rng.Float64() - 0.5) * 200,
			TY:    (rng.Float64() - 0.5) * 200,
			Left:  rng.Float64() * 100,
			Top:   rng.Float64() * 100,
			Delay: rng.Float64() * 2,
		}
	}
	return particles
}
