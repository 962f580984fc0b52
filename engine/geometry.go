package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
)

// Point is a stimulus position in cm from the screen center. It is stored as
// a two-element array so list cells stay compact.
type Point struct {
	X, Y float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Hemifield is the sign applied to x coordinates.
type Hemifield int

const (
	Left  Hemifield = -1
	Right Hemifield = 1
)

// Sampler draws well-spaced stimulus positions within one hemifield.
type Sampler struct {
	field Field
	rng   *rand.Rand
}

func NewSampler(field Field, rng *rand.Rand) *Sampler {
	return &Sampler{field: field, rng: rng}
}

// Sample returns n points inside the hemifield rectangle with every pair at
// least MinDist apart. A failing batch is thrown away whole. Parameters that
// cannot be satisfied make this loop forever.
func (s *Sampler) Sample(n int, side Hemifield) []Point {
	if n <= 0 {
		return []Point{}
	}
	pts := make([]Point, n)
	for {
		for i := range pts {
			x := s.field.CenterDist + s.rng.Float64()*s.field.Width
			y := (s.rng.Float64() - 0.5) * s.field.Height
			pts[i] = Point{X: round3(x * float64(side)), Y: round3(y)}
		}
		if spaced(pts, s.field.MinDist) {
			return pts
		}
	}
}

func spaced(pts []Point, minDist float64) bool {
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if pts[i].Dist(pts[j]) < minDist {
				return false
			}
		}
	}
	return true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
