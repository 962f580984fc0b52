package engine

import (
	"encoding/json"
	"testing"
)

func TestSampleSpacing(t *testing.T) {
	field := DefaultConfig().Field
	rng := testRand(1)
	s := NewSampler(field, rng)

	for iter := 0; iter < 200; iter++ {
		n := rng.IntN(6)
		for _, side := range []Hemifield{Left, Right} {
			pts := s.Sample(n, side)
			if len(pts) != n {
				t.Fatalf("expected %d points, got %d", n, len(pts))
			}
			for i, p := range pts {
				if float64(side)*p.X < field.CenterDist-1e-3 || float64(side)*p.X > field.CenterDist+field.Width+1e-3 {
					t.Errorf("x=%v outside hemifield %d", p.X, side)
				}
				if p.Y < -field.Height/2-1e-3 || p.Y > field.Height/2+1e-3 {
					t.Errorf("y=%v outside field", p.Y)
				}
				for _, q := range pts[i+1:] {
					if d := p.Dist(q); d < field.MinDist {
						t.Errorf("points %v and %v only %.3f apart", p, q, d)
					}
				}
			}
		}
	}
}

func TestSampleZero(t *testing.T) {
	s := NewSampler(DefaultConfig().Field, testRand(2))
	pts := s.Sample(0, Left)
	if pts == nil || len(pts) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", pts)
	}
}

func TestSampleRoundsToMillimetreFraction(t *testing.T) {
	s := NewSampler(DefaultConfig().Field, testRand(3))
	for _, p := range s.Sample(4, Right) {
		if p.X != round3(p.X) || p.Y != round3(p.Y) {
			t.Errorf("point %v not rounded to 3 decimals", p)
		}
	}
}

func TestPointJSON(t *testing.T) {
	b, err := json.Marshal([]Point{{X: -2.345, Y: 1.2}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[[-2.345,1.2]]" {
		t.Errorf("expected [[-2.345,1.2]], got %s", b)
	}

	var back []Point
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[0] != (Point{X: -2.345, Y: 1.2}) {
		t.Errorf("expected round trip, got %v", back[0])
	}
}
