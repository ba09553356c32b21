// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides deterministic generators of ball centers and radii
// for tests, benchmarks and examples.

package utils

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// GenerateRandomPoints generates points uniformly distributed in the box
// [lo, hi). The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64, lo, hi r3.Vector) []r3.Vector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	size := hi.Sub(lo)
	points := make([]r3.Vector, cnt)

	for i := range cnt {
		points[i] = r3.Vector{
			X: lo.X + random.Float64()*size.X,
			Y: lo.Y + random.Float64()*size.Y,
			Z: lo.Z + random.Float64()*size.Z,
		}
	}

	return points
}

// GenerateRadii generates radii uniformly distributed in [lo, hi).
func GenerateRadii(cnt int, seed int64, lo, hi float64) []float64 {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	radii := make([]float64, cnt)
	for i := range cnt {
		radii[i] = lo + random.Float64()*(hi-lo)
	}
	return radii
}

// GenerateShellPoints generates random points on the sphere with the given
// center and radius.
func GenerateShellPoints(cnt int, seed int64, center r3.Vector, radius float64) []r3.Vector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	points := make([]r3.Vector, cnt)

	for i := range cnt {
		p := s2.PointFromLatLng(s2.LatLng{
			Lat: s1.Angle(math.Asin(2*random.Float64() - 1)),
			Lng: s1.Angle((random.Float64()*2 - 1) * math.Pi),
		})
		points[i] = center.Add(p.Mul(radius))
	}

	return points
}

// CubicLattice returns the n³ nodes origin + spacing·(x, y, z) for
// 0 <= x, y, z < n. Node (x, y, z) has index (x·n + y)·n + z.
func CubicLattice(n int, spacing float64, origin r3.Vector) []r3.Vector {
	if n <= 0 {
		return nil
	}
	points := make([]r3.Vector, 0, n*n*n)
	for x := range n {
		for y := range n {
			for z := range n {
				points = append(points, origin.Add(r3.Vector{
					X: float64(x) * spacing,
					Y: float64(y) * spacing,
					Z: float64(z) * spacing,
				}))
			}
		}
	}
	return points
}
