// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package powercell

import (
	"math"
	"math/rand"
	"testing"

	"github.com/2dChan/r3tess/spatial"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

// Options

func TestWithEps(t *testing.T) {
	tests := []struct {
		name    string
		eps     float64
		wantErr bool
	}{
		{"eps positive", 1e-9, false},
		{"eps zero", 0, true},
		{"eps negative", -1, true},
		{"eps one", 1, true},
		{"eps NaN", math.NaN(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &Options{Eps: defaultEps}
			err := WithEps(tt.eps)(opts)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidOption)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.eps, opts.Eps)
		})
	}
}

func TestWithNet(t *testing.T) {
	_, err := NewBuilder(WithNet(3))
	require.ErrorIs(t, err, ErrInvalidOption)
	b, err := NewBuilder(WithNet(100))
	require.NoError(t, err)
	require.Len(t, b.dirs, 100)
}

// Build

func TestBuild_TwoBalls(t *testing.T) {
	spheres := []spatial.Sphere{
		{Center: r3.Vector{}, Radius: 3.4},
		{Center: r3.Vector{X: 1}, Radius: 3.4},
	}
	cells := buildAll(t, spheres)
	for i, c := range cells {
		require.True(t, c.Closed(), "cell %d", i)
		require.True(t, c.CenterInside)
		require.Len(t, c.Faces, 1)
		f := c.Faces[0]
		require.Equal(t, 1-i, f.Neighbor)
		require.InEpsilon(t, 35.53141291210056, f.Area, 1e-9)
		require.InEpsilon(t, 21.130567978766745, f.ArcLength, 1e-9)
		require.InEpsilon(t, 0.5, f.Offset, 1e-12)
		require.InEpsilon(t, 83.31503717320129, c.SASArea, 1e-9)
		require.InEpsilon(t, 100.34561094831156, c.Volume, 1e-9)
	}
}

func TestBuild_Isolated(t *testing.T) {
	b := mustNewBuilder(t)
	c := b.Build(0, spatial.Sphere{Radius: 2}, nil)
	require.False(t, c.Closed())
	require.False(t, c.Hidden)
	require.Empty(t, c.Faces)
	require.InDelta(t, 16*math.Pi, c.SASArea, 1e-9)
	require.InDelta(t, 4.0/3*math.Pi*8, c.Volume, 1e-9)
}

func TestBuild_ZeroRadius(t *testing.T) {
	b := mustNewBuilder(t)
	c := b.Build(0, spatial.Sphere{}, nil)
	require.False(t, c.Closed())
	require.Zero(t, c.SASArea)
	require.Zero(t, c.Volume)
}

func TestBuild_NestedBallIsHidden(t *testing.T) {
	spheres := []spatial.Sphere{
		{Center: r3.Vector{}, Radius: 5},
		{Center: r3.Vector{X: 1}, Radius: 2},
	}
	cells := buildAll(t, spheres)
	require.False(t, cells[0].Hidden)
	require.Empty(t, cells[0].Faces)
	require.InDelta(t, 100*math.Pi, cells[0].SASArea, 1e-9)
	require.True(t, cells[1].Hidden)
	require.Zero(t, cells[1].SASArea)
	require.Zero(t, cells[1].Volume)
}

func TestBuild_CoincidentBalls(t *testing.T) {
	spheres := []spatial.Sphere{
		{Center: r3.Vector{X: 1}, Radius: 2},
		{Center: r3.Vector{X: 1}, Radius: 2},
	}
	cells := buildAll(t, spheres)
	require.False(t, cells[0].Hidden)
	require.True(t, cells[1].Hidden)
}

func TestBuild_CenterOutsideCell(t *testing.T) {
	// A small ball overlapped by a large one: the radical plane passes
	// behind the small center.
	spheres := []spatial.Sphere{
		{Center: r3.Vector{}, Radius: 1},
		{Center: r3.Vector{X: 2.5}, Radius: 3},
	}
	cells := buildAll(t, spheres)
	c := cells[0]
	require.False(t, c.CenterInside)
	require.Len(t, c.Faces, 1)
	require.InDelta(t, -0.35, c.Faces[0].Offset, 1e-12)

	// Spherical cap x < -0.35 of the unit sphere.
	capHeight := 1 - 0.35
	require.InDelta(t, 2*math.Pi*capHeight, c.SASArea, 1e-9)
	wantVol := math.Pi * capHeight * capHeight * (3 - capHeight) / 3
	require.InDelta(t, wantVol, c.Volume, 1e-9)
}

func TestBuild_LatticeInteriorIsCube(t *testing.T) {
	const (
		a = 2.0
		r = 2.0
	)
	var spheres []spatial.Sphere
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				spheres = append(spheres, spatial.Sphere{
					Center: r3.Vector{X: a * float64(x), Y: a * float64(y), Z: a * float64(z)},
					Radius: r,
				})
			}
		}
	}
	cells := buildAll(t, spheres)
	c := cells[13]
	require.Equal(t, r3.Vector{}, c.Center)
	require.Len(t, c.Faces, 6)
	for _, f := range c.Faces {
		require.InDelta(t, a*a, f.Area, 1e-9)
		require.InDelta(t, 0, f.ArcLength, 1e-9)
	}
	require.InDelta(t, a*a*a, c.Volume, 1e-9)
	require.InDelta(t, 0, c.SASArea, 1e-9)
}

func TestBuild_MatchesSampling(t *testing.T) {
	spheres := randomCluster(30, 4, 11)
	cells := buildAll(t, spheres)
	dirs := SphereDirections(40000)

	for _, i := range []int{0, 5, 17, 29} {
		c := cells[i]
		if c.Hidden {
			continue
		}
		s := spheres[i]
		var inside int
		for _, d := range dirs {
			if owns(spheres, i, s.Center.Add(d.Mul(s.Radius))) {
				inside++
			}
		}
		sphereArea := 4 * math.Pi * s.Radius * s.Radius
		wantSAS := sphereArea * float64(inside) / float64(len(dirs))
		require.InDelta(t, wantSAS, c.SASArea, 0.01*sphereArea, "ball %d", i)

		wantVol := sampleVolume(spheres, i, 48)
		ballVol := 4.0 / 3 * math.Pi * s.Radius * s.Radius * s.Radius
		require.InDelta(t, wantVol, c.Volume, 0.02*ballVol, "ball %d", i)
	}
}

func TestBuild_SolidAngleClosure(t *testing.T) {
	spheres := randomCluster(40, 4, 5)
	cells := buildAll(t, spheres)
	for i, c := range cells {
		if !c.Closed() || !c.CenterInside {
			continue
		}
		total := c.SASSolidAngle
		for _, f := range c.Faces {
			total += f.SolidAngle
		}
		require.InDelta(t, 4*math.Pi, total, 1e-6, "ball %d", i)

		flux := c.Radius * c.SASArea
		for _, f := range c.Faces {
			flux += f.Offset * f.Area
		}
		require.InDelta(t, c.Volume, flux/3, 1e-6, "ball %d", i)
	}
}

func TestBuild_PairwiseFacesAgree(t *testing.T) {
	spheres := randomCluster(40, 4, 9)
	cells := buildAll(t, spheres)
	area := make(map[[2]int]float64)
	for i, c := range cells {
		for _, f := range c.Faces {
			area[[2]int{i, f.Neighbor}] += f.Area
		}
	}
	for k, a := range area {
		b := area[[2]int{k[1], k[0]}]
		require.InDelta(t, a, b, 1e-6*math.Max(1, a), "pair %v", k)
	}
}

func TestBuild_ExactStopDoesNotChangeResult(t *testing.T) {
	dirs := []r3.Vector{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}}
	var near, all []spatial.Candidate
	for k, d := range dirs {
		near = append(near, spatial.Candidate{Index: k + 1, Center: d.Mul(2), Radius: 2, Dist: 2})
	}
	all = append(all, near...)
	for k, d := range dirs {
		all = append(all, spatial.Candidate{Index: k + 7, Center: d.Mul(3.5), Radius: 2, Dist: 3.5})
	}

	b := mustNewBuilder(t)
	s := spatial.Sphere{Radius: 2}
	want := b.Build(0, s, near)
	got := b.Build(0, s, all)
	require.Equal(t, 6, got.Skipped)
	require.Equal(t, 6, got.Applied)
	require.Len(t, got.Faces, 6)
	require.InDelta(t, want.Volume, got.Volume, 1e-12)
	require.InDelta(t, want.SASArea, got.SASArea, 1e-12)
	require.InDelta(t, 8, got.Volume, 1e-9)
}

func TestBuild_NetPoints(t *testing.T) {
	spheres := []spatial.Sphere{
		{Center: r3.Vector{}, Radius: 3.4},
		{Center: r3.Vector{X: 1}, Radius: 3.4},
	}
	b, err := NewBuilder(WithNet(500))
	require.NoError(t, err)
	cands := []spatial.Candidate{{Index: 1, Center: spheres[1].Center, Radius: 3.4, Dist: 1}}
	c := b.Build(0, spheres[0], cands)
	require.NotEmpty(t, c.NetPoints)
	for _, p := range c.NetPoints {
		require.LessOrEqual(t, p.X, 0.5+1e-9)
		require.LessOrEqual(t, p.Norm(), 3.4+1e-9)
	}
}

func TestSphereDirections(t *testing.T) {
	dirs := SphereDirections(1000)
	var sum r3.Vector
	for _, d := range dirs {
		require.InDelta(t, 1, d.Norm(), 1e-12)
		sum = sum.Add(d)
	}
	require.Less(t, sum.Norm()/1000, 1e-2)
}

// Benchmarks

func BenchmarkBuild(b *testing.B) {
	spheres := randomCluster(2000, 20, 1)
	idx, err := spatial.NewIndex(spheres)
	if err != nil {
		b.Fatalf("NewIndex(...) error = %v, want nil", err)
	}
	builder, err := NewBuilder()
	if err != nil {
		b.Fatal(err)
	}
	var cands []spatial.Candidate
	b.ReportAllocs()
	for b.Loop() {
		for i := range spheres {
			cands, _ = idx.Candidates(i, cands[:0])
			builder.Build(i, idx.Sphere(i), cands)
		}
	}
}

// Helpers

func mustNewBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder()
	require.NoError(t, err)
	return b
}

func buildAll(t *testing.T, spheres []spatial.Sphere) []Cell {
	t.Helper()
	idx, err := spatial.NewIndex(spheres)
	require.NoError(t, err)
	b := mustNewBuilder(t)
	cells := make([]Cell, len(spheres))
	for i := range spheres {
		cands, err := idx.Candidates(i, nil)
		require.NoError(t, err)
		cells[i] = b.Build(i, idx.Sphere(i), cands)
	}
	return cells
}

func randomCluster(n int, side float64, seed int64) []spatial.Sphere {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	s := make([]spatial.Sphere, n)
	for i := range s {
		s[i] = spatial.Sphere{
			Center: r3.Vector{X: random.Float64() * side, Y: random.Float64() * side, Z: random.Float64() * side},
			Radius: 1.2 + random.Float64(),
		}
	}
	return s
}

func power(s spatial.Sphere, x r3.Vector) float64 {
	return x.Sub(s.Center).Norm2() - s.Radius*s.Radius
}

func owns(spheres []spatial.Sphere, i int, x r3.Vector) bool {
	pi := power(spheres[i], x)
	for j, s := range spheres {
		if j != i && power(s, x) < pi {
			return false
		}
	}
	return true
}

func sampleVolume(spheres []spatial.Sphere, i, n int) float64 {
	s := spheres[i]
	step := 2 * s.Radius / float64(n)
	hits := 0
	for a := range n {
		for b := range n {
			for c := range n {
				x := s.Center.Add(r3.Vector{
					X: -s.Radius + (float64(a)+0.5)*step,
					Y: -s.Radius + (float64(b)+0.5)*step,
					Z: -s.Radius + (float64(c)+0.5)*step,
				})
				if power(s, x) <= 0 && owns(spheres, i, x) {
					hits++
				}
			}
		}
	}
	return float64(hits) * step * step * step
}
