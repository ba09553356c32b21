// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package netmesh turns the boundary samples of a cell into a closed
// triangle mesh, the convex hull of the samples.

package netmesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps = 1e-12
)

var (
	ErrDegenerate   = errors.New("netmesh: points do not span a volume")
	ErrInconsistent = errors.New("netmesh: inconsistent number of indices returned from QuickHull")
)

// Mesh is a closed triangle mesh. Triangles are counter-clockwise when
// looking from outside.
type Mesh struct {
	Vertices  []r3.Vector
	Triangles [][3]int
}

// NumTriangles returns the number of triangles in the mesh.
func (m Mesh) NumTriangles() int {
	return len(m.Triangles)
}

// Empty reports whether the mesh has no triangles.
func (m Mesh) Empty() bool {
	return len(m.Triangles) == 0
}

// TriangleVertices returns the corners of triangle i.
// It returns an error if the index is out of range.
func (m Mesh) TriangleVertices(i int) (r3.Vector, r3.Vector, r3.Vector, error) {
	if i < 0 || i >= len(m.Triangles) {
		return r3.Vector{}, r3.Vector{}, r3.Vector{},
			fmt.Errorf("TriangleVertices: index %d out of range [0 %d)", i, len(m.Triangles))
	}
	t := m.Triangles[i]
	return m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]], nil
}

// Area returns the total surface area.
func (m Mesh) Area() float64 {
	var a float64
	for _, t := range m.Triangles {
		p0, p1, p2 := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		a += p1.Sub(p0).Cross(p2.Sub(p0)).Norm() / 2
	}
	return a
}

// Volume returns the enclosed volume.
func (m Mesh) Volume() float64 {
	var v float64
	for _, t := range m.Triangles {
		p0, p1, p2 := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		v += p0.Dot(p1.Cross(p2))
	}
	return v / 6
}

// Build returns the convex hull of points. eps is the QuickHull tolerance;
// zero selects the default.
func Build(points []r3.Vector, eps float64) (Mesh, error) {
	if eps == 0 {
		eps = defaultEps
	}
	if len(points) < 4 {
		return Mesh{}, fmt.Errorf("%w: %d points, minimum 4 required", ErrDegenerate, len(points))
	}
	if !spansVolume(points, eps) {
		return Mesh{}, ErrDegenerate
	}

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(points, true, true, eps)
	if len(ch.Indices) == 0 || len(ch.Indices)%3 != 0 {
		return Mesh{}, ErrInconsistent
	}

	// Compact to the hull vertices, in order of first use.
	remap := make(map[int]int)
	m := Mesh{Triangles: make([][3]int, len(ch.Indices)/3)}
	for i, idx := range ch.Indices {
		v, ok := remap[idx]
		if !ok {
			v = len(m.Vertices)
			remap[idx] = v
			m.Vertices = append(m.Vertices, points[idx])
		}
		m.Triangles[i/3][i%3] = v
	}
	// A closed triangulated surface of genus zero has 2V-4 triangles.
	if len(m.Triangles) != 2*len(m.Vertices)-4 {
		return Mesh{}, ErrInconsistent
	}

	var centroid r3.Vector
	for _, v := range m.Vertices {
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1 / float64(len(m.Vertices)))
	for i := range m.Triangles {
		orientOutward(&m.Triangles[i], m.Vertices, centroid)
	}
	return m, nil
}

func orientOutward(t *[3]int, v []r3.Vector, centroid r3.Vector) {
	p0, p1, p2 := v[t[0]], v[t[1]], v[t[2]]
	norm := p1.Sub(p0).Cross(p2.Sub(p0))
	if norm.Dot(p0.Sub(centroid)) < 0 {
		t[1], t[2] = t[2], t[1]
	}
}

// spansVolume reports whether the points are neither coplanar nor
// collinear, relative to their spread.
func spansVolume(points []r3.Vector, eps float64) bool {
	p0 := points[0]
	p1 := farthest(points, func(p r3.Vector) float64 {
		return p.Sub(p0).Norm2()
	})
	scale := p1.Sub(p0).Norm()
	if scale == 0 {
		return false
	}
	tol := math.Max(eps, 1e-9) * scale

	dir := p1.Sub(p0).Mul(1 / scale)
	p2 := farthest(points, func(p r3.Vector) float64 {
		return p.Sub(p0).Cross(dir).Norm2()
	})
	if p2.Sub(p0).Cross(dir).Norm() <= tol {
		return false
	}

	n := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
	p3 := farthest(points, func(p r3.Vector) float64 {
		return math.Abs(p.Sub(p0).Dot(n))
	})
	return math.Abs(p3.Sub(p0).Dot(n)) > tol
}

func farthest(points []r3.Vector, key func(r3.Vector) float64) r3.Vector {
	best, bestKey := points[0], key(points[0])
	for _, p := range points[1:] {
		if k := key(p); k > bestKey {
			best, bestKey = p, k
		}
	}
	return best
}
