// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package powercell

import (
	"math"
	"slices"

	"github.com/golang/geo/r3"
)

// Plane is the half-space Normal·x <= Offset. Normal has unit length.
type Plane struct {
	Normal r3.Vector
	Offset float64
}

// Distance returns the signed distance from x to the plane, positive on the
// discarded side.
func (p Plane) Distance(x r3.Vector) float64 {
	return x.Dot(p.Normal) - p.Offset
}

// ClipResult describes what a clip did to a polyhedron.
type ClipResult int

const (
	// Unchanged means the plane does not cut the polyhedron.
	Unchanged ClipResult = iota
	// Cut means the plane removed a part and added a face.
	Cut
	// Emptied means the polyhedron lies entirely on the discarded side.
	Emptied
)

func (r ClipResult) String() string {
	switch r {
	case Unchanged:
		return "unchanged"
	case Cut:
		return "cut"
	case Emptied:
		return "emptied"
	}
	return "unknown"
}

// Face is a convex polygon of a Polyhedron. Loop holds vertex indices in
// counter-clockwise order when looking from outside. ID is the identifier
// passed to Clip, or a negative value for the initial box faces.
type Face struct {
	ID   int
	Loop []int
}

// Polyhedron is a convex polyhedron stored as a vertex arena and faces that
// reference the arena by index. Vertex coordinates are relative to the
// owning cell's center.
type Polyhedron struct {
	Vertices []r3.Vector
	Faces    []Face

	dist  []float64
	remap []int
	cut   []bool
}

// NewCube returns the axis-aligned cube [-half, half]^3. Its faces carry IDs
// -1..-6 in the order -x, +x, -y, +y, -z, +z.
func NewCube(half float64) *Polyhedron {
	p := &Polyhedron{Vertices: make([]r3.Vector, 8)}
	for i := range 8 {
		p.Vertices[i] = r3.Vector{
			X: signBit(i, 0) * half,
			Y: signBit(i, 1) * half,
			Z: signBit(i, 2) * half,
		}
	}
	// NOTE: vertex i has bit k set when coordinate k is positive.
	p.Faces = []Face{
		{ID: -1, Loop: []int{0, 4, 6, 2}},
		{ID: -2, Loop: []int{1, 3, 7, 5}},
		{ID: -3, Loop: []int{0, 1, 5, 4}},
		{ID: -4, Loop: []int{2, 6, 7, 3}},
		{ID: -5, Loop: []int{0, 2, 3, 1}},
		{ID: -6, Loop: []int{4, 5, 7, 6}},
	}
	return p
}

func signBit(i, k int) float64 {
	if i&(1<<k) != 0 {
		return 1
	}
	return -1
}

// CubePlane returns the supporting plane of the initial cube face with the
// given negative ID.
func CubePlane(id int, half float64) Plane {
	axes := [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}
	k := -id - 1
	n := axes[k/2]
	if k%2 == 0 {
		n = n.Mul(-1)
	}
	return Plane{Normal: n, Offset: half}
}

// Empty reports whether the polyhedron has no volume left.
func (p *Polyhedron) Empty() bool {
	return len(p.Faces) == 0
}

// Extent returns the largest distance from the origin to a vertex.
func (p *Polyhedron) Extent() float64 {
	var e float64
	for _, v := range p.Vertices {
		e = math.Max(e, v.Norm2())
	}
	return math.Sqrt(e)
}

// FaceVertices returns the coordinates of face f's loop.
func (p *Polyhedron) FaceVertices(f Face) []r3.Vector {
	out := make([]r3.Vector, len(f.Loop))
	for i, v := range f.Loop {
		out[i] = p.Vertices[v]
	}
	return out
}

// Volume returns the volume of the polyhedron.
func (p *Polyhedron) Volume() float64 {
	var vol float64
	for _, f := range p.Faces {
		a := p.Vertices[f.Loop[0]]
		for k := 1; k+1 < len(f.Loop); k++ {
			b := p.Vertices[f.Loop[k]]
			c := p.Vertices[f.Loop[k+1]]
			vol += a.Dot(b.Cross(c))
		}
	}
	return vol / 6
}

// Clip intersects the polyhedron with the half-space pl and labels the new
// face with id. Vertices within eps of the plane count as lying on it.
// The vertex arena is compacted whenever the polyhedron changes.
func (p *Polyhedron) Clip(pl Plane, id int, eps float64) ClipResult {
	n := len(p.Vertices)
	p.dist = slices.Grow(p.dist[:0], n)[:n]
	in, out := 0, 0
	for i, v := range p.Vertices {
		d := pl.Distance(v)
		p.dist[i] = d
		if d > eps {
			out++
		} else {
			in++
		}
	}
	if out == 0 {
		return Unchanged
	}
	if in == 0 {
		p.Vertices = p.Vertices[:0]
		p.Faces = p.Faces[:0]
		return Emptied
	}

	p.remap = slices.Grow(p.remap[:0], n)[:n]
	for i := range p.remap {
		p.remap[i] = -1
	}
	verts := make([]r3.Vector, 0, n+4)
	p.cut = p.cut[:0]
	mark := func(i int, onPlane bool) {
		for len(p.cut) <= i {
			p.cut = append(p.cut, false)
		}
		p.cut[i] = p.cut[i] || onPlane
	}
	keep := func(i int) int {
		if p.remap[i] < 0 {
			p.remap[i] = len(verts)
			verts = append(verts, p.Vertices[i])
			mark(p.remap[i], p.dist[i] >= -eps)
		}
		return p.remap[i]
	}
	split := make(map[[2]int]int)
	cross := func(a, b int) int {
		key := [2]int{min(a, b), max(a, b)}
		if v, ok := split[key]; ok {
			return v
		}
		da, db := p.dist[a], p.dist[b]
		s := da / (da - db)
		va, vb := p.Vertices[a], p.Vertices[b]
		idx := len(verts)
		verts = append(verts, va.Add(vb.Sub(va).Mul(s)))
		mark(idx, true)
		split[key] = idx
		return idx
	}

	faces := make([]Face, 0, len(p.Faces)+1)
	for _, f := range p.Faces {
		m := len(f.Loop)
		loop := make([]int, 0, m+1)
		for k := range m {
			a, b := f.Loop[k], f.Loop[(k+1)%m]
			ina, inb := p.dist[a] <= eps, p.dist[b] <= eps
			if ina {
				loop = appendDistinct(loop, keep(a))
			}
			if ina == inb {
				continue
			}
			// An endpoint lying on the plane is the crossing itself.
			if ina && p.dist[a] >= -eps {
				continue
			}
			if inb && p.dist[b] >= -eps {
				continue
			}
			loop = appendDistinct(loop, cross(a, b))
		}
		if len(loop) > 1 && loop[0] == loop[len(loop)-1] {
			loop = loop[:len(loop)-1]
		}
		if len(loop) >= 3 {
			faces = append(faces, Face{ID: f.ID, Loop: loop})
		}
	}

	var capLoop []int
	for i, on := range p.cut {
		if on && i < len(verts) {
			capLoop = append(capLoop, i)
		}
	}
	capLoop = orderAround(verts, capLoop, pl.Normal, eps)
	if len(capLoop) >= 3 {
		faces = append(faces, Face{ID: id, Loop: capLoop})
	}

	p.Vertices = verts
	p.Faces = faces
	if len(faces) < 4 {
		// Clipped down to a sliver without volume.
		p.Vertices = p.Vertices[:0]
		p.Faces = p.Faces[:0]
		return Emptied
	}
	return Cut
}

func appendDistinct(loop []int, v int) []int {
	if len(loop) > 0 && loop[len(loop)-1] == v {
		return loop
	}
	return append(loop, v)
}

// orderAround sorts coplanar vertex indices counter-clockwise around normal
// and drops points closer than eps to their predecessor.
func orderAround(verts []r3.Vector, loop []int, normal r3.Vector, eps float64) []int {
	if len(loop) < 3 {
		return loop
	}
	var centroid r3.Vector
	for _, v := range loop {
		centroid = centroid.Add(verts[v])
	}
	centroid = centroid.Mul(1 / float64(len(loop)))
	u := normal.Ortho()
	w := normal.Cross(u)

	angle := make(map[int]float64, len(loop))
	for _, v := range loop {
		d := verts[v].Sub(centroid)
		angle[v] = math.Atan2(d.Dot(w), d.Dot(u))
	}
	slices.SortStableFunc(loop, func(a, b int) int {
		switch {
		case angle[a] < angle[b]:
			return -1
		case angle[a] > angle[b]:
			return 1
		}
		return a - b
	})

	out := loop[:1]
	for _, v := range loop[1:] {
		if verts[v].Sub(verts[out[len(out)-1]]).Norm() > eps {
			out = append(out, v)
		}
	}
	if len(out) > 1 && verts[out[0]].Sub(verts[out[len(out)-1]]).Norm() <= eps {
		out = out[:len(out)-1]
	}
	return out
}
