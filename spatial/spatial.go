// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package spatial implements a uniform grid over sphere centers and the
// enumeration of intersecting neighbors, including periodic images.

package spatial

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r3"
)

const (
	defaultMaxShells     = 2
	defaultMaxCandidates = 4096

	// Upper bound on grid buckets per sphere, plus a constant floor.
	cellsPerSphere = 8
	minCells       = 64
)

var (
	// ErrInvalidBox indicates a periodic box with a non-positive edge.
	ErrInvalidBox = errors.New("spatial: periodic box must satisfy lo < hi on every axis")
	// ErrInvalidOption indicates an option argument out of range.
	ErrInvalidOption = errors.New("spatial: invalid option")
	// ErrTooManyImages indicates the interaction cutoff needs more periodic
	// image shells than allowed.
	ErrTooManyImages = errors.New("spatial: interaction range requires too many periodic images")
	// ErrTooManyCandidates indicates a single sphere has more intersecting
	// neighbors than allowed.
	ErrTooManyCandidates = errors.New("spatial: too many candidate neighbors")
)

type Sphere struct {
	Center r3.Vector
	Radius float64
}

// Box is an axis-aligned periodic box [Lo, Hi).
type Box struct {
	Lo, Hi r3.Vector
}

// Size returns the edge lengths of the box.
func (b Box) Size() r3.Vector {
	return b.Hi.Sub(b.Lo)
}

// Valid reports whether every edge of the box is positive and finite.
func (b Box) Valid() bool {
	s := b.Size()
	for _, v := range [3]float64{s.X, s.Y, s.Z} {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Wrap maps p into [Lo, Hi).
func (b Box) Wrap(p r3.Vector) r3.Vector {
	s := b.Size()
	return r3.Vector{
		X: wrap1(p.X, b.Lo.X, s.X),
		Y: wrap1(p.Y, b.Lo.Y, s.Y),
		Z: wrap1(p.Z, b.Lo.Z, s.Z),
	}
}

// Translate returns p shifted by the given number of box edges per axis.
func (b Box) Translate(p r3.Vector, shift [3]int) r3.Vector {
	s := b.Size()
	return r3.Vector{
		X: p.X + float64(shift[0])*s.X,
		Y: p.Y + float64(shift[1])*s.Y,
		Z: p.Z + float64(shift[2])*s.Z,
	}
}

func wrap1(v, lo, size float64) float64 {
	w := math.Mod(v-lo, size)
	if w < 0 {
		w += size
	}
	if w >= size {
		w = 0
	}
	return lo + w
}

// Candidate is a neighbor of a sphere: either the real sphere Index
// (Shift is zero) or its periodic image translated by Shift box edges.
type Candidate struct {
	Index  int
	Shift  [3]int
	Center r3.Vector
	Radius float64
	Dist   float64
}

// IsImage reports whether the candidate is a periodic image.
func (c Candidate) IsImage() bool {
	return c.Shift != [3]int{}
}

// Compare orders candidates by distance, then index, then shift.
func Compare(a, b Candidate) int {
	if a.Dist < b.Dist {
		return -1
	}
	if a.Dist > b.Dist {
		return 1
	}
	if a.Index != b.Index {
		return a.Index - b.Index
	}
	for k := range 3 {
		if a.Shift[k] != b.Shift[k] {
			return a.Shift[k] - b.Shift[k]
		}
	}
	return 0
}

type IndexOptions struct {
	Box           *Box
	MaxShells     int
	MaxCandidates int
}

type IndexOption func(*IndexOptions) error

// WithBox enables periodic boundaries over [lo, hi).
func WithBox(lo, hi r3.Vector) IndexOption {
	return func(o *IndexOptions) error {
		b := Box{Lo: lo, Hi: hi}
		if !b.Valid() {
			return ErrInvalidBox
		}
		o.Box = &b
		return nil
	}
}

// WithMaxShells limits how many box images per axis the cutoff may span.
func WithMaxShells(n int) IndexOption {
	return func(o *IndexOptions) error {
		if n < 1 {
			return fmt.Errorf("%w: max shells %d must be positive", ErrInvalidOption, n)
		}
		o.MaxShells = n
		return nil
	}
}

// WithMaxCandidates limits the number of candidates per sphere.
func WithMaxCandidates(n int) IndexOption {
	return func(o *IndexOptions) error {
		if n < 1 {
			return fmt.Errorf("%w: max candidates %d must be positive", ErrInvalidOption, n)
		}
		o.MaxCandidates = n
		return nil
	}
}

// Index buckets sphere centers into a uniform grid. It is immutable after
// NewIndex and safe for concurrent queries.
type Index struct {
	spheres  []Sphere
	periodic bool
	box      Box
	size     r3.Vector

	origin r3.Vector
	edge   [3]float64
	dims   [3]int
	reach  [3]int

	// NOTE: CSR layout, bucket b holds items[start[b]:start[b+1]].
	start  []int
	items  []int
	coords [][3]int

	maxRadius     float64
	maxCandidates int
}

// NewIndex builds the grid for spheres. Centers are wrapped into the box
// when periodic boundaries are enabled.
func NewIndex(spheres []Sphere, setters ...IndexOption) (*Index, error) {
	opts := IndexOptions{
		MaxShells:     defaultMaxShells,
		MaxCandidates: defaultMaxCandidates,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	idx := &Index{
		spheres:       make([]Sphere, len(spheres)),
		maxCandidates: opts.MaxCandidates,
	}
	copy(idx.spheres, spheres)
	for _, s := range spheres {
		idx.maxRadius = math.Max(idx.maxRadius, s.Radius)
	}
	cutoff := 2 * idx.maxRadius

	if opts.Box != nil {
		idx.periodic = true
		idx.box = *opts.Box
		idx.size = idx.box.Size()
		for i := range idx.spheres {
			idx.spheres[i].Center = idx.box.Wrap(idx.spheres[i].Center)
		}
		if err := idx.layoutPeriodic(cutoff, opts.MaxShells); err != nil {
			return nil, err
		}
	} else {
		idx.layoutOpen(cutoff)
	}

	idx.fill()
	return idx, nil
}

func (idx *Index) maxCells() int {
	return cellsPerSphere*len(idx.spheres) + minCells
}

func (idx *Index) layoutOpen(cutoff float64) {
	if len(idx.spheres) == 0 {
		idx.dims = [3]int{1, 1, 1}
		idx.edge = [3]float64{1, 1, 1}
		return
	}
	lo := idx.spheres[0].Center
	hi := lo
	for _, s := range idx.spheres[1:] {
		c := s.Center
		lo = r3.Vector{X: math.Min(lo.X, c.X), Y: math.Min(lo.Y, c.Y), Z: math.Min(lo.Z, c.Z)}
		hi = r3.Vector{X: math.Max(hi.X, c.X), Y: math.Max(hi.Y, c.Y), Z: math.Max(hi.Z, c.Z)}
	}
	idx.origin = lo
	extent := hi.Sub(lo)

	// Cell counts are taken in float64, an int product overflows on sparse
	// input with a tiny cutoff.
	limit := float64(idx.maxCells())
	span := math.Max(extent.X, math.Max(extent.Y, extent.Z))
	edge := math.Max(cutoff, span/limit)
	if edge <= 0 {
		edge = math.Max(1, span)
	}
	for {
		if math.IsInf(edge, 1) {
			idx.dims = [3]int{1, 1, 1}
			break
		}
		n := [3]float64{
			math.Floor(extent.X/edge) + 1,
			math.Floor(extent.Y/edge) + 1,
			math.Floor(extent.Z/edge) + 1,
		}
		if n[0]*n[1]*n[2] <= limit {
			idx.dims = [3]int{int(n[0]), int(n[1]), int(n[2])}
			break
		}
		edge *= 2
	}
	idx.edge = [3]float64{edge, edge, edge}
	idx.reach = [3]int{1, 1, 1}
}

func (idx *Index) layoutPeriodic(cutoff float64, maxShells int) error {
	idx.origin = idx.box.Lo
	size := [3]float64{idx.size.X, idx.size.Y, idx.size.Z}
	limit := float64(idx.maxCells())

	for k := range 3 {
		if cutoff > 0 && math.Ceil(cutoff/size[k]) > float64(maxShells) {
			return fmt.Errorf("%w: cutoff %g over box edge %g needs more than %d shells",
				ErrTooManyImages, cutoff, size[k], maxShells)
		}
		n := 1
		if cutoff > 0 {
			n = max(1, int(math.Min(size[k]/cutoff, limit)))
		}
		idx.dims[k] = n
	}
	for float64(idx.dims[0])*float64(idx.dims[1])*float64(idx.dims[2]) > limit {
		k := 0
		for j := 1; j < 3; j++ {
			if idx.dims[j] > idx.dims[k] {
				k = j
			}
		}
		idx.dims[k] = max(1, idx.dims[k]/2)
	}
	for k := range 3 {
		idx.edge[k] = size[k] / float64(idx.dims[k])
		if cutoff > 0 {
			idx.reach[k] = int(math.Ceil(cutoff / idx.edge[k]))
		}
	}
	return nil
}

func (idx *Index) fill() {
	n := len(idx.spheres)
	numCells := idx.dims[0] * idx.dims[1] * idx.dims[2]
	idx.start = make([]int, numCells+1)
	idx.items = make([]int, n)
	idx.coords = make([][3]int, n)

	for i, s := range idx.spheres {
		c := idx.coord(s.Center)
		idx.coords[i] = c
		idx.start[idx.flat(c)+1]++
	}
	for b := range numCells {
		idx.start[b+1] += idx.start[b]
	}
	nxt := make([]int, numCells)
	copy(nxt, idx.start[:numCells])
	for i, c := range idx.coords {
		b := idx.flat(c)
		idx.items[nxt[b]] = i
		nxt[b]++
	}
}

func (idx *Index) coord(p r3.Vector) [3]int {
	rel := p.Sub(idx.origin)
	v := [3]float64{rel.X, rel.Y, rel.Z}
	var c [3]int
	for k := range 3 {
		c[k] = min(max(int(v[k]/idx.edge[k]), 0), idx.dims[k]-1)
	}
	return c
}

func (idx *Index) flat(c [3]int) int {
	return (c[2]*idx.dims[1]+c[1])*idx.dims[0] + c[0]
}

// Len returns the number of indexed spheres.
func (idx *Index) Len() int {
	return len(idx.spheres)
}

// Sphere returns sphere i; under periodic boundaries its center is wrapped.
func (idx *Index) Sphere(i int) Sphere {
	return idx.spheres[i]
}

// MaxRadius returns the largest radius among the indexed spheres.
func (idx *Index) MaxRadius() float64 {
	return idx.maxRadius
}

// Periodic reports whether the index wraps around a box.
func (idx *Index) Periodic() bool {
	return idx.periodic
}

// Box returns the periodic box. It is the zero Box for open boundaries.
func (idx *Index) Box() Box {
	return idx.box
}

// Dims returns the number of grid buckets per axis.
func (idx *Index) Dims() [3]int {
	return idx.dims
}

// Candidates appends to dst every sphere, or periodic image, whose surface
// intersects sphere i, sorted with Compare. Sphere i itself is never
// returned unshifted.
func (idx *Index) Candidates(i int, dst []Candidate) ([]Candidate, error) {
	if i < 0 || i >= len(idx.spheres) {
		return dst, fmt.Errorf("Candidates: index %d out of range [0 %d)", i, len(idx.spheres))
	}
	base := len(dst)
	si := idx.spheres[i]
	if si.Radius <= 0 {
		return dst, nil
	}
	ci := idx.coords[i]

	var raw, cell [3]int
	var shift [3]int
	for dz := -idx.reach[2]; dz <= idx.reach[2]; dz++ {
		for dy := -idx.reach[1]; dy <= idx.reach[1]; dy++ {
			for dx := -idx.reach[0]; dx <= idx.reach[0]; dx++ {
				raw = [3]int{ci[0] + dx, ci[1] + dy, ci[2] + dz}
				if !idx.resolve(raw, &cell, &shift) {
					continue
				}
				b := idx.flat(cell)
				for _, j := range idx.items[idx.start[b]:idx.start[b+1]] {
					if j == i && shift == [3]int{} {
						continue
					}
					sj := idx.spheres[j]
					if sj.Radius <= 0 {
						continue
					}
					center := sj.Center
					if shift != [3]int{} {
						center = idx.box.Translate(center, shift)
					}
					reach := si.Radius + sj.Radius
					d2 := center.Sub(si.Center).Norm2()
					if d2 >= reach*reach {
						continue
					}
					dst = append(dst, Candidate{
						Index:  j,
						Shift:  shift,
						Center: center,
						Radius: sj.Radius,
						Dist:   math.Sqrt(d2),
					})
				}
			}
		}
	}

	if len(dst)-base > idx.maxCandidates {
		return dst[:base], fmt.Errorf("%w: sphere %d has %d (limit %d)",
			ErrTooManyCandidates, i, len(dst)-base, idx.maxCandidates)
	}
	slices.SortFunc(dst[base:], Compare)
	return dst, nil
}

// resolve maps a raw bucket coordinate onto a stored bucket. Under periodic
// boundaries the wrap count per axis is returned in shift.
func (idx *Index) resolve(raw [3]int, cell, shift *[3]int) bool {
	for k := range 3 {
		n := idx.dims[k]
		if !idx.periodic {
			if raw[k] < 0 || raw[k] >= n {
				return false
			}
			cell[k] = raw[k]
			shift[k] = 0
			continue
		}
		q := raw[k] / n
		r := raw[k] % n
		if r < 0 {
			r += n
			q--
		}
		cell[k] = r
		shift[k] = q
	}
	return true
}
