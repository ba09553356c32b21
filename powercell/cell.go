// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package powercell builds the power (radical) cell of a single ball
// restricted to its sphere: a convex polyhedron clipped by the radical
// planes of intersecting neighbors, measured face by face against the
// sphere.

package powercell

import (
	"errors"
	"fmt"
	"math"

	"github.com/2dChan/r3tess/spatial"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const (
	defaultEps        = 1e-10
	defaultNetSamples = 600

	// Angular spacing of net samples along face arcs.
	arcStep = 0.15
)

var ErrInvalidOption = errors.New("powercell: invalid option")

type Options struct {
	Eps        float64
	Net        bool
	NetSamples int
}

type Option func(*Options) error

// WithEps sets the relative tolerance. Distances are compared against
// eps·r and areas against eps·r², r being the sphere radius.
func WithEps(eps float64) Option {
	return func(o *Options) error {
		if !(eps > 0) || eps >= 1 {
			return fmt.Errorf("%w: eps %v must be in (0, 1)", ErrInvalidOption, eps)
		}
		o.Eps = eps
		return nil
	}
}

// WithNet makes Build collect boundary sample points, using samples
// directions on the sphere.
func WithNet(samples int) Option {
	return func(o *Options) error {
		if samples < 4 {
			return fmt.Errorf("%w: net samples %d must be at least 4", ErrInvalidOption, samples)
		}
		o.Net = true
		o.NetSamples = samples
		return nil
	}
}

// FaceContact is the part of a radical plane shared with one neighbor
// that lies inside both the cell and the sphere.
type FaceContact struct {
	Neighbor int
	Shift    [3]int
	// Offset is the signed distance from the sphere center to the plane.
	Offset     float64
	Area       float64
	ArcLength  float64
	SolidAngle float64
}

// SelfContact reports whether the face separates the ball from one of its
// own periodic images.
func (f FaceContact) SelfContact(index int) bool {
	return f.Neighbor == index
}

// Cell is the measured power cell of one ball.
type Cell struct {
	Index  int
	Center r3.Vector
	Radius float64

	// Hidden is set when the cell does not reach the sphere at all, e.g. the
	// ball lies inside another ball.
	Hidden bool
	// CenterInside is set when the ball center lies in its own cell.
	CenterInside bool

	Faces         []FaceContact
	SASArea       float64
	SASSolidAngle float64
	Volume        float64

	// Applied counts planes that cut the polyhedron, Skipped the candidates
	// left after the exact stop and Degenerate the faces dropped for a
	// near-zero area.
	Applied    int
	Skipped    int
	Degenerate int

	NetPoints []r3.Vector
}

// ContactArea returns the total area of all faces.
func (c *Cell) ContactArea() float64 {
	var a float64
	for _, f := range c.Faces {
		a += f.Area
	}
	return a
}

// Closed reports whether the cell has at least one contact face.
func (c *Cell) Closed() bool {
	return !c.Hidden && len(c.Faces) > 0
}

type planeRef struct {
	cand  spatial.Candidate
	plane Plane
}

// Builder computes cells one at a time. It keeps scratch buffers, so each
// goroutine needs its own Builder.
type Builder struct {
	opts   Options
	planes []planeRef
	dirs   []r3.Vector
}

func NewBuilder(setters ...Option) (*Builder, error) {
	b := &Builder{
		opts: Options{
			Eps:        defaultEps,
			NetSamples: defaultNetSamples,
		},
	}
	for _, set := range setters {
		if err := set(&b.opts); err != nil {
			return nil, err
		}
	}
	if b.opts.Net {
		b.dirs = SphereDirections(b.opts.NetSamples)
	}
	return b, nil
}

// Build returns the cell of ball index with sphere s. cands must hold every
// intersecting neighbor sorted by spatial.Compare.
func (b *Builder) Build(index int, s spatial.Sphere, cands []spatial.Candidate) Cell {
	c := Cell{Index: index, Center: s.Center, Radius: s.Radius}
	r := s.Radius
	if r <= 0 {
		return c
	}
	eps := b.opts.Eps * r

	rmax := r
	for _, n := range cands {
		if hides(index, s, n, eps) {
			c.Hidden = true
			return c
		}
		rmax = math.Max(rmax, n.Radius)
	}

	poly := NewCube(r)
	b.planes = b.planes[:0]
	extent := math.Min(poly.Extent(), r)
	for k, n := range cands {
		d := n.Dist
		if d <= eps || d+n.Radius <= r {
			continue
		}
		// The nearest possible plane of any later candidate. It grows with d
		// because rmax >= r.
		if (d*d+r*r-rmax*rmax)/(2*d) >= extent {
			c.Skipped = len(cands) - k
			break
		}
		h := (d*d + r*r - n.Radius*n.Radius) / (2 * d)
		if h >= extent {
			continue
		}
		normal := n.Center.Sub(s.Center).Mul(1 / d)
		id := len(b.planes)
		b.planes = append(b.planes, planeRef{cand: n, plane: Plane{Normal: normal, Offset: h}})

		switch poly.Clip(b.planes[id].plane, id, eps) {
		case Emptied:
			c.Hidden = true
			return c
		case Cut:
			c.Applied++
			extent = math.Min(poly.Extent(), r)
		}
	}

	b.measure(&c, poly)
	return c
}

// hides reports whether neighbor n leaves no room for the ball on its
// sphere. Coincident equal balls keep the lowest index.
func hides(index int, s spatial.Sphere, n spatial.Candidate, eps float64) bool {
	if n.Dist <= eps {
		return n.Radius > s.Radius || (n.Radius == s.Radius && n.Index < index)
	}
	return n.Dist+s.Radius <= n.Radius
}

func (b *Builder) measure(c *Cell, poly *Polyhedron) {
	r := c.Radius
	areaEps := b.opts.Eps * r * r

	c.CenterInside = true
	var omega, flux float64
	for _, f := range poly.Faces {
		if f.ID < 0 {
			continue
		}
		ref := b.planes[f.ID]
		h := ref.plane.Offset
		if h < 0 {
			c.CenterInside = false
		}
		rho2 := r*r - h*h
		if rho2 <= 0 {
			continue
		}
		rho := math.Sqrt(rho2)

		fr := newFrame(ref.plane)
		loop := fr.project(poly.FaceVertices(f))
		in := IntegrateDisk(loop, rho, h, r)
		if h < 0 {
			omega -= in.SolidAngle
		} else {
			omega += in.SolidAngle
		}
		flux += h * in.Area

		if in.Area <= areaEps {
			if in.Area > 0 {
				c.Degenerate++
			}
			continue
		}
		c.Faces = append(c.Faces, FaceContact{
			Neighbor:   ref.cand.Index,
			Shift:      ref.cand.Shift,
			Offset:     h,
			Area:       in.Area,
			ArcLength:  in.ArcLength,
			SolidAngle: in.SolidAngle,
		})
		if b.opts.Net {
			for _, q := range BoundarySamples(loop, rho, arcStep) {
				c.NetPoints = append(c.NetPoints, c.Center.Add(fr.lift(q)))
			}
		}
	}

	var full float64
	if c.CenterInside {
		full = 4 * math.Pi
	}
	c.SASSolidAngle = math.Max(0, full-omega)
	c.SASArea = r * r * c.SASSolidAngle
	c.Volume = math.Max(0, (r*c.SASArea+flux)/3)

	if b.opts.Net && len(c.Faces) > 0 {
		eps := b.opts.Eps * r
		for _, d := range b.dirs {
			p := d.Mul(r)
			if b.contains(poly, p, eps) {
				c.NetPoints = append(c.NetPoints, c.Center.Add(p))
			}
		}
	}
}

func (b *Builder) contains(poly *Polyhedron, p r3.Vector, eps float64) bool {
	for _, f := range poly.Faces {
		if f.ID < 0 {
			continue
		}
		if b.planes[f.ID].plane.Distance(p) > eps {
			return false
		}
	}
	return true
}

// frame is an orthonormal basis of a face plane with its origin at the
// foot of the perpendicular from the sphere center.
type frame struct {
	origin, u, v r3.Vector
}

func newFrame(pl Plane) frame {
	u := pl.Normal.Ortho()
	return frame{
		origin: pl.Normal.Mul(pl.Offset),
		u:      u,
		v:      pl.Normal.Cross(u),
	}
}

func (f frame) project(pts []r3.Vector) []Vec2 {
	out := make([]Vec2, len(pts))
	for i, p := range pts {
		d := p.Sub(f.origin)
		out[i] = Vec2{X: d.Dot(f.u), Y: d.Dot(f.v)}
	}
	return out
}

func (f frame) lift(q Vec2) r3.Vector {
	return f.origin.Add(f.u.Mul(q.X)).Add(f.v.Mul(q.Y))
}

// SphereDirections returns n unit vectors spread over the sphere along a
// Fibonacci spiral.
func SphereDirections(n int) []r3.Vector {
	golden := math.Pi * (3 - math.Sqrt(5))
	dirs := make([]r3.Vector, n)
	for i := range n {
		z := 1 - (2*float64(i)+1)/float64(n)
		ll := s2.LatLng{
			Lat: s1.Angle(math.Asin(z)),
			Lng: s1.Angle(math.Remainder(golden*float64(i), 2*math.Pi)),
		}
		dirs[i] = s2.PointFromLatLng(ll).Vector
	}
	return dirs
}
