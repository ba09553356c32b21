// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package r3tess computes the radical (power) tessellation of a set of
// balls in R3 restricted to the balls inflated by a rolling probe: per ball
// the solvent accessible surface area and the enclosed volume, per pair of
// touching balls the contact area and the length of its boundary arcs.
// Open and periodic boundaries are supported.

package r3tess

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/2dChan/r3tess/netmesh"
	"github.com/2dChan/r3tess/spatial"
	"github.com/golang/geo/r3"
	"go.uber.org/zap"
)

// Ball is a sphere given by its center and radius. Its identity is the
// position in the input slice.
type Ball struct {
	X, Y, Z, R float64
}

// Center returns the center of the ball.
func (b Ball) Center() r3.Vector {
	return r3.Vector{X: b.X, Y: b.Y, Z: b.Z}
}

// Contact is the face shared by the cells of balls IndexA < IndexB.
type Contact struct {
	IndexA, IndexB int
	Area           float64
	ArcLength      float64
}

// Cell holds the metrics of one ball. Both metrics are zero when the cell
// is not included.
type Cell struct {
	SASArea  float64
	Volume   float64
	Included bool
}

// Stats counts diagnostics gathered during the computation.
type Stats struct {
	// Candidates is the total number of intersecting neighbors, periodic
	// images included.
	Candidates int
	// HiddenBalls counts balls whose cell misses their sphere entirely.
	HiddenBalls int
	// DegenerateFaces counts faces dropped for a near-zero area.
	DegenerateFaces int
	// ContactMismatches counts pairs whose sides disagree on the area.
	ContactMismatches int
	// SelfContacts counts faces between a ball and its own periodic image.
	SelfContacts int
}

type Tessellation struct {
	Probe    float64
	Boundary Boundary
	// Box is set under periodic boundaries only.
	Box   spatial.Box
	Balls []Ball

	// NOTE: Sorted by (IndexA, IndexB).
	Contacts []Contact
	Cells    []Cell
	// Nets is nil unless WithNet is given. Non-included cells have an empty
	// mesh.
	Nets  []netmesh.Mesh
	Stats Stats

	// NOTE: CSR layout, ball i touches
	// Contacts[ContactIndices[ContactOffsets[i]:ContactOffsets[i+1]]].
	ContactIndices []int
	ContactOffsets []int

	opts Options
}

// NewTessellation computes the tessellation of balls inflated by probe.
func NewTessellation(balls []Ball, probe float64, setters ...Option) (*Tessellation, error) {
	return NewTessellationContext(context.Background(), balls, probe, setters...)
}

// NewTessellationContext is like NewTessellation and stops early with the
// context error once ctx is done.
func NewTessellationContext(ctx context.Context, balls []Ball, probe float64, setters ...Option) (*Tessellation, error) {
	opts := defaultOptions()
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	return compute(ctx, balls, probe, opts)
}

// Recompute returns the tessellation of the same balls with the same
// options for another probe radius.
func (t *Tessellation) Recompute(probe float64) (*Tessellation, error) {
	return compute(context.Background(), t.Balls, probe, t.opts)
}

func compute(ctx context.Context, balls []Ball, probe float64, opts Options) (*Tessellation, error) {
	if err := validate(balls, probe); err != nil {
		return nil, err
	}

	start := time.Now()
	n := len(balls)
	t := &Tessellation{
		Probe:          probe,
		Boundary:       opts.Boundary,
		Balls:          slices.Clone(balls),
		Cells:          make([]Cell, n),
		ContactOffsets: make([]int, n+1),
		opts:           opts,
	}
	if opts.Boundary == Periodic {
		t.Box = opts.Box
	}
	if n == 0 {
		return t, nil
	}

	spheres := make([]spatial.Sphere, n)
	for i, b := range balls {
		spheres[i] = spatial.Sphere{Center: b.Center(), Radius: b.R + probe}
	}
	idx, err := spatial.NewIndex(spheres, opts.indexOptions()...)
	if err != nil {
		return nil, fmt.Errorf("r3tess: index: %w", err)
	}

	res, err := computeCells(ctx, idx, &opts)
	if err != nil {
		return nil, err
	}
	t.assemble(res, opts.Logger)

	opts.Logger.Debug("[tess] computed",
		zap.Int("balls", n),
		zap.Stringer("boundary", opts.Boundary),
		zap.Int("contacts", len(t.Contacts)),
		zap.Int("included", t.IncludedCount()),
		zap.Int("hidden", t.Stats.HiddenBalls),
		zap.Int("degenerate_faces", t.Stats.DegenerateFaces),
		zap.Int("mismatches", t.Stats.ContactMismatches),
		zap.Int("self_contacts", t.Stats.SelfContacts),
		zap.Duration("elapsed", time.Since(start)),
	)
	return t, nil
}

// NumCells returns the number of cells, one per ball.
func (t *Tessellation) NumCells() int {
	return len(t.Cells)
}

func (t *Tessellation) NumContacts() int {
	return len(t.Contacts)
}

// BallContacts returns the contacts of ball i in the order of Contacts.
// It returns an error if the index is out of range.
func (t *Tessellation) BallContacts(i int) ([]Contact, error) {
	if i < 0 || i >= len(t.Cells) {
		return nil, fmt.Errorf("BallContacts: index %d out of range [0 %d)", i, len(t.Cells))
	}
	ids := t.ContactIndices[t.ContactOffsets[i]:t.ContactOffsets[i+1]]
	out := make([]Contact, len(ids))
	for k, id := range ids {
		out[k] = t.Contacts[id]
	}
	return out, nil
}

// TotalSASArea returns the SAS area summed over all cells.
func (t *Tessellation) TotalSASArea() float64 {
	var s float64
	for _, c := range t.Cells {
		s += c.SASArea
	}
	return s
}

// TotalVolume returns the volume summed over all cells.
func (t *Tessellation) TotalVolume() float64 {
	var s float64
	for _, c := range t.Cells {
		s += c.Volume
	}
	return s
}

func (t *Tessellation) IncludedCount() int {
	cnt := 0
	for _, c := range t.Cells {
		if c.Included {
			cnt++
		}
	}
	return cnt
}
