// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package r3tess

import (
	"fmt"
	"math"
	"runtime"

	"github.com/2dChan/r3tess/powercell"
	"github.com/2dChan/r3tess/spatial"
	"github.com/golang/geo/r3"
	"go.uber.org/zap"
)

const (
	defaultEps            = 1e-10
	defaultMaxImageShells = 2
	defaultMaxCandidates  = 4096
	defaultNetSamples     = 600

	// Relative disagreement between the two sides of a contact above which
	// the pair is counted as a mismatch.
	mismatchTolerance = 1e-6
)

// Boundary selects how space is closed around the balls.
type Boundary int

const (
	Open Boundary = iota
	Periodic
)

func (b Boundary) String() string {
	switch b {
	case Open:
		return "open"
	case Periodic:
		return "periodic"
	}
	return "unknown"
}

// NetMode selects whether boundary meshes are built for the cells.
type NetMode int

const (
	NetOff NetMode = iota
	NetOn
)

func (n NetMode) String() string {
	switch n {
	case NetOff:
		return "off"
	case NetOn:
		return "on"
	}
	return "unknown"
}

type Options struct {
	Eps            float64
	Boundary       Boundary
	Box            spatial.Box
	Net            NetMode
	Workers        int
	Logger         *zap.Logger
	MaxImageShells int
	MaxCandidates  int
}

type Option func(*Options) error

func defaultOptions() Options {
	return Options{
		Eps:            defaultEps,
		Boundary:       Open,
		Net:            NetOff,
		Workers:        runtime.GOMAXPROCS(0),
		Logger:         zap.NewNop(),
		MaxImageShells: defaultMaxImageShells,
		MaxCandidates:  defaultMaxCandidates,
	}
}

// WithEps sets the relative numeric tolerance, eps must be in (0, 1).
func WithEps(eps float64) Option {
	return func(o *Options) error {
		if !(eps > 0) || eps >= 1 {
			return fmt.Errorf("%w: eps %v must be in (0, 1)", ErrInvalidOption, eps)
		}
		o.Eps = eps
		return nil
	}
}

// WithPeriodicBox enables periodic boundaries over the box [lo, hi).
func WithPeriodicBox(lo, hi r3.Vector) Option {
	return func(o *Options) error {
		for _, v := range [6]float64{lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: box corner %v", ErrNonFinite, v)
			}
		}
		b := spatial.Box{Lo: lo, Hi: hi}
		if !b.Valid() {
			return fmt.Errorf("%w: lo %v, hi %v", ErrInvalidBox, lo, hi)
		}
		o.Boundary = Periodic
		o.Box = b
		return nil
	}
}

// WithNet makes the tessellation build a boundary mesh for every included
// cell. It does not change any metric.
func WithNet() Option {
	return func(o *Options) error {
		o.Net = NetOn
		return nil
	}
}

// WithWorkers sets the number of goroutines computing cells.
func WithWorkers(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return fmt.Errorf("%w: workers %d must be positive", ErrInvalidOption, n)
		}
		o.Workers = n
		return nil
	}
}

// WithLogger sets the logger for debug diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", ErrInvalidOption)
		}
		o.Logger = l
		return nil
	}
}

// WithMaxImageShells limits how many box images per axis one ball may
// reach under periodic boundaries.
func WithMaxImageShells(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return fmt.Errorf("%w: max image shells %d must be positive", ErrInvalidOption, n)
		}
		o.MaxImageShells = n
		return nil
	}
}

// WithMaxCandidates limits the number of intersecting neighbors of a
// single ball, periodic images included.
func WithMaxCandidates(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return fmt.Errorf("%w: max candidates %d must be positive", ErrInvalidOption, n)
		}
		o.MaxCandidates = n
		return nil
	}
}

func (o *Options) indexOptions() []spatial.IndexOption {
	setters := []spatial.IndexOption{
		spatial.WithMaxShells(o.MaxImageShells),
		spatial.WithMaxCandidates(o.MaxCandidates),
	}
	if o.Boundary == Periodic {
		setters = append(setters, spatial.WithBox(o.Box.Lo, o.Box.Hi))
	}
	return setters
}

func (o *Options) builderOptions() []powercell.Option {
	setters := []powercell.Option{powercell.WithEps(o.Eps)}
	if o.Net == NetOn {
		setters = append(setters, powercell.WithNet(defaultNetSamples))
	}
	return setters
}
