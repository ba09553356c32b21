// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package r3tess

import (
	"context"

	"github.com/2dChan/r3tess/netmesh"
	"github.com/2dChan/r3tess/powercell"
	"github.com/2dChan/r3tess/spatial"
	"github.com/golang/geo/r3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// cellResult is what a worker produces for one ball.
type cellResult struct {
	cell       powercell.Cell
	candidates int
	net        netmesh.Mesh
}

// computeCells builds every cell of idx. Balls are split into contiguous
// chunks, one goroutine per chunk, each writing only its own slots.
func computeCells(ctx context.Context, idx *spatial.Index, opts *Options) ([]cellResult, error) {
	n := idx.Len()
	res := make([]cellResult, n)

	workers := min(opts.Workers, n)
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			b, err := powercell.NewBuilder(opts.builderOptions()...)
			if err != nil {
				return err
			}
			var cands []spatial.Candidate
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				cands, err = idx.Candidates(i, cands[:0])
				if err != nil {
					return err
				}
				r := &res[i]
				r.candidates = len(cands)
				r.cell = b.Build(i, idx.Sphere(i), cands)
				if opts.Net == NetOn && r.cell.Closed() {
					r.net = buildNet(i, r.cell.NetPoints, opts.Logger)
				}
				// Net points are only needed for the mesh.
				r.cell.NetPoints = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func buildNet(i int, points []r3.Vector, log *zap.Logger) netmesh.Mesh {
	m, err := netmesh.Build(points, 0)
	if err != nil {
		log.Debug("[tess-net] mesh skipped", zap.Int("ball", i), zap.Int("points", len(points)), zap.Error(err))
		return netmesh.Mesh{}
	}
	return m
}
