// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package r3tess

import (
	"cmp"
	"math"
	"slices"

	"github.com/2dChan/r3tess/netmesh"
	"go.uber.org/zap"
)

type pairKey struct {
	a, b int
}

func comparePairs(x, y pairKey) int {
	return cmp.Or(cmp.Compare(x.a, y.a), cmp.Compare(x.b, y.b))
}

// pairSide sums the faces one ball sees towards the other, over all
// periodic images.
type pairSide struct {
	area, arc float64
	resolved  bool
}

// pair holds side 0 seen from ball a and side 1 seen from ball b.
type pair struct {
	sides [2]pairSide
}

// mean averages the sides that resolved the face.
func (p *pair) mean() (area, arc float64) {
	cnt := 0
	for _, s := range p.sides {
		if s.resolved {
			area += s.area
			arc += s.arc
			cnt++
		}
	}
	if cnt == 0 {
		return 0, 0
	}
	return area / float64(cnt), arc / float64(cnt)
}

func (p *pair) mismatch() bool {
	s0, s1 := p.sides[0], p.sides[1]
	if !s0.resolved || !s1.resolved {
		return false
	}
	scale := math.Max(s0.area, s1.area)
	return math.Abs(s0.area-s1.area) > mismatchTolerance*scale
}

// assemble merges the per-ball results into contacts and cells.
func (t *Tessellation) assemble(res []cellResult, log *zap.Logger) {
	n := len(res)
	pairs := make(map[pairKey]*pair)
	var keys []pairKey
	for i := range res {
		c := &res[i].cell
		t.Stats.Candidates += res[i].candidates
		t.Stats.DegenerateFaces += c.Degenerate
		if c.Hidden {
			t.Stats.HiddenBalls++
			continue
		}
		for _, f := range c.Faces {
			if f.SelfContact(i) {
				t.Stats.SelfContacts++
				continue
			}
			k, side := pairKey{a: i, b: f.Neighbor}, 0
			if f.Neighbor < i {
				k, side = pairKey{a: f.Neighbor, b: i}, 1
			}
			p, ok := pairs[k]
			if !ok {
				p = &pair{}
				pairs[k] = p
				keys = append(keys, k)
			}
			s := &p.sides[side]
			s.area += f.Area
			s.arc += f.ArcLength
			s.resolved = true
		}
	}
	slices.SortFunc(keys, comparePairs)

	inContact := make([]bool, n)
	for _, k := range keys {
		p := pairs[k]
		if p.mismatch() {
			t.Stats.ContactMismatches++
			log.Debug("[tess-pair] sides disagree",
				zap.Int("a", k.a),
				zap.Int("b", k.b),
				zap.Float64("area_a", p.sides[0].area),
				zap.Float64("area_b", p.sides[1].area),
			)
		}
		area, arc := p.mean()
		if !(area > 0) {
			continue
		}
		t.Contacts = append(t.Contacts, Contact{IndexA: k.a, IndexB: k.b, Area: area, ArcLength: arc})
		inContact[k.a] = true
		inContact[k.b] = true
	}

	for i := range res {
		c := &res[i].cell
		if c.Hidden || (len(c.Faces) == 0 && !inContact[i]) {
			continue
		}
		t.Cells[i] = Cell{SASArea: c.SASArea, Volume: c.Volume, Included: true}
	}

	if t.opts.Net == NetOn {
		t.Nets = make([]netmesh.Mesh, n)
		for i := range res {
			if t.Cells[i].Included {
				t.Nets[i] = res[i].net
			}
		}
	}

	t.buildContactIndex()
}

// buildContactIndex fills the CSR per-ball contact lists.
func (t *Tessellation) buildContactIndex() {
	n := len(t.Cells)
	t.ContactOffsets = make([]int, n+1)
	for _, c := range t.Contacts {
		t.ContactOffsets[c.IndexA+1]++
		t.ContactOffsets[c.IndexB+1]++
	}
	for i := range n {
		t.ContactOffsets[i+1] += t.ContactOffsets[i]
	}

	t.ContactIndices = make([]int, 2*len(t.Contacts))
	nxt := make([]int, n)
	copy(nxt, t.ContactOffsets[:n])
	for k, c := range t.Contacts {
		t.ContactIndices[nxt[c.IndexA]] = k
		nxt[c.IndexA]++
		t.ContactIndices[nxt[c.IndexB]] = k
		nxt[c.IndexB]++
	}
}
