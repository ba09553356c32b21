// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package r3tess

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// CellView

func TestTessellation_Cell(t *testing.T) {
	tess := mustNewTessellation(t, randomBalls(20, 6, 0), refProbe)
	for _, i := range []int{-1, tess.NumCells()} {
		if _, err := tess.Cell(i); err == nil {
			t.Errorf("tess.Cell(%d) error = nil, want error", i)
		}
	}
}

func TestCellView_BallIndex(t *testing.T) {
	tess := mustNewTessellation(t, randomBalls(100, 10, 0), refProbe)
	for i := range tess.Balls {
		c := mustCell(t, tess, i)
		if got := c.BallIndex(); got != i {
			t.Errorf("c.BallIndex() = %v, want %v", got, i)
		}
	}
}

func TestCellView_Ball(t *testing.T) {
	tess := mustNewTessellation(t, randomBalls(100, 10, 0), refProbe)
	for i, want := range tess.Balls {
		c := mustCell(t, tess, i)
		if got := c.Ball(); got != want {
			t.Errorf("c.Ball() = %v, want %v", got, want)
		}
	}
}

func TestCellView_Metrics(t *testing.T) {
	tess := mustNewTessellation(t, randomBalls(100, 10, 0), refProbe)
	for i, want := range tess.Cells {
		c := mustCell(t, tess, i)
		got := Cell{SASArea: c.SASArea(), Volume: c.Volume(), Included: c.Included()}
		if got != want {
			t.Errorf("cell %d = %+v, want %+v", i, got, want)
		}
		if !c.Net().Empty() {
			t.Errorf("c.Net() has %d triangles, want empty without WithNet", c.Net().NumTriangles())
		}
	}
}

func TestCellView_NumContacts(t *testing.T) {
	tess := mustNewTessellation(t, randomBalls(100, 10, 0), refProbe)
	total := 0
	for i := range tess.Balls {
		c := mustCell(t, tess, i)
		want := tess.ContactOffsets[i+1] - tess.ContactOffsets[i]
		if got := c.NumContacts(); got != want {
			t.Errorf("c.NumContacts() = %v, want %v", got, want)
		}
		total += c.NumContacts()
	}
	if total != 2*tess.NumContacts() {
		t.Errorf("sum of c.NumContacts() = %v, want %v", total, 2*tess.NumContacts())
	}
}

func TestCellView_ContactIndices(t *testing.T) {
	tess := mustNewTessellation(t, randomBalls(100, 10, 0), refProbe)
	for i := range tess.Balls {
		c := mustCell(t, tess, i)
		want := tess.ContactIndices[tess.ContactOffsets[i]:tess.ContactOffsets[i+1]]
		got := c.ContactIndices()
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("c.ContactIndices() mismatch (-want +got):\n%s", diff)
		}
		for k := 1; k < len(got); k++ {
			if got[k-1] >= got[k] {
				t.Errorf("c.ContactIndices() = %v, want ascending", got)
				break
			}
		}
	}
}

func TestCellView_Contact(t *testing.T) {
	tess := mustNewTessellation(t, randomBalls(100, 10, 0), refProbe)
	for i := range tess.Balls {
		c := mustCell(t, tess, i)
		for j, idx := range c.ContactIndices() {
			want := tess.Contacts[idx]
			got, err := c.Contact(j)
			if err != nil {
				t.Fatalf("c.Contact(%d) error = %v, want nil", j, err)
			}
			if got != want {
				t.Errorf("c.Contact(%d) = %v, want %v", j, got, want)
			}
			if got.IndexA != i && got.IndexB != i {
				t.Errorf("c.Contact(%d) = %v, want a contact of ball %d", j, got, i)
			}
		}

		n := c.NumContacts()
		for _, j := range []int{-1, n} {
			if _, err := c.Contact(j); err == nil {
				t.Errorf("c.Contact(%d) error = nil, want error", j)
			}
		}
	}
}

func TestCellView_Neighbor(t *testing.T) {
	tess := mustNewTessellation(t, randomBalls(100, 10, 0), refProbe)
	for i := range tess.Balls {
		c := mustCell(t, tess, i)
		for j := range c.NumContacts() {
			nc, err := c.Neighbor(j)
			if err != nil {
				t.Fatalf("c.Neighbor(%d) error = %v, want nil", j, err)
			}
			ct, _ := c.Contact(j)
			want := ct.IndexA + ct.IndexB - i
			if got := nc.BallIndex(); got != want {
				t.Errorf("c.Neighbor(%d).BallIndex() = %v, want %v", j, got, want)
			}
		}

		n := c.NumContacts()
		for _, j := range []int{-1, n} {
			if _, err := c.Neighbor(j); err == nil {
				t.Errorf("c.Neighbor(%d) error = nil, want error", j)
			}
		}
	}
}

func TestCellView_Net(t *testing.T) {
	tess := mustNewTessellation(t, []Ball{{R: 2}, {X: 1, R: 2}}, refProbe, WithNet())
	for i := range tess.Balls {
		c := mustCell(t, tess, i)
		if c.Net().Empty() {
			t.Errorf("c.Net() is empty for included cell %d", i)
		}
	}
}

// Helpers

func mustCell(t *testing.T, tess *Tessellation, i int) CellView {
	t.Helper()
	c, err := tess.Cell(i)
	if err != nil {
		t.Fatalf("tess.Cell(%d) error = %v, want nil", i, err)
	}
	return c
}
