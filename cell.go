// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package r3tess

import (
	"fmt"

	"github.com/2dChan/r3tess/netmesh"
)

// CellView is a view structure for accessing one cell of a Tessellation.
// The cell's index corresponds to the index of its ball in Balls.
type CellView struct {
	idx int
	t   *Tessellation
}

// Cell returns the view of cell i.
// It returns an error if the index is out of range.
func (t *Tessellation) Cell(i int) (CellView, error) {
	if i < 0 || i >= len(t.Cells) {
		return CellView{}, fmt.Errorf("Cell: index %d out of range [0 %d)", i, len(t.Cells))
	}
	return CellView{idx: i, t: t}, nil
}

// BallIndex returns the index of the ball in the Tessellation's Balls.
func (c CellView) BallIndex() int {
	return c.idx
}

// Ball returns the ball of the cell.
func (c CellView) Ball() Ball {
	return c.t.Balls[c.idx]
}

func (c CellView) SASArea() float64 {
	return c.t.Cells[c.idx].SASArea
}

func (c CellView) Volume() float64 {
	return c.t.Cells[c.idx].Volume
}

func (c CellView) Included() bool {
	return c.t.Cells[c.idx].Included
}

// Net returns the boundary mesh of the cell. It is empty unless the
// tessellation was built WithNet and the cell is included.
func (c CellView) Net() netmesh.Mesh {
	if c.t.Nets == nil {
		return netmesh.Mesh{}
	}
	return c.t.Nets[c.idx]
}

// NumContacts returns the number of contacts of the cell.
// This equals the number of neighbors.
func (c CellView) NumContacts() int {
	return c.t.ContactOffsets[c.idx+1] - c.t.ContactOffsets[c.idx]
}

// ContactIndices returns the indices of the cell's contacts in the
// Tessellation's Contacts, in ascending order.
func (c CellView) ContactIndices() []int {
	return c.t.ContactIndices[c.t.ContactOffsets[c.idx]:c.t.ContactOffsets[c.idx+1]]
}

// Contact returns the contact at the specified index.
// It returns an error if the index is out of range.
func (c CellView) Contact(i int) (Contact, error) {
	start := c.t.ContactOffsets[c.idx]
	end := c.t.ContactOffsets[c.idx+1]
	if i < 0 || i >= end-start {
		return Contact{}, fmt.Errorf("Contact: index %d out of range [0 %d)", i, end-start)
	}
	return c.t.Contacts[c.t.ContactIndices[start+i]], nil
}

// Neighbor returns the cell on the other side of the contact at the
// specified index.
// It returns an error if the index is out of range.
func (c CellView) Neighbor(i int) (CellView, error) {
	ct, err := c.Contact(i)
	if err != nil {
		return CellView{}, fmt.Errorf("Neighbor: %w", err)
	}
	other := ct.IndexA
	if other == c.idx {
		other = ct.IndexB
	}
	return c.t.Cell(other)
}
