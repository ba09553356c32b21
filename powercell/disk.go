// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package powercell

import (
	"math"
)

// Vec2 is a point in the local frame of a face plane, relative to the
// center of the face disk.
type Vec2 struct {
	X, Y float64
}

func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

func (a Vec2) Mul(m float64) Vec2 {
	return Vec2{a.X * m, a.Y * m}
}

func (a Vec2) Dot(b Vec2) float64 {
	return a.X*b.X + a.Y*b.Y
}

func (a Vec2) Cross(b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

func (a Vec2) Norm2() float64 {
	return a.Dot(a)
}

// Angle returns the signed angle from a to b in (-π, π].
func (a Vec2) Angle(b Vec2) float64 {
	return math.Atan2(a.Cross(b), a.Dot(b))
}

// Rotate returns a rotated counter-clockwise by t radians.
func (a Vec2) Rotate(t float64) Vec2 {
	s, c := math.Sincos(t)
	return Vec2{a.X*c - a.Y*s, a.X*s + a.Y*c}
}

// DiskIntegral holds the measures of a convex polygon intersected with a
// disk lying at some height above a sphere center.
type DiskIntegral struct {
	Area       float64
	ArcLength  float64
	SolidAngle float64
}

// piece is a part of a polygon edge, either inside or outside the disk.
type piece struct {
	a, b   Vec2
	inside bool
}

// splitEdge cuts segment ab at its intersections with the circle of
// radius rho centered at the origin.
func splitEdge(a, b Vec2, rho float64, dst []piece) []piece {
	d := b.Sub(a)
	qa := d.Norm2()
	if qa == 0 {
		return dst
	}
	qb := 2 * a.Dot(d)
	qc := a.Norm2() - rho*rho
	disc := qb*qb - 4*qa*qc
	if disc <= 0 {
		return append(dst, piece{a: a, b: b})
	}
	sq := math.Sqrt(disc)
	s1 := (-qb - sq) / (2 * qa)
	s2 := (-qb + sq) / (2 * qa)
	if s2 <= 0 || s1 >= 1 {
		return append(dst, piece{a: a, b: b})
	}

	start := a
	if s1 > 0 {
		start = a.Add(d.Mul(s1))
		dst = append(dst, piece{a: a, b: start})
	}
	end := b
	if s2 < 1 {
		end = a.Add(d.Mul(s2))
	}
	dst = append(dst, piece{a: start, b: end, inside: true})
	if s2 < 1 {
		dst = append(dst, piece{a: end, b: b})
	}
	return dst
}

// IntegrateDisk measures the intersection of a counter-clockwise convex
// polygon with the disk of radius rho centered at the origin. The disk lies
// at distance h from a sphere of radius r whose center projects onto the
// origin, so rho² + h² = r². The solid angle is the one subtended at the
// sphere center and is non-negative for a counter-clockwise polygon.
//
// Every edge contributes a signed triangle with the origin where it runs
// inside the disk and a signed circular sector where it runs outside.
func IntegrateDisk(poly []Vec2, rho, h, r float64) DiskIntegral {
	var res DiskIntegral
	if rho <= 0 || len(poly) < 3 {
		return res
	}
	h = math.Abs(h)
	rho2 := rho * rho
	var pieces []piece
	for i := range poly {
		pieces = splitEdge(poly[i], poly[(i+1)%len(poly)], rho, pieces[:0])
		for _, p := range pieces {
			if p.inside {
				res.Area += p.a.Cross(p.b) / 2
				res.SolidAngle += triangleSolidAngle(p.a, p.b, h)
				continue
			}
			theta := p.a.Angle(p.b)
			res.Area += rho2 * theta / 2
			res.ArcLength += rho * theta
			res.SolidAngle += theta * (1 - h/r)
		}
	}
	res.Area = math.Max(res.Area, 0)
	res.ArcLength = math.Max(res.ArcLength, 0)
	res.SolidAngle = math.Max(res.SolidAngle, 0)
	return res
}

// triangleSolidAngle returns the signed solid angle of the triangle
// (origin, a, b) seen from the point at height h above the origin, using
// the Van Oosterom-Strackee formula.
func triangleSolidAngle(a, b Vec2, h float64) float64 {
	if h == 0 {
		return 0
	}
	h2 := h * h
	la := math.Sqrt(a.Norm2() + h2)
	lb := math.Sqrt(b.Norm2() + h2)
	num := h * a.Cross(b)
	den := h*la*lb + h2*lb + h2*la + (a.Dot(b)+h2)*h
	return 2 * math.Atan2(num, den)
}

// BoundarySamples returns points along the boundary of the polygon ∩ disk
// region: polygon vertices inside the disk, edge/circle crossings and arc
// points spaced at most step radians apart.
func BoundarySamples(poly []Vec2, rho, step float64) []Vec2 {
	if rho <= 0 || len(poly) < 3 {
		return nil
	}
	var out []Vec2
	var pieces []piece
	for i := range poly {
		pieces = splitEdge(poly[i], poly[(i+1)%len(poly)], rho, pieces[:0])
		for _, p := range pieces {
			if p.inside {
				out = append(out, p.a)
				continue
			}
			theta := p.a.Angle(p.b)
			if theta <= 0 {
				continue
			}
			k := int(math.Ceil(theta / step))
			from := p.a.Mul(rho / math.Sqrt(p.a.Norm2()))
			for s := range k {
				q := from.Rotate(theta * float64(s) / float64(k))
				if insideConvex(poly, q, rho*1e-9) {
					out = append(out, q)
				}
			}
		}
	}
	return out
}

func insideConvex(poly []Vec2, q Vec2, tol float64) bool {
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		e := b.Sub(a)
		if e.Cross(q.Sub(a)) < -tol*math.Sqrt(e.Norm2()) {
			return false
		}
	}
	return true
}
