package domain

import (
	"strconv"
	"strings"
)

// Miller is an (h,k,l) triple identifying a family of lattice planes.
type Miller struct {
	H int `json:"h" yaml:"h"`
	K int `json:"k" yaml:"k"`
	L int `json:"l" yaml:"l"`
}

// IsZero reports whether all three indices are zero.
func (m Miller) IsZero() bool {
	return m.H == 0 && m.K == 0 && m.L == 0
}

// SumSquares returns h²+k²+l², computed in floating point so indices beyond
// the int range of a square do not wrap.
func (m Miller) SumSquares() float64 {
	h, k, l := float64(m.H), float64(m.K), float64(m.L)

	return h*h + k*k + l*l
}

// Label renders the indices the way they are written on a diffractogram,
// e.g. "(111)" or "(2-20)".
func (m Miller) Label() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(strconv.Itoa(m.H))
	b.WriteString(strconv.Itoa(m.K))
	b.WriteString(strconv.Itoa(m.L))
	b.WriteByte(')')

	return b.String()
}

func (m Miller) String() string { return m.Label() }
