package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/quadfield/internal/dynamo"
	"github.com/san-kum/quadfield/internal/quad"
)

// PathLength sums the Euclidean distance traveled between observed states.
type PathLength struct {
	name  string
	prev  r3.Vec
	first bool
	total float64
}

func NewPathLength() *PathLength {
	return &PathLength{
		name:  "path_length",
		first: true,
	}
}

func (p *PathLength) Name() string { return p.name }

func (p *PathLength) Observe(x dynamo.State, u dynamo.Control, t float64) {
	pos := quad.Decode(x).Pos
	if !p.first {
		p.total += r3.Norm(r3.Sub(pos, p.prev))
	}
	p.prev = pos
	p.first = false
}

func (p *PathLength) Value() float64 {
	return p.total
}

func (p *PathLength) Reset() {
	p.total = 0
	p.first = true
}
