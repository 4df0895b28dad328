package game

// Side is which column of the cable puzzle a point sits in.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// CablePoint is one endpoint of the bipartite matching puzzle.
type CablePoint struct {
	ID     int    `json:"id"`
	Side   Side   `json:"side"`
	Color  string `json:"color"`
	Paired bool   `json:"paired"`
}

// CableOutcome reports what a point selection did.
type CableOutcome int

const (
	// CableIgnored: the click changed nothing (game over, unknown point, or
	// an already-paired point).
	CableIgnored CableOutcome = iota
	// CableSelected: the point is now the pending half of a pair.
	CableSelected
	// CableDeselected: clicking the pending point again released it.
	CableDeselected
	// CablePaired: a valid pair was committed.
	CablePaired
	// CableMismatch: colors or sides did not line up; selection cleared.
	CableMismatch
	// CableWon: the committed pair was the last one.
	CableWon
)

// CableGame is the cable-matching puzzle: one left and one right point per
// palette color, right side shuffled. A pair is valid iff colors match and
// sides differ; committed pairs are fixed and leave play.
type CableGame struct {
	points    []CablePoint
	selected  int // pending point id, or -1
	paired    int // committed pairs
	score     int
	pairScore int
	over      bool
	won       bool
}

// NewCableGame lays out the puzzle. Left points keep palette order; right
// point colors are shuffled so the matching is non-trivial.
func NewCableGame(cfg CableConfig, rng RandomSource) *CableGame {
	n := len(cfg.Palette)
	points := make([]CablePoint, 0, 2*n)
	for i, color := range cfg.Palette {
		points = append(points, CablePoint{ID: i, Side: SideLeft, Color: color})
	}
	right := append([]string(nil), cfg.Palette...)
	for i := len(right) - 1; i > 0; i-- {
		j := intn(rng, i+1)
		right[i], right[j] = right[j], right[i]
	}
	for i, color := range right {
		points = append(points, CablePoint{ID: n + i, Side: SideRight, Color: color})
	}
	return &CableGame{
		points:    points,
		selected:  -1,
		pairScore: cfg.PairScore,
	}
}

// Points returns a copy of the puzzle layout.
func (g *CableGame) Points() []CablePoint {
	return append([]CablePoint(nil), g.points...)
}

// Selected returns the pending point id, or -1.
func (g *CableGame) Selected() int { return g.selected }

// Score returns the points earned from committed pairs.
func (g *CableGame) Score() int { return g.score }

// Paired returns how many pairs are committed.
func (g *CableGame) Paired() int { return g.paired }

// Won reports whether every point is paired.
func (g *CableGame) Won() bool { return g.won }

// Over reports whether the puzzle has ended (win or timeout).
func (g *CableGame) Over() bool { return g.over }

// timeout ends the puzzle as a loss.
func (g *CableGame) timeout() {
	g.over = true
}

// Select handles one click on a point and returns what happened.
func (g *CableGame) Select(id int) CableOutcome {
	if g.over || id < 0 || id >= len(g.points) {
		return CableIgnored
	}
	p := &g.points[id]
	if p.Paired {
		return CableIgnored
	}

	if g.selected < 0 {
		g.selected = id
		return CableSelected
	}
	if g.selected == id {
		g.selected = -1
		return CableDeselected
	}

	first := &g.points[g.selected]
	g.selected = -1
	if first.Color != p.Color || first.Side == p.Side {
		return CableMismatch
	}

	first.Paired = true
	p.Paired = true
	g.paired++
	g.score += g.pairScore
	if 2*g.paired == len(g.points) {
		g.over = true
		g.won = true
		return CableWon
	}
	return CablePaired
}
