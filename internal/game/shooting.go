package game

import "math"

// Shape is one falling object in the shooting stage.
type Shape struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Speed float64 `json:"speed"`
	Decoy bool    `json:"decoy"`
}

// ShootResult reports what a shot hit.
type ShootResult int

const (
	ShootMiss ShootResult = iota
	ShootTarget
	ShootDecoy
)

// ShootingGame is the timed shooting stage: shapes spawn at random x at the
// top of the playfield and fall at random speed; most are targets, a
// minority decoys. The score is seeded from the cable stage and carries
// through — cumulative, never reset.
type ShootingGame struct {
	cfg    ShootingConfig
	shapes []Shape
	score  int
	over   bool
	won    bool
	nextID int
}

// NewShootingGame starts the stage with the carried-over score.
func NewShootingGame(cfg ShootingConfig, seedScore int) *ShootingGame {
	return &ShootingGame{cfg: cfg, score: seedScore}
}

// Shapes returns a copy of the live shapes.
func (g *ShootingGame) Shapes() []Shape {
	return append([]Shape(nil), g.shapes...)
}

// Score returns the running cumulative score.
func (g *ShootingGame) Score() int { return g.score }

// Won reports the stage outcome under the configured win policy.
func (g *ShootingGame) Won() bool { return g.won }

// Over reports whether the stage has ended.
func (g *ShootingGame) Over() bool { return g.over }

// Spawn drops a new shape at a random horizontal position with a random
// fall speed. The target/decoy split follows the configured ratio.
func (g *ShootingGame) Spawn(rng RandomSource) Shape {
	if g.over {
		return Shape{ID: -1}
	}
	g.nextID++
	shape := Shape{
		ID:    g.nextID,
		X:     rng.Float64() * (g.cfg.Width - g.cfg.ShapeSize),
		Y:     -g.cfg.ShapeSize,
		Speed: g.cfg.MinSpeed + rng.Float64()*g.cfg.SpeedRange,
		Decoy: rng.Float64() >= g.cfg.TargetRatio,
	}
	g.shapes = append(g.shapes, shape)
	return shape
}

// Step advances every shape one frame. Shapes crossing the bottom boundary
// leave play unscored.
func (g *ShootingGame) Step() {
	if g.over {
		return
	}
	kept := g.shapes[:0]
	for _, s := range g.shapes {
		s.Y += s.Speed
		if s.Y > g.cfg.Height {
			continue
		}
		kept = append(kept, s)
	}
	g.shapes = kept
}

// Shoot registers a shot at (x, y). A shape is hit when the point falls
// within its radius plus the configured slack; the newest overlapping shape
// takes the hit and is removed immediately.
func (g *ShootingGame) Shoot(x, y float64) ShootResult {
	if g.over {
		return ShootMiss
	}
	half := g.cfg.ShapeSize / 2
	for i := len(g.shapes) - 1; i >= 0; i-- {
		s := g.shapes[i]
		dx := x - (s.X + half)
		dy := y - (s.Y + half)
		if math.Hypot(dx, dy) >= half+g.cfg.HitSlack {
			continue
		}
		g.shapes = append(g.shapes[:i], g.shapes[i+1:]...)
		if s.Decoy {
			g.score -= g.cfg.DecoyPenalty
			return ShootDecoy
		}
		g.score += g.cfg.HitScore
		return ShootTarget
	}
	return ShootMiss
}

// finish ends the stage and settles the outcome per the configured policy.
func (g *ShootingGame) finish() {
	if g.over {
		return
	}
	g.over = true
	switch g.cfg.WinPolicy {
	case WinAlways:
		g.won = true
	default:
		g.won = g.score >= g.cfg.ScoreGoal
	}
}

// goalReached reports whether an early threshold win is possible.
func (g *ShootingGame) goalReached() bool {
	return g.cfg.WinPolicy == WinThreshold && g.score >= g.cfg.ScoreGoal
}
