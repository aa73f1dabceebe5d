package chart

import "sort"

// FDI two-digit tooth numbering. The two sets are disjoint: quadrants 1-4
// cover the permanent dentition, quadrants 5-8 the deciduous one.
var (
	Permanent = []int{
		11, 12, 13, 14, 15, 16, 17, 18,
		21, 22, 23, 24, 25, 26, 27, 28,
		31, 32, 33, 34, 35, 36, 37, 38,
		41, 42, 43, 44, 45, 46, 47, 48,
	}
	Deciduous = []int{
		51, 52, 53, 54, 55,
		61, 62, 63, 64, 65,
		71, 72, 73, 74, 75,
		81, 82, 83, 84, 85,
	}
)

// Tooth holds the clinical notes recorded against a single anatomical
// position. Position is immutable once the tooth is created.
type Tooth struct {
	Position int      `json:"position" bson:"position"`
	Notes    []string `json:"notes" bson:"notes"`
}

// Chart is the per-patient tooth collection, keyed by FDI position.
type Chart map[int]*Tooth

// New returns a chart with one empty-notes tooth per position in both the
// permanent and deciduous sets.
func New() Chart {
	c := make(Chart, len(Permanent)+len(Deciduous))
	for _, n := range Permanent {
		c[n] = &Tooth{Position: n, Notes: []string{}}
	}
	for _, n := range Deciduous {
		c[n] = &Tooth{Position: n, Notes: []string{}}
	}
	return c
}

// Load overwrites the chart entry at the tooth's position. Positions outside
// the numbering scheme are stored as given; no validation beyond indexing.
func (c Chart) Load(t Tooth) {
	notes := t.Notes
	if notes == nil {
		notes = []string{}
	}
	c[t.Position] = &Tooth{Position: t.Position, Notes: notes}
}

// Positions returns the chart's positions in ascending order.
func (c Chart) Positions() []int {
	out := make([]int, 0, len(c))
	for n := range c {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
