package tracking

import "github.com/ayusman/airtrail/internal/detector"

// Range is a closed numeric interval used for depth and size mapping.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Tracker follows a single landmark. Target holds the latest observation and
// Smoothed eases toward it every frame.
type Tracker struct {
	Index    int              `json:"index"`
	Target   detector.Point3D `json:"target"`
	Smoothed detector.Point3D `json:"smoothed"`
	Easing   float64          `json:"-"`
}

// NewTracker creates a tracker whose smoothed position starts at first, so
// there is no lag on the first frame.
func NewTracker(index int, first detector.Point3D, easing float64) *Tracker {
	return &Tracker{
		Index:    index,
		Target:   first,
		Smoothed: first,
		Easing:   easing,
	}
}

// Update records a new target and advances the smoothed position.
func (t *Tracker) Update(target detector.Point3D) {
	t.Target = target
	t.Advance()
}

// Advance eases the smoothed position toward the current target without a
// new observation.
func (t *Tracker) Advance() {
	t.Smoothed = EasePoint(t.Smoothed, t.Target, t.Easing)
}

// Radius maps the smoothed depth from depth onto size, clamped. Closer
// points (more negative z) can be given larger markers by passing a
// descending size range.
func (t *Tracker) Radius(depth, size Range) float64 {
	return Map(t.Smoothed.Z, depth.Min, depth.Max, size.Min, size.Max, true)
}
