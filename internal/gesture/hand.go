package gesture

import (
	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/tracking"
)

// Side identifies one of the two hand slots. The numbering follows the
// model's handedness index.
type Side int

const (
	Right Side = 0
	Left  Side = 1
)

// NumSides is the number of hand slots.
const NumSides = 2

func (s Side) String() string {
	switch s {
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a side name, case-insensitively.
func (s *Side) UnmarshalText(b []byte) error {
	side, err := SideOf(string(b))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// Mapper projects a normalized landmark into the space trackers live in,
// typically screen pixels.
type Mapper func(detector.Point3D) detector.Point3D

// Identity leaves landmarks in normalized model space.
func Identity(p detector.Point3D) detector.Point3D { return p }

// Hand is the gesture state of one tracked hand.
type Hand struct {
	side     Side
	trackers []*tracking.Tracker
	pinch    Counter
	palm     Counter
	touching bool
	origin   *detector.Point3D
	updates  int
}

// newHand builds the record for a first sighting and applies that frame.
func newHand(side Side, lm *detector.HandLandmarks, th Thresholds, mapper Mapper) *Hand {
	h := &Hand{
		side:     side,
		trackers: make([]*tracking.Tracker, detector.NumLandmarks),
		pinch:    NewCounter(th.PinchFrames),
		palm:     NewCounter(th.PalmFrames),
	}
	for i, p := range lm.Points {
		h.trackers[i] = tracking.NewTracker(i, mapper(p), th.PointEasing)
	}
	h.update(lm, th, mapper)
	return h
}

// update consumes one complete set of landmarks.
func (h *Hand) update(lm *detector.HandLandmarks, th Thresholds, mapper Mapper) {
	d := planarDistance(lm.Points[detector.ThumbTip], lm.Points[detector.IndexTip])
	switch {
	case d < th.CloseThreshold:
		h.pinch.Inc()
	case d < th.FarThreshold:
		h.pinch.Dec()
	default:
		h.pinch.Reset()
	}
	switch {
	case h.pinch.Full():
		h.touching = true
	case h.pinch.Empty():
		h.touching = false
	}

	h.palm.Step(!h.touching && handOpen(lm, th))

	for i, p := range lm.Points {
		h.trackers[i].Update(mapper(p))
	}

	h.origin = nil
	if h.touching {
		thumb := h.trackers[detector.ThumbTip].Smoothed
		index := h.trackers[detector.IndexTip].Smoothed
		h.origin = &detector.Point3D{
			X: (thumb.X + index.X) / 2,
			Y: (thumb.Y + index.Y) / 2,
		}
	}
	h.updates++
}

// decay is applied for frames with no detections at all.
func (h *Hand) decay() {
	h.palm.Dec()
}

// configure swaps thresholds without resetting the gesture counters.
func (h *Hand) configure(th Thresholds) {
	h.pinch.SetMax(th.PinchFrames)
	h.palm.SetMax(th.PalmFrames)
	for _, t := range h.trackers {
		t.Easing = th.PointEasing
	}
}

// Side returns which slot the hand occupies.
func (h *Hand) Side() Side { return h.side }

// Touching reports the debounced pinch state.
func (h *Hand) Touching() bool { return h.touching }

// Origin returns the drawing cursor, or nil when not pinching.
func (h *Hand) Origin() *detector.Point3D {
	if h.origin == nil {
		return nil
	}
	o := *h.origin
	return &o
}

// PinchCounter returns the pinch hysteresis counter value.
func (h *Hand) PinchCounter() int { return h.pinch.Value() }

// PalmCounter returns the open-palm counter value. Consumers treat the
// extremes as trigger events and the values in between as a transition.
func (h *Hand) PalmCounter() int { return h.palm.Value() }

// PalmOpen reports a confidently open palm (counter at its maximum).
func (h *Hand) PalmOpen() bool { return h.palm.Full() }

// PalmClosed reports a confidently closed palm (counter at zero).
func (h *Hand) PalmClosed() bool { return h.palm.Empty() }

// Point returns the smoothed position of landmark i.
func (h *Hand) Point(i int) detector.Point3D { return h.trackers[i].Smoothed }

// Tracker returns the tracker of landmark i.
func (h *Hand) Tracker(i int) *tracking.Tracker { return h.trackers[i] }

// Updates returns how many frames this hand has consumed.
func (h *Hand) Updates() int { return h.updates }

// HandState is a copy of a hand's exposed state for renderers.
type HandState struct {
	Side         string             `json:"side"`
	Points       []detector.Point3D `json:"points"`
	Touching     bool               `json:"touching"`
	Origin       *detector.Point3D  `json:"origin"`
	PinchCounter int                `json:"pinch_counter"`
	PalmCounter  int                `json:"palm_counter"`
	PalmOpen     bool               `json:"palm_open"`
}

// State copies the hand for consumers outside the frame loop.
func (h *Hand) State() HandState {
	points := make([]detector.Point3D, len(h.trackers))
	for i, t := range h.trackers {
		points[i] = t.Smoothed
	}
	return HandState{
		Side:         h.side.String(),
		Points:       points,
		Touching:     h.touching,
		Origin:       h.Origin(),
		PinchCounter: h.pinch.Value(),
		PalmCounter:  h.palm.Value(),
		PalmOpen:     h.palm.Full(),
	}
}
