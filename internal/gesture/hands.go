package gesture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/airtrail/internal/detector"
)

var (
	// ErrMalformedFrame is returned when a detection does not carry exactly
	// detector.NumLandmarks points. The whole frame is dropped.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnknownHandedness is returned for a handedness label other than
	// Left or Right. The whole frame is dropped.
	ErrUnknownHandedness = errors.New("unknown handedness")
)

// EventKind names a gesture transition.
type EventKind string

const (
	PinchStart EventKind = "pinch_start"
	PinchEnd   EventKind = "pinch_end"
	PalmOpened EventKind = "palm_opened"
	PalmClosed EventKind = "palm_closed"
)

// Event is a transition observed during one Update.
type Event struct {
	Side Side      `json:"side"`
	Kind EventKind `json:"kind"`
}

// Result summarizes one Update call.
type Result struct {
	// Detected is the number of hands in the frame.
	Detected int
	// Decayed is true when the frame was empty and palm counters decayed.
	Decayed bool
	// Events lists the transitions caused by this frame, in slot order.
	Events []Event
}

// Hands owns the per-side gesture records. It is advanced once per frame
// from a single goroutine and needs no locking of its own.
type Hands struct {
	thresholds Thresholds
	mapper     Mapper
	slots      [NumSides]*Hand
}

// NewHands creates an empty aggregator. A nil mapper keeps trackers in
// normalized model space.
func NewHands(th Thresholds, mapper Mapper) (*Hands, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	if mapper == nil {
		mapper = Identity
	}
	return &Hands{thresholds: th, mapper: mapper}, nil
}

// SideOf maps a handedness label onto a slot.
func SideOf(label string) (Side, error) {
	switch {
	case strings.EqualFold(label, detector.HandednessRight):
		return Right, nil
	case strings.EqualFold(label, detector.HandednessLeft):
		return Left, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownHandedness, label)
	}
}

// Update feeds one frame of detections. An empty frame decays every open-palm
// counter by one and leaves everything else frozen. A malformed frame returns
// an error and changes nothing.
//
// Records are keyed by label, not by identity: if the model swaps a hand's
// label the detection feeds the other slot, whose counters carry on. When a
// frame holds two detections with the same label the later one wins.
func (h *Hands) Update(frame []detector.HandLandmarks) (Result, error) {
	sides := make([]Side, len(frame))
	for i := range frame {
		if !frame[i].Complete() {
			return Result{}, fmt.Errorf("%w: hand %d has %d landmarks, want %d",
				ErrMalformedFrame, i, len(frame[i].Points), detector.NumLandmarks)
		}
		side, err := SideOf(frame[i].Handedness)
		if err != nil {
			return Result{}, fmt.Errorf("hand %d: %w", i, err)
		}
		sides[i] = side
	}

	before := h.marks()
	res := Result{Detected: len(frame)}

	if len(frame) == 0 {
		for _, hand := range h.slots {
			if hand != nil {
				hand.decay()
			}
		}
		res.Decayed = true
	}

	for i := range frame {
		side := sides[i]
		if h.slots[side] == nil {
			h.slots[side] = newHand(side, &frame[i], h.thresholds, h.mapper)
			continue
		}
		h.slots[side].update(&frame[i], h.thresholds, h.mapper)
	}

	res.Events = h.diff(before)
	return res, nil
}

// Configure applies new thresholds to current and future records. Counters
// are re-clamped, not reset.
func (h *Hands) Configure(th Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	h.thresholds = th
	for _, hand := range h.slots {
		if hand != nil {
			hand.configure(th)
		}
	}
	return nil
}

// SetMapper changes the landmark projection for subsequent frames.
func (h *Hands) SetMapper(mapper Mapper) {
	if mapper == nil {
		mapper = Identity
	}
	h.mapper = mapper
}

// Thresholds returns the active settings.
func (h *Hands) Thresholds() Thresholds { return h.thresholds }

// Hand returns the record for side, or nil if that side was never seen.
func (h *Hands) Hand(side Side) *Hand {
	if side < 0 || int(side) >= NumSides {
		return nil
	}
	return h.slots[side]
}

// Reset forgets both hands.
func (h *Hands) Reset() {
	h.slots = [NumSides]*Hand{}
}

// Snapshot copies the state of every tracked hand in slot order.
func (h *Hands) Snapshot() []HandState {
	states := make([]HandState, 0, NumSides)
	for _, hand := range h.slots {
		if hand != nil {
			states = append(states, hand.State())
		}
	}
	return states
}

type mark struct {
	present    bool
	touching   bool
	palmOpen   bool
	palmClosed bool
}

func (h *Hands) marks() [NumSides]mark {
	var m [NumSides]mark
	for i, hand := range h.slots {
		if hand == nil {
			m[i] = mark{palmClosed: true}
			continue
		}
		m[i] = mark{
			present:    true,
			touching:   hand.Touching(),
			palmOpen:   hand.PalmOpen(),
			palmClosed: hand.PalmClosed(),
		}
	}
	return m
}

func (h *Hands) diff(before [NumSides]mark) []Event {
	var events []Event
	after := h.marks()
	for i := range after {
		side := Side(i)
		b, a := before[i], after[i]
		if !a.present {
			continue
		}
		if a.touching != b.touching {
			kind := PinchEnd
			if a.touching {
				kind = PinchStart
			}
			events = append(events, Event{Side: side, Kind: kind})
		}
		if a.palmOpen && !b.palmOpen {
			events = append(events, Event{Side: side, Kind: PalmOpened})
		}
		if a.palmClosed && !b.palmClosed {
			events = append(events, Event{Side: side, Kind: PalmClosed})
		}
	}
	return events
}
