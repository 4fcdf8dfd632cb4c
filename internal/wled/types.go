package wled

// Effect IDs from the device firmware's effect table.
const (
	EffectSolid   = 0
	EffectScanner = 16
	EffectChase   = 28
	EffectChase2  = 37
	EffectBlend   = 115
)

// Bool returns a pointer to b. State uses pointer fields so that
// meaningful zero values (off, brightness 0, instant transition)
// survive marshalling.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// State is the device state document exchanged over /json/state.
//
// Pushes are partial updates: nil fields are omitted and left untouched
// on the device. Transition is in 100ms units per the device API.
type State struct {
	On         *bool     `json:"on,omitempty"`
	Brightness *int      `json:"bri,omitempty"`
	Transition *int      `json:"transition,omitempty"`
	PresetID   int       `json:"ps,omitempty"`
	Segments   []Segment `json:"seg,omitempty"`
}

// Segment is one strip segment within a state document.
//
// A segment with Stop set to 0 is a deletion marker: the device removes
// that segment ID instead of updating it.
type Segment struct {
	ID         int        `json:"id"`
	Name       string     `json:"n,omitempty"`
	Start      int        `json:"start"`
	Stop       int        `json:"stop"`
	On         *bool      `json:"on,omitempty"`
	Brightness int        `json:"bri,omitempty"`
	Grouping   int        `json:"grp,omitempty"`
	Spacing    int        `json:"spc,omitempty"`
	Colors     [][3]uint8 `json:"col,omitempty"`
	Effect     int        `json:"fx"`
	Speed      int        `json:"sx"`
	Intensity  int        `json:"ix"`
	Reverse    bool       `json:"rev"`
	Selected   bool       `json:"sel"`
}

// DeleteSegment returns the deletion marker for a segment ID.
func DeleteSegment(id int) Segment {
	return Segment{ID: id, Stop: 0}
}

// Info is the subset of /json/info the orchestrator cares about.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"ver"`
	LEDs    struct {
		Count int `json:"count"`
	} `json:"leds"`
}

// Segment lookup helpers used by state reconciliation.

// SegmentByName returns the first segment with the given name.
func (s *State) SegmentByName(name string) (Segment, bool) {
	for _, seg := range s.Segments {
		if seg.Name == name {
			return seg, true
		}
	}
	return Segment{}, false
}

// IsOn reports whether the state document says the device is powered on.
func (s *State) IsOn() bool {
	return s.On != nil && *s.On
}
