package render

import (
	"reflect"
	"testing"

	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/wled"
)

var testDisplay = config.DisplayConfig{
	MinTeamPct:          0.05,
	ContestedZonePixels: 6,
	DarkBufferPixels:    4,
	TransitionMS:        500,
	ChaseSpeed:          185,
	ChaseIntensity:      190,
	DividerPreset:       DividerScanner,
	DividerColor:        config.RGB{200, 80, 0},
}

var (
	homeColors = ColorPair{{24, 48, 40}, {255, 184, 28}}
	awayColors = ColorPair{{11, 22, 42}, {200, 56, 3}}
)

func segmentByName(t *testing.T, state wled.State, name string) wled.Segment {
	t.Helper()
	seg, ok := state.SegmentByName(name)
	if !ok {
		t.Fatalf("no segment named %q", name)
	}
	return seg
}

func TestBattlePlan_Layout(t *testing.T) {
	state := BattlePlan(0.7, homeColors, awayColors, 0, 300, testDisplay)

	home := segmentByName(t, state, SegmentHome)
	away := segmentByName(t, state, SegmentAway)
	divider := segmentByName(t, state, SegmentDivider)

	// 300 total, battle zone 14, usable 286: home floor(286*0.7)=200, away 86.
	if got := home.Stop - home.Start; got != 200 {
		t.Errorf("home width = %d, want 200", got)
	}
	if got := away.Stop - away.Start; got != 86 {
		t.Errorf("away width = %d, want 86", got)
	}
	if got := divider.Stop - divider.Start; got != 6 {
		t.Errorf("divider width = %d, want 6", got)
	}

	if home.Start != 0 {
		t.Errorf("home starts at %d, want 0", home.Start)
	}
	if away.Stop != 300 {
		t.Errorf("away stops at %d, want 300", away.Stop)
	}
	if divider.Start != home.Stop+4 || away.Start != divider.Stop+4 {
		t.Error("dark buffers are not 4 pixels on each side of the divider")
	}

	if home.Reverse {
		t.Error("home segment reversed, want left-to-right")
	}
	if !away.Reverse {
		t.Error("away segment not reversed, want right-to-left")
	}
	if home.Effect != wled.EffectChase2 || away.Effect != wled.EffectChase2 {
		t.Error("team segments must use the chase 2 effect")
	}
	if divider.Effect != wled.EffectScanner || divider.Speed != 180 || divider.Intensity != 200 {
		t.Errorf("divider = fx %d sx %d ix %d, want scanner 180/200", divider.Effect, divider.Speed, divider.Intensity)
	}

	if state.Transition == nil || *state.Transition != 5 {
		t.Error("transition not converted to 100ms device units")
	}
}

func TestBattlePlan_ContiguousCoverage(t *testing.T) {
	for _, pct := range []float64{0, 0.05, 0.25, 0.5, 0.5123, 0.75, 0.95, 1} {
		state := BattlePlan(pct, homeColors, awayColors, 20, 320, testDisplay)

		// Walk real segments in order; every pixel from 0 through the
		// oversized tail must be covered with no gaps or overlaps.
		cursor := 0
		for _, seg := range state.Segments {
			if seg.Stop == 0 {
				continue // deletion marker
			}
			if seg.Start != cursor {
				t.Fatalf("pct %v: segment %d starts at %d, cursor at %d", pct, seg.ID, seg.Start, cursor)
			}
			if seg.Stop <= seg.Start {
				t.Fatalf("pct %v: segment %d has non-positive width", pct, seg.ID)
			}
			cursor = seg.Stop
		}
		if cursor != 9999 {
			t.Fatalf("pct %v: coverage ends at %d, want 9999", pct, cursor)
		}
	}
}

func TestBattlePlan_MinimumDignity(t *testing.T) {
	tests := []struct {
		name string
		pct  float64
	}{
		{"total blowout home", 1.0},
		{"total blowout away", 0.0},
		{"beyond clamp home", 0.99},
		{"beyond clamp away", 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := BattlePlan(tt.pct, homeColors, awayColors, 0, 300, testDisplay)
			home := segmentByName(t, state, SegmentHome)
			away := segmentByName(t, state, SegmentAway)

			// usable 286, clamp 0.05: the floor for either side is 14.
			if got := home.Stop - home.Start; got < 14 {
				t.Errorf("home width = %d, want >= 14", got)
			}
			if got := away.Stop - away.Start; got < 14 {
				t.Errorf("away width = %d, want >= 14", got)
			}
		})
	}
}

func TestBattlePlan_Monotonic(t *testing.T) {
	prev := -1
	for pct := 0.0; pct <= 1.0; pct += 0.01 {
		state := BattlePlan(pct, homeColors, awayColors, 0, 300, testDisplay)
		home := segmentByName(t, state, SegmentHome)
		width := home.Stop - home.Start
		if width < prev {
			t.Fatalf("home width shrank from %d to %d as pct rose to %v", prev, width, pct)
		}
		prev = width
	}
}

func TestBattlePlan_TensionSpeed(t *testing.T) {
	even := BattlePlan(0.5, homeColors, awayColors, 0, 300, testDisplay)
	blowout := BattlePlan(1.0, homeColors, awayColors, 0, 300, testDisplay)

	evenHome := segmentByName(t, even, SegmentHome)
	blowoutHome := segmentByName(t, blowout, SegmentHome)

	if evenHome.Speed != 200 {
		t.Errorf("coin-flip speed = %d, want base+15 = 200", evenHome.Speed)
	}
	if blowoutHome.Speed != 185 {
		t.Errorf("blowout speed = %d, want base 185", blowoutHome.Speed)
	}
}

func TestBattlePlan_Deterministic(t *testing.T) {
	a := BattlePlan(0.42, homeColors, awayColors, 10, 310, testDisplay)
	b := BattlePlan(0.42, homeColors, awayColors, 10, 310, testDisplay)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different documents")
	}
}

func TestBattlePlan_DeletionMarkers(t *testing.T) {
	state := BattlePlan(0.5, homeColors, awayColors, 0, 300, testDisplay)

	// start=0 means no leading blackout: 6 live segments (home, dark,
	// divider, dark, away, tail), so IDs 6..9 must carry markers.
	markers := 0
	for _, seg := range state.Segments {
		if seg.Stop == 0 {
			markers++
			if seg.ID < 6 {
				t.Errorf("deletion marker on live ID %d", seg.ID)
			}
		}
	}
	if markers != 4 {
		t.Errorf("got %d deletion markers, want 4", markers)
	}
}

func TestBattlePlan_LeadingBlackout(t *testing.T) {
	state := BattlePlan(0.5, homeColors, awayColors, 50, 350, testDisplay)

	first := state.Segments[0]
	if first.Start != 0 || first.Stop != 50 || first.Effect != wled.EffectSolid {
		t.Errorf("leading blackout = %+v, want solid [0,50)", first)
	}
	if !reflect.DeepEqual(first.Colors[0], black) {
		t.Error("leading blackout is not black")
	}
}

func TestBattlePlan_DividerPresets(t *testing.T) {
	disp := testDisplay

	disp.DividerPreset = DividerSolid
	state := BattlePlan(0.5, homeColors, awayColors, 0, 300, disp)
	if seg := segmentByName(t, state, SegmentDivider); seg.Effect != wled.EffectSolid {
		t.Errorf("solid preset effect = %d, want %d", seg.Effect, wled.EffectSolid)
	}

	disp.DividerPreset = DividerBlend
	state = BattlePlan(0.5, homeColors, awayColors, 0, 300, disp)
	if seg := segmentByName(t, state, SegmentDivider); seg.Effect != wled.EffectBlend {
		t.Errorf("blend preset effect = %d, want %d", seg.Effect, wled.EffectBlend)
	}
}

func TestPairFromConfig_GrayFallback(t *testing.T) {
	pair := PairFromConfig(nil)
	want := ColorPair{{128, 128, 128}, {64, 64, 64}}
	if pair != want {
		t.Errorf("fallback pair = %v, want neutral grays", pair)
	}

	pair = PairFromConfig([]config.RGB{{1, 2, 3}, {4, 5, 6}})
	if pair != (ColorPair{{1, 2, 3}, {4, 5, 6}}) {
		t.Errorf("configured pair = %v", pair)
	}
}

func TestSolidPlan(t *testing.T) {
	state := SolidPlan(homeColors, 0, 300)

	if len(state.Segments) != maxSegmentID+1 {
		t.Fatalf("got %d segments, want %d", len(state.Segments), maxSegmentID+1)
	}
	seg := state.Segments[0]
	if seg.Effect != wled.EffectChase || seg.Speed != 128 || seg.Intensity != 128 {
		t.Errorf("solid segment = fx %d sx %d ix %d, want gentle chase 128/128", seg.Effect, seg.Speed, seg.Intensity)
	}
	for _, marker := range state.Segments[1:] {
		if marker.Stop != 0 {
			t.Errorf("segment %d is not a deletion marker", marker.ID)
		}
	}
}

func TestFlashFrame(t *testing.T) {
	state := FlashFrame(awayColors, 10, 310)

	if state.Transition == nil || *state.Transition != 0 {
		t.Error("flash frame must be instant")
	}
	seg := state.Segments[0]
	if seg.Start != 10 || seg.Stop != 310 || seg.Effect != wled.EffectSolid {
		t.Errorf("flash segment = %+v", seg)
	}
}
