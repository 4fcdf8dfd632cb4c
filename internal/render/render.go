// Package render turns a win probability into a device state document.
//
// The layout is a tug-of-war: home pixels grow from the left, away pixels
// from the right, and between them sits the battle zone (a dark buffer,
// the animated divider, another dark buffer). The boundary moves with the
// home win probability, clamped so neither side ever vanishes.
//
//	home chase | dark | divider | dark | away chase
//
// Rendering is pure: the same inputs always produce the same document, so
// the push loop can diff and skip no-op updates.
package render

import (
	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/wled"
)

// Well-known segment names. Reconciliation recognises a battle layout on
// the device by these.
const (
	SegmentHome    = "home"
	SegmentAway    = "away"
	SegmentDivider = "divider"
)

// Divider preset names accepted in configuration.
const (
	DividerScanner = "scanner"
	DividerSolid   = "solid"
	DividerBlend   = "blend"
)

// speedSwing is how much tension raises the chase speed above its base.
// Close games animate faster than blowouts.
const speedSwing = 15

// maxSegmentID is the highest segment ID cleared with deletion markers.
// Layouts never use more than eight IDs; clearing the rest removes
// leftovers from presets that defined more segments.
const maxSegmentID = 9

// The divider's scanner animation runs at fixed speed and intensity,
// independent of game tension.
const (
	dividerScannerSpeed     = 180
	dividerScannerIntensity = 200
)

// fullBrightness is the per-segment brightness for all rendered segments.
const fullBrightness = 255

var black = [3]uint8{0, 0, 0}

// ColorPair is a team's primary and secondary color.
type ColorPair [2][3]uint8

// PairFromConfig builds a ColorPair from configured team colors.
// Teams without colors get the neutral gray fallback.
func PairFromConfig(colors []config.RGB) ColorPair {
	if len(colors) < 2 {
		return ColorPair{{128, 128, 128}, {64, 64, 64}}
	}
	return ColorPair{colors[0], colors[1]}
}

// BattlePlan builds the full state document for a win probability.
//
// Parameters:
//   - winPct: Home win probability in [0, 1]
//   - home, away: Team colors
//   - start, end: The pixel range this install owns, [start, end)
//   - disp: Display parameters (clamp, zone widths, effects)
//
// Returns:
//   - wled.State: Complete document including blackouts outside the range
//     and deletion markers for unused segment IDs
func BattlePlan(winPct float64, home, away ColorPair, start, end int, disp config.DisplayConfig) wled.State {
	total := end - start
	battleZone := disp.ContestedZonePixels + 2*disp.DarkBufferPixels

	// Minimum dignity: a blowout still leaves the losing side visible.
	clamped := winPct
	if clamped < disp.MinTeamPct {
		clamped = disp.MinTeamPct
	}
	if clamped > 1-disp.MinTeamPct {
		clamped = 1 - disp.MinTeamPct
	}

	homePixels := int(float64(total-battleZone) * clamped)
	awayPixels := total - battleZone - homePixels

	homeEnd := start + homePixels
	darkLeftEnd := homeEnd + disp.DarkBufferPixels
	dividerEnd := darkLeftEnd + disp.ContestedZonePixels
	darkRightEnd := dividerEnd + disp.DarkBufferPixels

	// Tension drives speed from the raw probability: 1 at a coin flip,
	// 0 in a blowout.
	tension := 1 - abs(winPct-0.5)*2
	speed := disp.ChaseSpeed + int(tension*speedSwing)

	segments := make([]wled.Segment, 0, maxSegmentID+1)
	nextID := 0

	if start > 0 {
		segments = append(segments, blackoutSegment(nextID, 0, start))
		nextID++
	}

	if homePixels > 0 {
		segments = append(segments, teamSegment(nextID, SegmentHome, start, homeEnd, home, speed, disp.ChaseIntensity, false))
		nextID++
	}
	if disp.DarkBufferPixels > 0 {
		segments = append(segments, blackoutSegment(nextID, homeEnd, darkLeftEnd))
		nextID++
	}
	if disp.ContestedZonePixels > 0 {
		segments = append(segments, dividerSegment(nextID, darkLeftEnd, dividerEnd, disp))
		nextID++
	}
	if disp.DarkBufferPixels > 0 {
		segments = append(segments, blackoutSegment(nextID, dividerEnd, darkRightEnd))
		nextID++
	}
	if awayPixels > 0 {
		// Away chases right-to-left so both sides push toward the divider.
		segments = append(segments, teamSegment(nextID, SegmentAway, darkRightEnd, end, away, speed, disp.ChaseIntensity, true))
		nextID++
	}

	// Black out pixels past the range. The device clamps the oversized
	// stop to the real strip length.
	segments = append(segments, blackoutSegment(nextID, end, 9999))
	nextID++

	for id := nextID; id <= maxSegmentID; id++ {
		segments = append(segments, wled.DeleteSegment(id))
	}

	return wled.State{
		On:         wled.Bool(true),
		Brightness: wled.Int(fullBrightness),
		Transition: wled.Int(disp.TransitionMS / 100),
		Segments:   segments,
	}
}

// SolidPlan covers the range with a gentle two-color chase, used for
// pre-game team colors and for holding a winner's colors.
func SolidPlan(colors ColorPair, start, end int) wled.State {
	segments := []wled.Segment{{
		ID:         0,
		Start:      start,
		Stop:       end,
		On:         wled.Bool(true),
		Brightness: fullBrightness,
		Grouping:   1,
		Colors:     [][3]uint8{colors[0], colors[1], black},
		Effect:     wled.EffectChase,
		Speed:      128,
		Intensity:  128,
	}}
	for id := 1; id <= maxSegmentID; id++ {
		segments = append(segments, wled.DeleteSegment(id))
	}
	return wled.State{
		On:         wled.Bool(true),
		Brightness: wled.Int(fullBrightness),
		Segments:   segments,
	}
}

// FlashFrame is the "on" half of a winner flash: the whole range in solid
// team colors with no transition. The "off" half is a plain power-off.
func FlashFrame(colors ColorPair, start, end int) wled.State {
	return wled.State{
		On:         wled.Bool(true),
		Brightness: wled.Int(fullBrightness),
		Transition: wled.Int(0),
		Segments: []wled.Segment{{
			ID:         0,
			Start:      start,
			Stop:       end,
			On:         wled.Bool(true),
			Brightness: fullBrightness,
			Grouping:   1,
			Colors:     [][3]uint8{colors[0], colors[1], black},
			Effect:     wled.EffectSolid,
		}},
	}
}

func teamSegment(id int, name string, start, stop int, colors ColorPair, speed, intensity int, reversed bool) wled.Segment {
	return wled.Segment{
		ID:         id,
		Name:       name,
		Start:      start,
		Stop:       stop,
		On:         wled.Bool(true),
		Brightness: fullBrightness,
		Grouping:   1,
		Colors:     [][3]uint8{colors[0], colors[1], black},
		Effect:     wled.EffectChase2,
		Speed:      speed,
		Intensity:  intensity,
		Reverse:    reversed,
	}
}

func dividerSegment(id, start, stop int, disp config.DisplayConfig) wled.Segment {
	seg := wled.Segment{
		ID:         id,
		Name:       SegmentDivider,
		Start:      start,
		Stop:       stop,
		On:         wled.Bool(true),
		Brightness: fullBrightness,
		Grouping:   1,
		Colors:     [][3]uint8{disp.DividerColor, black, black},
	}
	switch disp.DividerPreset {
	case DividerSolid:
		seg.Effect = wled.EffectSolid
	case DividerBlend:
		seg.Effect = wled.EffectBlend
		seg.Speed = dividerScannerSpeed
		seg.Intensity = dividerScannerIntensity
	default:
		seg.Effect = wled.EffectScanner
		seg.Speed = dividerScannerSpeed
		seg.Intensity = dividerScannerIntensity
	}
	return seg
}

func blackoutSegment(id, start, stop int) wled.Segment {
	return wled.Segment{
		ID:         id,
		Start:      start,
		Stop:       stop,
		On:         wled.Bool(true),
		Brightness: fullBrightness,
		Grouping:   1,
		Colors:     [][3]uint8{black, black, black},
		Effect:     wled.EffectSolid,
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
