package device

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// KeycodeSpace is the Android keycode for the space bar.
const KeycodeSpace = 62

const (
	swipeMargin = 10
	swipeSteps  = 5
)

// Point is a screen coordinate in pixels.
type Point struct {
	X, Y int
}

// ParsePoint parses an "x,y" string.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("invalid point %q: expected x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return Point{X: x, Y: y}, nil
}

// Direction is the direction a swipe moves the finger.
type Direction int

const (
	SwipeLeft Direction = iota
	SwipeRight
	SwipeUp
	SwipeDown
)

// ParseDirection converts a flag value to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "left":
		return SwipeLeft, nil
	case "right":
		return SwipeRight, nil
	case "up":
		return SwipeUp, nil
	case "down":
		return SwipeDown, nil
	default:
		return SwipeLeft, fmt.Errorf("unknown direction: %q (expected left, right, up, or down)", s)
	}
}

func (d Direction) String() string {
	switch d {
	case SwipeRight:
		return "right"
	case SwipeUp:
		return "up"
	case SwipeDown:
		return "down"
	default:
		return "left"
	}
}

// DragPath returns the touch-move positions for a drag from one point to
// another in steps equal parts. Each axis is interpolated independently
// and rounded to the nearest pixel; the last position is the destination.
func DragPath(from, to Point, steps int) []Point {
	if steps <= 0 {
		steps = 1
	}
	path := make([]Point, steps)
	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		path[i-1] = Point{
			X: from.X + int(math.Round(float64(to.X-from.X)*f)),
			Y: from.Y + int(math.Round(float64(to.Y-from.Y)*f)),
		}
	}
	return path
}

// Drag presses at from, moves through steps evenly spaced positions over
// duration and releases at to. Zero steps or duration use the session
// defaults.
func (m *Monkey) Drag(ctx context.Context, from, to Point, steps int, duration time.Duration) error {
	if steps <= 0 {
		steps = m.opts.DragSteps
	}
	if duration <= 0 {
		duration = m.opts.DragDuration
	}
	pause := duration / time.Duration(max(steps, 1))

	if err := m.TouchDown(ctx, from.X, from.Y); err != nil {
		return err
	}
	for _, p := range DragPath(from, to, steps) {
		if err := m.TouchMove(ctx, p.X, p.Y); err != nil {
			return err
		}
		m.clock.Sleep(pause)
	}
	return m.TouchUp(ctx, to.X, to.Y)
}

// SwipePoints returns the start and end of a full-screen swipe on a
// display of the given size.
func SwipePoints(d Direction, width, height int) (from, to Point) {
	midX, midY := width/2, height/2
	switch d {
	case SwipeRight:
		return Point{swipeMargin, midY}, Point{width - swipeMargin, midY}
	case SwipeUp:
		return Point{midX, height - swipeMargin}, Point{midX, swipeMargin}
	case SwipeDown:
		return Point{midX, swipeMargin}, Point{midX, height - swipeMargin}
	default:
		return Point{width - swipeMargin, midY}, Point{swipeMargin, midY}
	}
}

// Swipe drags across the whole screen in the given direction.
func (m *Monkey) Swipe(ctx context.Context, d Direction) error {
	w, h, err := m.DisplaySize(ctx)
	if err != nil {
		return err
	}
	from, to := SwipePoints(d, w, h)
	return m.Drag(ctx, from, to, swipeSteps, m.opts.DragDuration)
}

// TypeCommands returns the monkey commands that enter text. Each run of
// whitespace becomes a single space key press, since the type command
// cannot carry spaces.
func TypeCommands(text string) []string {
	var cmds []string
	for _, run := range splitRuns(text) {
		if unicode.IsSpace([]rune(run)[0]) {
			cmds = append(cmds, "key down "+strconv.Itoa(KeycodeSpace))
		} else {
			cmds = append(cmds, "type "+run)
		}
	}
	return cmds
}

func splitRuns(text string) []string {
	var runs []string
	start := 0
	prevSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i > 0 && space != prevSpace {
			runs = append(runs, text[start:i])
			start = i
		}
		prevSpace = space
	}
	if start < len(text) {
		runs = append(runs, text[start:])
	}
	return runs
}

// Type enters text on the focused input.
func (m *Monkey) Type(ctx context.Context, text string) error {
	for _, cmd := range TypeCommands(text) {
		if err := m.exec(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}
