package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/output"
)

const defaultWaitTimeout = 30 * time.Second

// resultToText serializes a result to YAML for the MCP response.
func resultToText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func textResult(v interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(resultToText(v)), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

// writeAction runs an input action under the pilot lock and invalidates
// the tree cache, since any input may change the screen.
func (s *Server) writeAction(
	ctx context.Context,
	action string,
	fn func(context.Context) (output.ActionResult, error),
) (*mcp.CallToolResult, error) {
	s.pilotMu.Lock()
	defer s.pilotMu.Unlock()

	result, err := fn(ctx)
	result.Action = action
	s.cache.InvalidateAll()
	if err != nil {
		result.OK = false
		result.Error = err.Error()
		s.logger.Debug("tool failed", "tool", action, "error", err)
		return mcp.NewToolResultError(resultToText(result)), nil
	}
	result.OK = true
	return textResult(result)
}

// readTree returns the tree of one window, or of all windows when window
// is empty. The caller must hold pilotMu.
func (s *Server) readTree(ctx context.Context, window string) (*model.Tree, error) {
	if window == "" {
		return s.cache.Tree("", func() (*model.Tree, error) {
			if err := s.pilot.Refresh(ctx); err != nil {
				return nil, err
			}
			return s.pilot.Tree(), nil
		})
	}
	return s.cache.Tree(window, func() (*model.Tree, error) {
		return s.pilot.DumpWindow(ctx, window)
	})
}

func (s *Server) handleDump(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	window := stringParam(params, "window", "")
	flat := boolParam(params, "flat", false)
	shownOnly := boolParam(params, "shown-only", false)
	text := stringParam(params, "text", "")

	s.pilotMu.Lock()
	defer s.pilotMu.Unlock()

	tree, err := s.readTree(ctx, window)
	if err != nil {
		return errorResult(err)
	}

	elements := model.Elements(tree)
	if shownOnly {
		elements = model.FilterShown(elements)
	}
	if text != "" {
		elements = model.FilterByText(elements, text)
	}

	ts := s.clock.Now().Unix()
	if flat {
		return textResult(output.DumpFlatResult{
			Serial:   s.serial,
			Window:   window,
			TS:       ts,
			Elements: model.FlattenElements(elements),
		})
	}
	return textResult(output.DumpResult{
		Serial:   s.serial,
		Window:   window,
		TS:       ts,
		Elements: elements,
	})
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.pilotMu.Lock()
	defer s.pilotMu.Unlock()

	windows, err := s.pilot.Windows(ctx)
	if err != nil {
		return errorResult(err)
	}
	return textResult(windows)
}

func (s *Server) handleFocus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.pilotMu.Lock()
	defer s.pilotMu.Unlock()

	act, err := s.pilot.FocusedActivity(ctx)
	if err != nil {
		return errorResult(err)
	}
	return textResult(map[string]string{"activity": act})
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := stringParam(params, "text", "")
	exact := boolParam(params, "exact", false)
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	s.pilotMu.Lock()
	defer s.pilotMu.Unlock()

	tree, err := s.readTree(ctx, "")
	if err != nil {
		return errorResult(err)
	}
	flat := model.FlattenElements(model.FilterShown(model.Elements(tree)))
	matches := model.FindFlat(flat, text, exact)
	if matches == nil {
		matches = []model.FlatElement{}
	}
	return textResult(matches)
}

func (s *Server) handleTap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	id := stringParam(params, "id", "")
	text := stringParam(params, "text", "")
	exact := boolParam(params, "exact", false)
	x := intParam(params, "x", -1)
	y := intParam(params, "y", -1)

	return s.writeAction(ctx, "tap", func(ctx context.Context) (output.ActionResult, error) {
		if id == "" && text == "" {
			if x < 0 || y < 0 {
				return output.ActionResult{}, errors.New("specify id, text, or x and y")
			}
			return output.ActionResult{X: x, Y: y}, s.pilot.Tap(ctx, x, y)
		}

		if _, err := s.readTree(ctx, ""); err != nil {
			return output.ActionResult{}, err
		}
		var (
			n      *model.Node
			err    error
			target string
		)
		if id != "" {
			target = "id/" + id
			n, err = s.pilot.ViewByID(id)
		} else {
			target = text
			n, err = s.pilot.ViewByText(text, !exact)
		}
		if err != nil {
			return output.ActionResult{Target: target}, err
		}
		cx, cy := n.Center()
		return output.ActionResult{Target: target, X: cx, Y: cy}, s.pilot.Tap(ctx, cx, cy)
	})
}

func (s *Server) handleDrag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	fromStr := stringParam(params, "from", "")
	toStr := stringParam(params, "to", "")
	steps := intParam(params, "steps", 0)
	durationMs := intParam(params, "duration", 0)

	return s.writeAction(ctx, "drag", func(ctx context.Context) (output.ActionResult, error) {
		from, err := device.ParsePoint(fromStr)
		if err != nil {
			return output.ActionResult{}, err
		}
		to, err := device.ParsePoint(toStr)
		if err != nil {
			return output.ActionResult{}, err
		}
		err = s.pilot.Drag(ctx, from, to, steps, time.Duration(durationMs)*time.Millisecond)
		return output.ActionResult{Target: fromStr + " -> " + toStr, X: to.X, Y: to.Y}, err
	})
}

func (s *Server) handleSwipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dirStr := stringParam(request.GetArguments(), "direction", "")

	return s.writeAction(ctx, "swipe", func(ctx context.Context) (output.ActionResult, error) {
		d, err := device.ParseDirection(dirStr)
		if err != nil {
			return output.ActionResult{}, err
		}
		return output.ActionResult{Target: d.String()}, s.pilot.Swipe(ctx, d)
	})
}

func (s *Server) handleType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := stringParam(request.GetArguments(), "text", "")

	return s.writeAction(ctx, "type", func(ctx context.Context) (output.ActionResult, error) {
		if text == "" {
			return output.ActionResult{}, errors.New("text is required")
		}
		return output.ActionResult{Target: text}, s.pilot.Type(ctx, text)
	})
}

func (s *Server) handlePress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := stringParam(request.GetArguments(), "key", "")

	return s.writeAction(ctx, "press", func(ctx context.Context) (output.ActionResult, error) {
		if key == "" {
			return output.ActionResult{}, errors.New("key is required")
		}
		return output.ActionResult{Target: key}, s.pilot.Press(ctx, key)
	})
}

func (s *Server) handleGetVar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	s.pilotMu.Lock()
	defer s.pilotMu.Unlock()

	value, err := s.pilot.GetVar(ctx, name)
	if err != nil {
		return errorResult(err)
	}
	return textResult(map[string]string{"name": name, "value": value})
}

func (s *Server) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	forText := stringParam(params, "for-text", "")
	forID := stringParam(params, "for-id", "")
	forActivity := stringParam(params, "for-activity", "")
	gone := boolParam(params, "gone", false)
	timeout := defaultWaitTimeout
	if sec := intParam(params, "timeout", 0); sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}

	if forText == "" && forID == "" && forActivity == "" {
		return mcp.NewToolResultError("specify for-text, for-id or for-activity"), nil
	}

	return s.writeAction(ctx, "wait", func(ctx context.Context) (output.ActionResult, error) {
		start := s.clock.Now()
		result := output.ActionResult{Target: describeCondition(forText, forID, forActivity, gone)}

		var err error
		if forActivity != "" {
			err = s.pilot.WaitForActivity(ctx, forActivity, timeout)
		} else {
			err = s.pilot.WaitFor(ctx, func(t *model.Tree) bool {
				found := (forText == "" || t.ByText(forText, true) != nil) &&
					(forID == "" || t.ByID(forID, "id") != nil)
				return found != gone
			}, true, timeout)
		}
		result.Elapsed = fmt.Sprintf("%.1fs", s.clock.Now().Sub(start).Seconds())
		return result, err
	})
}

// describeCondition returns a human-readable description of what was waited for.
func describeCondition(forText, forID, forActivity string, gone bool) string {
	var desc string
	switch {
	case forActivity != "":
		desc = "activity=" + forActivity
	case forText != "" && forID != "":
		desc = fmt.Sprintf("id=%s text=%q", forID, forText)
	case forID != "":
		desc = "id=" + forID
	default:
		desc = fmt.Sprintf("text=%q", forText)
	}
	if gone {
		desc += " (gone)"
	}
	return desc
}

func (s *Server) handleNotifications(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.pilotMu.Lock()
	defer s.pilotMu.Unlock()

	ns, err := s.pilot.Notifications(ctx)
	if err != nil {
		return errorResult(err)
	}
	return textResult(ns)
}

func (s *Server) handleScreenshot(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.pilotMu.Lock()
	defer s.pilotMu.Unlock()

	data, err := s.pilot.Screenshot(ctx)
	if err != nil {
		return errorResult(err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(data),
				MIMEType: "image/png",
			},
		},
	}, nil
}
