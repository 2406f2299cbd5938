package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/pilot"
)

// DoResult is the output of a batch do command.
type DoResult struct {
	OK        bool         `yaml:"ok"              json:"ok"`
	Action    string       `yaml:"action"          json:"action"`
	Steps     int          `yaml:"steps"           json:"steps"`
	Completed int          `yaml:"completed"       json:"completed"`
	Error     string       `yaml:"error,omitempty" json:"error,omitempty"`
	Results   []StepResult `yaml:"results"         json:"results"`
}

// StepResult is the output for a single step within a batch.
type StepResult struct {
	Step    int          `yaml:"step"              json:"step"`
	OK      bool         `yaml:"ok"                json:"ok"`
	Action  string       `yaml:"action"            json:"action"`
	Error   string       `yaml:"error,omitempty"   json:"error,omitempty"`
	Target  *ElementInfo `yaml:"target,omitempty"  json:"target,omitempty"`
	X       int          `yaml:"x,omitempty"       json:"x,omitempty"`
	Y       int          `yaml:"y,omitempty"       json:"y,omitempty"`
	Text    string       `yaml:"text,omitempty"    json:"text,omitempty"`
	Key     string       `yaml:"key,omitempty"     json:"key,omitempty"`
	Value   string       `yaml:"value,omitempty"   json:"value,omitempty"`
	Elapsed string       `yaml:"elapsed,omitempty" json:"elapsed,omitempty"`
	Match   string       `yaml:"match,omitempty"   json:"match,omitempty"`
}

var doCmd = &cobra.Command{
	Use:   "do",
	Short: "Execute multiple actions in a batch",
	Long: `Execute a sequence of actions from a YAML list on stdin, using one pair of
device sessions for the whole batch.

Each step is a command name with its flags as a map. Steps execute sequentially,
and by default execution stops on the first error.

Supported step types: tap, type, press, swipe, drag, wait, assert, start, getvar, sleep, done

A done step ends the monkey connection; the next input step reconnects
without restarting the monkey.

Example:
  droid-cli do <<'EOF'
  - start: { component: com.example/.LoginActivity }
  - wait: { for-activity: com.example.LoginActivity }
  - tap: { id: username }
  - type: { text: "jane" }
  - press: { key: back }
  - tap: { text: "Sign in" }
  - wait: { for-text: "Welcome", timeout: 10 }
  EOF`,
	RunE: runDo,
}

func init() {
	rootCmd.AddCommand(doCmd)
	doCmd.Flags().Bool("stop-on-error", true, "Stop execution on first error (default: true)")
	doCmd.Flags().String("file", "", "Read steps from this file instead of stdin")
}

// parseSteps decodes a YAML list of single-key step maps.
func parseSteps(data []byte) ([]map[string]map[string]interface{}, error) {
	if len(data) == 0 {
		return nil, errors.New("no steps provided: pipe a YAML list of actions")
	}
	var steps []map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse YAML steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, errors.New("no steps provided: expected a YAML list of actions")
	}
	return steps, nil
}

func runDo(cmd *cobra.Command, args []string) error {
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
	file, _ := cmd.Flags().GetString("file")

	var data []byte
	var err error
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read steps: %w", err)
	}
	steps, err := parseSteps(data)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var result DoResult
	err = withPilot(ctx, func(p *pilot.Pilot) error {
		b := &batch{pilot: p, clock: clock.Real(), stopOnError: stopOnError}
		result = b.run(ctx, steps)
		return nil
	})
	if err != nil {
		return err
	}
	if err := output.Print(result); err != nil {
		return err
	}
	if !result.OK {
		return errors.New(result.Error)
	}
	return nil
}

// batch runs do steps against an open pilot.
type batch struct {
	pilot       *pilot.Pilot
	clock       clock.Clock
	stopOnError bool
}

func (b *batch) run(ctx context.Context, steps []map[string]map[string]interface{}) DoResult {
	res := DoResult{OK: true, Action: "do", Steps: len(steps), Results: make([]StepResult, 0, len(steps))}

	for i, step := range steps {
		stepNum := i + 1
		var (
			result StepResult
			err    error
		)
		if len(step) != 1 {
			err = fmt.Errorf("expected exactly one action key, got %d", len(step))
		} else {
			for action, params := range step {
				start := b.clock.Now()
				result, err = b.execute(ctx, action, params)
				result.Action = action
				result.Elapsed = fmt.Sprintf("%.1fs", b.clock.Now().Sub(start).Seconds())
			}
		}
		result.Step = stepNum

		if err != nil {
			result.Error = err.Error()
			res.Results = append(res.Results, result)
			if res.OK {
				res.Error = fmt.Sprintf("step %d: %s", stepNum, err)
			}
			res.OK = false
			if b.stopOnError {
				break
			}
			continue
		}
		result.OK = true
		res.Completed++
		res.Results = append(res.Results, result)
	}
	return res
}

func (b *batch) execute(ctx context.Context, action string, params map[string]interface{}) (StepResult, error) {
	switch action {
	case "tap":
		return b.tap(ctx, params)
	case "type":
		return b.typeText(ctx, params)
	case "press":
		key := stringParam(params, "key", "")
		if key == "" {
			return StepResult{}, errors.New("specify key")
		}
		return StepResult{Key: key}, b.pilot.Press(ctx, key)
	case "swipe":
		d, err := device.ParseDirection(stringParam(params, "direction", ""))
		if err != nil {
			return StepResult{}, err
		}
		return StepResult{Text: d.String()}, b.pilot.Swipe(ctx, d)
	case "drag":
		return b.drag(ctx, params)
	case "wait":
		return b.wait(ctx, params)
	case "assert":
		return b.assert(ctx, params)
	case "start":
		pkg, activity, err := splitComponent(stringParam(params, "component", ""))
		if err != nil {
			return StepResult{}, err
		}
		return StepResult{Text: pkg + "/" + activity}, b.pilot.StartActivity(ctx, pkg, activity)
	case "getvar":
		name := stringParam(params, "name", "")
		if name == "" {
			return StepResult{}, errors.New("specify name")
		}
		v, err := b.pilot.GetVar(ctx, name)
		return StepResult{Text: name, Value: v}, err
	case "done":
		return StepResult{}, b.pilot.Disconnect()
	case "sleep":
		ms := intParam(params, "ms", 0)
		if ms <= 0 {
			return StepResult{}, errors.New("specify ms > 0")
		}
		b.clock.Sleep(time.Duration(ms) * time.Millisecond)
		return StepResult{}, nil
	default:
		return StepResult{}, fmt.Errorf("unknown step type %q: supported: tap, type, press, swipe, drag, wait, assert, start, getvar, sleep, done", action)
	}
}

// locate refreshes the tree and finds the view a step names.
func (b *batch) locate(ctx context.Context, params map[string]interface{}) (*model.Node, error) {
	if err := b.pilot.Refresh(ctx); err != nil {
		return nil, err
	}
	return findView(b.pilot.Tree(), stringParam(params, "id", ""), stringParam(params, "text", ""), boolParam(params, "exact", false))
}

func (b *batch) tap(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	id := stringParam(params, "id", "")
	text := stringParam(params, "text", "")
	x := intParam(params, "x", -1)
	y := intParam(params, "y", -1)

	if id == "" && text == "" {
		if x < 0 || y < 0 {
			return StepResult{}, errors.New("specify id, text, or x and y")
		}
		return StepResult{X: x, Y: y}, b.pilot.Tap(ctx, x, y)
	}
	n, err := b.locate(ctx, params)
	if err != nil {
		return StepResult{}, err
	}
	cx, cy := n.Center()
	return StepResult{Target: elementInfo(n), X: cx, Y: cy}, b.pilot.Tap(ctx, cx, cy)
}

func (b *batch) typeText(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	text := stringParam(params, "text", "")
	key := stringParam(params, "key", "")
	if text == "" && key == "" {
		return StepResult{}, errors.New("specify text or key")
	}

	result := StepResult{Text: text, Key: key}
	if stringParam(params, "id", "") != "" {
		n, err := b.locate(ctx, params)
		if err != nil {
			return result, err
		}
		result.Target = elementInfo(n)
		cx, cy := n.Center()
		if err := b.pilot.Tap(ctx, cx, cy); err != nil {
			return result, fmt.Errorf("failed to focus view: %w", err)
		}
	}
	if text != "" {
		if err := b.pilot.Type(ctx, text); err != nil {
			return result, err
		}
	}
	if key != "" {
		return result, b.pilot.Press(ctx, key)
	}
	return result, nil
}

func (b *batch) drag(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	from, err := device.ParsePoint(stringParam(params, "from", ""))
	if err != nil {
		return StepResult{}, err
	}
	to, err := device.ParsePoint(stringParam(params, "to", ""))
	if err != nil {
		return StepResult{}, err
	}
	steps := intParam(params, "steps", 0)
	duration := time.Duration(intParam(params, "duration", 0)) * time.Millisecond
	return StepResult{X: to.X, Y: to.Y}, b.pilot.Drag(ctx, from, to, steps, duration)
}

func (b *batch) wait(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	c := waitCondition{
		Text:         stringParam(params, "for-text", ""),
		ID:           stringParam(params, "for-id", ""),
		Activity:     stringParam(params, "for-activity", ""),
		Notification: stringParam(params, "for-notification", ""),
		DialogClosed: boolParam(params, "dialog-closed", false),
		Gone:         boolParam(params, "gone", false),
	}
	if err := c.validate(); err != nil {
		return StepResult{}, err
	}
	timeout := secondsFlag(intParam(params, "timeout", 0))

	result := StepResult{Match: c.String()}
	switch {
	case c.Activity != "":
		return result, b.pilot.WaitForActivity(ctx, c.Activity, timeout)
	case c.Notification != "":
		return result, b.pilot.WaitForNotification(ctx, pilot.ByTitle(c.Notification, true), timeout)
	case c.DialogClosed:
		return result, b.pilot.WaitForDialogToClose(ctx, timeout)
	default:
		return result, b.pilot.WaitFor(ctx, c.matches, true, timeout)
	}
}

func (b *batch) assert(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	_, hasText := params["has-text"]
	opts := assertOptions{
		id:           stringParam(params, "id", ""),
		text:         stringParam(params, "text", ""),
		exact:        boolParam(params, "exact", false),
		hasText:      stringParam(params, "has-text", ""),
		hasTextCheck: hasText,
		textContains: stringParam(params, "text-contains", ""),
		disabled:     boolParam(params, "disabled", false),
		enabled:      boolParam(params, "enabled", false),
		isFocused:    boolParam(params, "is-focused", false),
		clickable:    boolParam(params, "clickable", false),
		gone:         boolParam(params, "gone", false),
	}
	if err := opts.validate(); err != nil {
		return StepResult{}, err
	}

	var ar AssertResult
	if err := assertOn(ctx, b.pilot, opts, secondsFlag(intParam(params, "timeout", 0)), &ar); err != nil {
		return StepResult{}, err
	}
	result := StepResult{Target: ar.Element}
	if !ar.Pass {
		return result, fmt.Errorf("assert failed: %s", ar.Error)
	}
	return result, nil
}
