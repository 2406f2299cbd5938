package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/pilot"
)

// AssertResult is the output of an assert command.
type AssertResult struct {
	OK      bool         `yaml:"ok"                json:"ok"`
	Action  string       `yaml:"action"            json:"action"`
	Pass    bool         `yaml:"pass"              json:"pass"`
	Error   string       `yaml:"error,omitempty"   json:"error,omitempty"`
	Element *ElementInfo `yaml:"element,omitempty" json:"element,omitempty"`
}

var assertCmd = &cobra.Command{
	Use:   "assert",
	Short: "Assert a UI condition is met",
	Long: `Check that a shown view exists with expected properties.

Returns pass/fail with structured output and exit code 0 (pass) or 1 (fail).
Optionally polls with --timeout for conditions that take time to appear.`,
	RunE: runAssert,
}

func init() {
	rootCmd.AddCommand(assertCmd)
	assertCmd.Flags().String("id", "", "Find the view by resource id")
	assertCmd.Flags().String("text", "", "Find the view by text (substring unless --exact)")
	assertCmd.Flags().Bool("exact", false, "Require the whole text to match")

	// Property assertions
	assertCmd.Flags().String("has-text", "", "Assert the view text equals this string")
	assertCmd.Flags().String("text-contains", "", "Assert the view text contains this substring")
	assertCmd.Flags().Bool("disabled", false, "Assert the view is disabled")
	assertCmd.Flags().Bool("enabled", false, "Assert the view is enabled")
	assertCmd.Flags().Bool("is-focused", false, "Assert the view has focus")
	assertCmd.Flags().Bool("clickable", false, "Assert the view is clickable")
	assertCmd.Flags().Bool("gone", false, "Assert no shown view matches")

	assertCmd.Flags().Int("timeout", 0, "Max seconds to poll (0 = single check, no polling)")
}

type assertOptions struct {
	id           string
	text         string
	exact        bool
	hasText      string
	hasTextCheck bool
	textContains string
	disabled     bool
	enabled      bool
	isFocused    bool
	clickable    bool
	gone         bool
}

func (o assertOptions) validate() error {
	if o.id == "" && o.text == "" {
		return fmt.Errorf("specify --text or --id to target a view")
	}
	if o.enabled && o.disabled {
		return fmt.Errorf("--enabled and --disabled cannot be used together")
	}
	return nil
}

// checkAssert performs a single assertion check against t.
func checkAssert(t *model.Tree, opts assertOptions) AssertResult {
	n, err := findView(t, opts.id, opts.text, opts.exact)

	if opts.gone {
		if err != nil {
			return AssertResult{OK: true, Action: "assert", Pass: true}
		}
		return AssertResult{
			Action:  "assert",
			Error:   fmt.Sprintf("expected view to be gone but found: %s", describeView(n)),
			Element: elementInfo(n),
		}
	}
	if err != nil {
		return AssertResult{Action: "assert", Error: err.Error()}
	}
	if err := checkPropertyAssertions(n, opts); err != nil {
		return AssertResult{Action: "assert", Error: err.Error(), Element: elementInfo(n)}
	}
	return AssertResult{OK: true, Action: "assert", Pass: true, Element: elementInfo(n)}
}

// checkPropertyAssertions validates view properties against the assertion flags.
func checkPropertyAssertions(n *model.Node, opts assertOptions) error {
	if opts.hasTextCheck && n.Text != opts.hasText {
		return fmt.Errorf("expected text %q but got %q", opts.hasText, n.Text)
	}
	if opts.textContains != "" && !containsFold(n.Text, opts.textContains) {
		return fmt.Errorf("expected text to contain %q but got %q", opts.textContains, n.Text)
	}
	if opts.disabled && n.Enabled {
		return errors.New("expected view to be disabled but it is enabled")
	}
	if opts.enabled && !n.Enabled {
		return errors.New("expected view to be enabled but it is disabled")
	}
	if opts.isFocused && !n.Focused {
		return errors.New("expected view to be focused but it is not")
	}
	if opts.clickable && !n.Clickable {
		return errors.New("expected view to be clickable but it is not")
	}
	return nil
}

// describeView returns a brief human-readable description of a view.
func describeView(n *model.Node) string {
	parts := []string{"hash=" + n.HashCode, "class=" + n.ShortClass()}
	if n.ID != "" {
		parts = append(parts, "id="+n.ID)
	}
	if n.Text != "" {
		parts = append(parts, fmt.Sprintf("text=%q", n.Text))
	}
	return strings.Join(parts, " ")
}

func runAssert(cmd *cobra.Command, args []string) error {
	var opts assertOptions
	opts.id, _ = cmd.Flags().GetString("id")
	opts.text, _ = cmd.Flags().GetString("text")
	opts.exact, _ = cmd.Flags().GetBool("exact")
	opts.hasText, _ = cmd.Flags().GetString("has-text")
	opts.hasTextCheck = cmd.Flags().Changed("has-text")
	opts.textContains, _ = cmd.Flags().GetString("text-contains")
	opts.disabled, _ = cmd.Flags().GetBool("disabled")
	opts.enabled, _ = cmd.Flags().GetBool("enabled")
	opts.isFocused, _ = cmd.Flags().GetBool("is-focused")
	opts.clickable, _ = cmd.Flags().GetBool("clickable")
	opts.gone, _ = cmd.Flags().GetBool("gone")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	if err := opts.validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	var result AssertResult
	err := withPilot(ctx, func(p *pilot.Pilot) error {
		return assertOn(ctx, p, opts, secondsFlag(timeoutSec), &result)
	})
	if err != nil {
		return err
	}
	_ = output.Print(result)
	if !result.Pass {
		return fmt.Errorf("assert failed: %s", result.Error)
	}
	return nil
}

// assertOn checks once, or polls until the assertion passes or timeout
// runs out when timeout is positive.
func assertOn(ctx context.Context, p *pilot.Pilot, opts assertOptions, timeout time.Duration, result *AssertResult) error {
	if timeout <= 0 {
		if err := p.Refresh(ctx); err != nil {
			return err
		}
		*result = checkAssert(p.Tree(), opts)
		return nil
	}
	*result = AssertResult{Action: "assert", Error: "no view hierarchy read before timeout"}
	err := p.WaitFor(ctx, func(t *model.Tree) bool {
		*result = checkAssert(t, opts)
		return result.Pass
	}, true, timeout)
	if errors.Is(err, pilot.ErrTimeout) {
		return nil
	}
	return err
}
