package cmd

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/viewdump"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a screenshot",
	Long: `Capture the device screen. With --annotate, boxes and labels are drawn over
the clickable views so their tap coordinates can be read off the image.`,
	RunE: runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().String("output", "", "Output file path (default: stdout as base64)")
	screenshotCmd.Flags().String("image-format", "png", "Image format: png, jpg")
	screenshotCmd.Flags().Int("quality", 80, "JPEG quality 1-100")
	screenshotCmd.Flags().Float64("scale", 1, "Scale factor 0.1-1.0 (for token efficiency)")
	screenshotCmd.Flags().Bool("annotate", false, "Draw boxes and labels over views")
	screenshotCmd.Flags().Bool("all-views", false, "Annotate every shown view (default: clickable views only)")
	screenshotCmd.Flags().String("label", "coords", "Annotation label: coords, hash")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("image-format")
	quality, _ := cmd.Flags().GetInt("quality")
	scale, _ := cmd.Flags().GetFloat64("scale")
	annotate, _ := cmd.Flags().GetBool("annotate")
	allViews, _ := cmd.Flags().GetBool("all-views")
	labelStr, _ := cmd.Flags().GetString("label")

	mode, ok := ParseLabelMode(labelStr)
	if !ok {
		return fmt.Errorf("unsupported label: %s (use coords or hash)", labelStr)
	}
	if format != "png" && format != "jpg" {
		return fmt.Errorf("unsupported image format: %s (use png or jpg)", format)
	}
	if scale < 0.1 || scale > 1 {
		return fmt.Errorf("--scale must be between 0.1 and 1.0")
	}

	ctx := cmd.Context()
	data, err := adbClient().Screencap(ctx)
	if err != nil {
		return err
	}

	// Plain full-size PNGs are passed through untouched.
	if annotate || scale < 1 || format != "png" {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decoding screencap: %w", err)
		}
		if annotate {
			var tree *model.Tree
			err := withViews(ctx, func(vs *device.ViewServer) error {
				dump, err := vs.DumpAll(ctx)
				if err != nil {
					return err
				}
				tree, err = viewdump.Parse(dump, logger)
				return err
			})
			if err != nil {
				return err
			}
			img = Annotate(img, annotationTargets(model.Elements(tree), allViews), mode)
		}
		if data, err = encodeImage(Scale(img, scale), format, quality); err != nil {
			return err
		}
	}

	if outPath != "" {
		return os.WriteFile(outPath, data, 0644)
	}
	return writeBase64(os.Stdout, data)
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if format == "jpg" {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// writeBase64 writes data base64-encoded for easy agent consumption.
func writeBase64(w io.Writer, data []byte) error {
	encoder := base64.NewEncoder(base64.StdEncoding, w)
	if _, err := encoder.Write(data); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w) // newline after base64
	return err
}
