package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"cardprice/pkg/ocr"
	"cardprice/pkg/vision"
)

// newDebugCommand runs only the local stages (card detection and OCR) and
// keeps their intermediate images, to tune the heuristics without network access.
func newDebugCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Show the detected title region and raw OCR for one photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			img, err := imaging.Open(args[0], imaging.AutoOrientation(true))
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}
			out := cmd.OutOrStdout()
			region, err := vision.NewPreprocessor(cfg.Vision()).LocateAndCropTitle(img)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "card=%v band=%v region=%dx%d\n", region.Card, region.Band,
				region.Image.Bounds().Dx(), region.Image.Bounds().Dy())

			ex, ocrErr := ocr.NewExtractor(nil, cfg.OCR()).ExtractTitle(cmdContext(cmd), region.Image)
			fmt.Fprintf(out, "raw=%q\n", strings.TrimSpace(ex.Raw))
			fmt.Fprintf(out, "title=%q\n", ex.Title)

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				if err := imaging.Save(region.Image, filepath.Join(outDir, base+".title.png")); err != nil {
					return err
				}
				if ex.Thresholded != nil {
					if err := imaging.Save(ex.Thresholded, filepath.Join(outDir, base+".bw.png")); err != nil {
						return err
					}
				}
			}
			return ocrErr
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for the title and thresholded images")
	return cmd
}
