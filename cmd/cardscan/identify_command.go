package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cardprice/process/scan"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var (
		workers int
		moveTo  string
		asJSON  bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "identify <file|dir>...",
		Short: "Identify card photos and print their prices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := scan.Expand(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No images found.")
				return nil
			}
			id, err := ctx.identifier()
			if err != nil {
				return err
			}
			s := &scan.Scanner{
				Identifier:   id,
				Workers:      workers,
				Timeout:      ctx.cfg.RequestTimeout,
				ProcessedDir: moveTo,
				Verbose:      verbose,
			}
			results := s.Run(cmdContext(cmd), paths)

			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				if err := writeJSONLines(out, results); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, renderResults(results))
			}
			if failed := countFailed(results); failed == len(results) {
				return errors.New("no card could be identified")
			} else if failed > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d images not identified\n", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size (default NumCPU)")
	cmd.Flags().StringVar(&moveTo, "move-to", "", "Move identified images into this directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON lines even on a terminal")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose per-file logging")
	return cmd
}

func countFailed(results []scan.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
