package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cardprice/process/scan"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		workers int
		moveTo  string
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Identify images as they are dropped into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ctx.identifier()
			if err != nil {
				return err
			}
			s := &scan.Scanner{
				Identifier:   id,
				Workers:      workers,
				Timeout:      ctx.cfg.RequestTimeout,
				ProcessedDir: moveTo,
			}
			runCtx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			jsonOut := !isTerminal(out)
			return s.Watch(runCtx, args[0], func(r scan.Result) {
				if jsonOut {
					_ = writeJSONLines(out, []scan.Result{r})
					return
				}
				fmt.Fprintln(out, summaryLine(r))
			})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size (default NumCPU)")
	cmd.Flags().StringVar(&moveTo, "move-to", "", "Move identified images into this directory")
	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
