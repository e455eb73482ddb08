package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cardprice/pkg/cache"
	"cardprice/pkg/card"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the lookup cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func (c *commandContext) admin() (cache.Admin, error) {
	cfg, err := c.openStore()
	if err != nil {
		return nil, err
	}
	a, ok := c.store.(cache.Admin)
	if !ok {
		return nil, fmt.Errorf("cache driver %q cannot be inspected", cfg.CacheDriver)
	}
	return a, nil
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached titles and their matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.admin()
			if err != nil {
				return err
			}
			entries, err := a.Entries(cmdContext(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Cache is empty.")
				return nil
			}
			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Title", "Match", "Set", "USD", "Hits", "Updated"})
			for _, e := range entries {
				var m card.MatchResult
				// keep unreadable rows visible so they can be cleared
				if err := json.Unmarshal(e.Payload, &m); err != nil {
					m.MatchedName = "(unreadable)"
				}
				tw.AppendRow(table.Row{e.Key, m.MatchedName, m.Set, m.Prices.Value(card.PriceUSD),
					strconv.FormatInt(e.Hits, 10), e.UpdatedAt.Format(time.DateTime)})
			}
			fmt.Fprintln(out, tw.Render())
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear [title...]",
		Short: "Remove cached lookups (all of them when no title is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.admin()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if !yes {
					return errors.New("refusing to clear the whole cache without --yes")
				}
				n, err := a.Clear(cmdContext(cmd))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "removed %d entries\n", n)
				return nil
			}
			for _, title := range args {
				key := cache.Key(title)
				ok, err := a.Delete(cmdContext(cmd), key)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(out, "removed %q\n", key)
				} else {
					fmt.Fprintf(out, "not cached: %q\n", key)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing every entry")
	return cmd
}
