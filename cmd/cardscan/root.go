package main

import (
	"github.com/spf13/cobra"

	"cardprice/pkg/cache"
	"cardprice/pkg/config"
	"cardprice/pkg/identify"
	"cardprice/process/scan"
)

// commandContext lazily builds the configuration and pipeline shared by
// subcommands.
type commandContext struct {
	envFile string
	cfg     *config.Config
	store   cache.Store

	// newIdentifier is replaced in tests.
	newIdentifier func(*config.Config, cache.Store) (scan.Identifier, error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		newIdentifier: func(cfg *config.Config, store cache.Store) (scan.Identifier, error) {
			return identify.New(cfg, store)
		},
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) openStore() (*config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if c.store == nil {
		store, err := cache.Open(cfg.Cache())
		if err != nil {
			return nil, err
		}
		c.store = store
	}
	return cfg, nil
}

func (c *commandContext) identifier() (scan.Identifier, error) {
	cfg, err := c.openStore()
	if err != nil {
		return nil, err
	}
	return c.newIdentifier(cfg, c.store)
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

// execute runs cmd and always releases the store, including when a
// subcommand fails (cobra skips post-run hooks after an error).
func execute(ctx *commandContext, cmd *cobra.Command) error {
	defer ctx.close()
	return cmd.Execute()
}

func newRootCommandWith(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cardscan",
		Short:         "Identify and price trading card photos",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&ctx.envFile, "env", "", "dotenv file with settings (default ./.env)")

	rootCmd.AddCommand(newIdentifyCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newDebugCommand(ctx))
	rootCmd.AddCommand(newHashPasswordCommand())
	return rootCmd
}
