package main

import (
	"fmt"

	"github.com/jmtruffa/finsim/api"
	"github.com/jmtruffa/finsim/calendar"
	"github.com/jmtruffa/finsim/store"
	"github.com/spf13/cobra"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculations over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			repo, err := store.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}

			cal := calendar.New(repo)
			if err := cal.Reload(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("starting with weekends-only calendar")
			}
			if a.cfg.Holidays.Reload {
				cal.ScheduleReload(ctx)
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			server := api.NewWebAPI(a.logger, api.Config{
				Addr:            addr,
				AllowedOrigins:  a.cfg.Server.AllowedOrigins,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				Dependencies: api.Dependencies{
					Valuer:      a.cfg.Valuer(),
					Calendar:    cal,
					Instruments: repo,
				},
			})
			return server.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}

func (a *app) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.json>",
		Short: "Load instruments and holidays from a JSON seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			repo, err := store.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}

			seed, err := repo.SeedFromFile(ctx, args[0])
			if err != nil {
				return err
			}
			a.logger.Info().Str("file", args[0]).Msg("seed loaded")
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d instruments and %d holidays\n", len(seed.Instruments), len(seed.Holidays))
			return nil
		},
	}
}
