package main

import (
	"github.com/spf13/cobra"

	"spectra/internal/charts"
	"spectra/internal/collector"
	"spectra/internal/config"
	"spectra/internal/dashboard"
)

func newServeCommand(global *globalFlags) *cobra.Command {
	var (
		addr  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis dashboard API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(global, func(cfg *config.Config) {
				if addr != "" {
					cfg.Dashboard.Addr = addr
				}
			})
			if err != nil {
				return err
			}
			defer a.close()

			interval, err := charts.ParseInterval(a.cfg.Analysis.TimeInterval)
			if err != nil {
				return err
			}

			defaults, err := collector.QueryFromConfig(a.cfg)
			if err != nil {
				return err
			}

			runner, err := a.runner(cmd.Context())
			if err != nil {
				return err
			}

			srv := dashboard.NewServer(runner, dashboard.Options{
				Defaults:   defaults,
				Interval:   interval,
				Addr:       a.cfg.Dashboard.Addr,
				SampleSize: a.cfg.Analysis.SampleSize,
				Debug:      debug,
			}, a.log)

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides dashboard.addr)")
	cmd.Flags().BoolVar(&debug, "debug", false, "run gin in debug mode")

	return cmd
}
