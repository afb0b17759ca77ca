package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aretw0/viewhost"
	"github.com/aretw0/viewhost/internal/scenario"
	"github.com/aretw0/viewhost/pkg/adapters/sim"
	"github.com/aretw0/viewhost/pkg/ports"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml]",
	Short: "Replay a scenario against the simulated engine",
	Long: `Loads a YAML scenario, renders its documents on a simulated view and checks
every expectation. Exits non-zero on the first failed step.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		script, err := scenario.Load(args[0])
		if err != nil {
			return err
		}

		h, err := newHost(cfg, logger, viewhost.WithLifecycleHooks(logHooks(logger)))
		if err != nil {
			return err
		}
		defer h.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		runner := &scenario.Runner{
			Viewhost: h.vh,
			NewView:  func(name string) ports.View { return sim.NewView(name) },
			Output:   cmd.OutOrStdout(),
			Logger:   logger,
		}
		results, err := runner.Run(ctx, script)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", script.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scenario %q passed (%d steps)\n", script.Name, len(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Duration("timeout", 0, "Abort the scenario after this duration")
}
