package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/go-drift/navsync/cmd/navsync/internal/config"
	"github.com/go-drift/navsync/cmd/navsync/internal/scenario"
	"github.com/go-drift/navsync/cmd/navsync/internal/telemetry"
	"github.com/go-drift/navsync/pkg/navigation"
)

type runFlags struct {
	trace   bool
	metrics bool
}

func newRunCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Replay one or more scenarios",
		Long: `Replay scenario files and print each transition the surface performed,
followed by the final state of every presenter.

A scenario declares a surface (modal or stack), the presenters that drive
it and a list of steps:

  set      write an item into a presenter's state
  clear    write the absent value
  dismiss  dismiss the live presentation the way a user would
  back     pop the top of a stack
  ready    mark a deferred surface ready
  advance  move the animation clock forward
  settle   run until all animations have finished`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "print OpenTelemetry spans to stderr")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "print presenter metrics after each scenario")
	return cmd
}

func runScenarios(ctx context.Context, out, stderr io.Writer, paths []string, flags runFlags) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tcfg := telemetry.Config{ServiceName: "navsync", ServiceVersion: Version}
	if flags.trace {
		tcfg.Writer = stderr
	}
	shutdown, err := telemetry.Init(tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if serr := shutdown(context.Background()); serr != nil && err == nil {
			err = serr
		}
	}()

	for _, path := range paths {
		sc, err := config.LoadScenario(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := runOne(ctx, out, sc, flags); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func runOne(ctx context.Context, out io.Writer, sc *config.Scenario, flags runFlags) error {
	reg := prometheus.NewRegistry()
	duration := resolvedDuration()

	name := sc.Name
	if name == "" {
		name = "scenario"
	}
	fmt.Fprintf(out, "== %s (%s)\n", name, sc.Surface)

	runner := scenario.NewRunner(sc, scenario.Options{
		Out:               out,
		Logger:            slog.Default().With(slog.String("scenario", name)),
		Metrics:           navigation.NewMetrics(reg),
		AnimationDuration: duration,
	})
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "-- state")
	for _, p := range sc.Presenters {
		id := res.State[p.Name]
		if id == "" {
			id = "<nil>"
		}
		fmt.Fprintf(out, "%s = %s\n", p.Name, id)
	}
	if res.Live != "" {
		fmt.Fprintf(out, "live: %s\n", res.Live)
	}

	if flags.metrics {
		return writeMetrics(out, reg)
	}
	return nil
}

func writeMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fmt.Fprintln(out, "-- metrics")
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}

func resolvedDuration() time.Duration {
	if resolved != nil {
		return resolved.AnimationDuration
	}
	return 0
}
