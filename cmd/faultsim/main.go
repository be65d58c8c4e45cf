// Package main is the entry point for faultsim, the deterministic
// publish/subscribe fault-propagation simulator.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"faultsim/internal/config"
	"faultsim/internal/graph"
	"faultsim/internal/logging"
	"faultsim/internal/record"
	"faultsim/internal/simexec"
	"faultsim/internal/viz"
)

const defaultSeed = 1

func main() {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	var (
		graphPath        string
		stopTick         int
		nodeFeatureOut   string
		edgeIndexOut     string
		faultPath        string
		faultLabelOut    string
		injectAtOverride int
		vizMode          bool
		debug            bool
		seed             int64
	)

	root := &cobra.Command{
		Use:           "faultsim",
		Short:         "Deterministic publish/subscribe fault-propagation simulator",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Configure(debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runOptions{
				graphPath:      graphPath,
				stopTick:       stopTick,
				nodeFeatureOut: nodeFeatureOut,
				edgeIndexOut:   edgeIndexOut,
				faultPath:      faultPath,
				faultLabelOut:  faultLabelOut,
				injectAtSet:    cmd.Flags().Changed("inject_at"),
				injectAt:       injectAtOverride,
				viz:            vizMode,
				seed:           seed,
			})
		},
	}

	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.Flags().StringVar(&graphPath, "graph", "", "path to graph config (required)")
	root.Flags().IntVar(&stopTick, "stop", 0, "terminal tick (inclusive)")
	root.Flags().StringVar(&nodeFeatureOut, "node_feature_output", "", "path to write per-tick feature rows")
	root.Flags().StringVar(&edgeIndexOut, "edge_index_output", "", "path to write the edge index")
	root.Flags().StringVar(&faultPath, "fault", "", "path to fault config (optional)")
	root.Flags().StringVar(&faultLabelOut, "fault_label_output", "", "path to write the fault label line")
	root.Flags().IntVar(&injectAtOverride, "inject_at", 0, "override the fault's own inject_at tick")
	root.Flags().BoolVar(&vizMode, "viz", false, "open a terminal animation instead of writing tensor output")
	root.Flags().Int64Var(&seed, "seed", defaultSeed, "RNG seed")
	_ = root.MarkFlagRequired("graph")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	graphPath      string
	stopTick       int
	nodeFeatureOut string
	edgeIndexOut   string
	faultPath      string
	faultLabelOut  string
	injectAtSet    bool
	injectAt       int
	viz            bool
	seed           int64
}

func run(ctx context.Context, opts runOptions) error {
	logger := slog.Default()

	if opts.viz && (opts.nodeFeatureOut != "" || opts.edgeIndexOut != "" || opts.faultLabelOut != "") {
		return fmt.Errorf("--viz disables tensor output and cannot be combined with the output path flags")
	}
	if !opts.viz && (opts.nodeFeatureOut == "" || opts.edgeIndexOut == "") {
		return fmt.Errorf("--node_feature_output and --edge_index_output are required unless --viz is set")
	}

	graphCfg, err := config.LoadGraph(opts.graphPath)
	if err != nil {
		return err
	}

	derived, err := graph.Build(graphCfg)
	if err != nil {
		return err
	}

	var faultCfg *config.Fault
	if opts.faultPath != "" {
		faultCfg, err = config.LoadFault(opts.faultPath)
		if err != nil {
			return err
		}
		if opts.injectAtSet {
			faultCfg.InjectAt = opts.injectAt
		}
	}

	tracer := otel.Tracer("faultsim")
	exec, err := simexec.New(derived, faultCfg, opts.seed, tracer, logger)
	if err != nil {
		return err
	}

	if opts.viz {
		exec.Attach(viz.NewAnimator(os.Stdout))
		return exec.Run(ctx, opts.stopTick)
	}

	recorder, err := record.NewRecorder(opts.nodeFeatureOut)
	if err != nil {
		return err
	}
	exec.Attach(recorder)

	if err := exec.Run(ctx, opts.stopTick); err != nil {
		_ = recorder.Close()
		return err
	}

	if err := recorder.Close(); err != nil {
		return err
	}

	if err := record.WriteEdgeIndex(opts.edgeIndexOut, derived); err != nil {
		return err
	}

	if faultCfg != nil && opts.faultLabelOut != "" {
		if err := record.WriteFaultLabel(opts.faultLabelOut, exec.FaultNodeIndex(), faultCfg.InjectAt); err != nil {
			return err
		}
	}

	return nil
}
