package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/cpustreams/adapters"
	"github.com/momentics/cpustreams/control"
	"github.com/momentics/cpustreams/streams"
	"github.com/momentics/cpustreams/topology"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "streamsctl",
		Short: "Inspect CPU topology and exercise streams executors",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			levelName, _ := cmd.Flags().GetString("log-level")
			level, err := zerolog.ParseLevel(levelName)
			if err != nil {
				return err
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
				Level(level).With().Timestamp().Logger()
			return nil
		},
	}
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "JSON executor config file")
	rootCmd.PersistentFlags().String("env-prefix", "", "read executor config from <prefix>* environment variables")

	// topology
	topologyCmd := &cobra.Command{
		Use:   "topology",
		Short: "Print the host CPU layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := topology.Probe(topology.System())
			return printJSON(map[string]any{
				"numaNodes":        snap.NUMANodes,
				"procTypeTable":    snap.ProcTypeTable,
				"processMask":      snap.ProcessMask.String(),
				"numCpus":          snap.NumCPUs,
				"physicalCores":    snap.PhysicalCores,
				"bigPhysicalCores": snap.BigPhysicalCores,
				"hybrid":           snap.Hybrid(),
			})
		},
	}
	rootCmd.AddCommand(topologyCmd)

	// config
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective executor config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
	rootCmd.AddCommand(configCmd)

	// bench
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Push synthetic tasks through an executor",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, _ := cmd.Flags().GetInt("tasks")
			producers, _ := cmd.Flags().GetInt("producers")
			spin, _ := cmd.Flags().GetInt("spin")
			dump, _ := cmd.Flags().GetBool("dump")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Name == "" {
				cfg.Name = "bench"
			}
			return runBench(cfg, tasks, producers, spin, dump)
		},
	}
	benchCmd.Flags().Int("tasks", 100000, "total tasks to submit")
	benchCmd.Flags().Int("producers", 4, "concurrent submitting goroutines")
	benchCmd.Flags().Int("spin", 1000, "busy-loop iterations per task")
	benchCmd.Flags().Bool("dump", false, "print executor and platform state after the run")
	rootCmd.AddCommand(benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (streams.Config, error) {
	if prefix, _ := cmd.Flags().GetString("env-prefix"); prefix != "" {
		return streams.ConfigFromEnv(prefix)
	}
	path, _ := cmd.Flags().GetString("config")
	return streams.LoadConfig(path)
}

func runBench(cfg streams.Config, tasks, producers, spin int, dump bool) error {
	if producers < 1 {
		producers = 1
	}
	reg := prometheus.NewRegistry()
	metrics := control.NewMetrics("cpustreams", "bench")
	if err := metrics.Register(reg); err != nil {
		return err
	}

	manager := streams.NewManager(streams.WithMetrics(metrics))
	exec, err := manager.GetStreamsExecutor(cfg)
	if err != nil {
		return err
	}
	defer exec.Close()

	var done sync.WaitGroup
	done.Add(tasks)
	var sink [64]uint64
	work := func() {
		defer done.Done()
		idx := exec.CurrentStreamID() % len(sink)
		for i := 0; i < spin; i++ {
			sink[idx] += uint64(i)
		}
	}

	start := time.Now()
	var g errgroup.Group
	for p := 0; p < producers; p++ {
		share := tasks / producers
		if p < tasks%producers {
			share++
		}
		g.Go(func() error {
			for i := 0; i < share; i++ {
				exec.Run(work)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	done.Wait()
	elapsed := time.Since(start)

	log.Info().
		Int("tasks", tasks).
		Int("producers", producers).
		Dur("elapsed", elapsed).
		Float64("tasks_per_sec", float64(tasks)/elapsed.Seconds()).
		Msg("bench finished")

	if dump {
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		counters := make(map[string]float64)
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				switch {
				case m.GetCounter() != nil:
					counters[mf.GetName()] += m.GetCounter().GetValue()
				case m.GetGauge() != nil:
					counters[mf.GetName()] += m.GetGauge().GetValue()
				}
			}
		}
		ctrl := adapters.NewControlAdapter(manager, topology.System())
		return printJSON(map[string]any{
			"metrics": counters,
			"state":   ctrl.Stats(),
			"config":  ctrl.GetConfig(),
		})
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
