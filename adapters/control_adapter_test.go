package adapters_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/momentics/cpustreams/adapters"
	"github.com/momentics/cpustreams/api"
	"github.com/momentics/cpustreams/streams"
	"github.com/momentics/cpustreams/topology"
)

func TestControlAdapterBasic(t *testing.T) {
	prober := topology.NewStatic(topology.Layout{BigCores: 2, LittleCores: 2})
	m := streams.NewManager(streams.WithLogger(zerolog.Nop()), streams.WithProber(prober))
	ctrl := adapters.NewControlAdapter(m, prober)
	if len(ctrl.GetConfig()) != 0 {
		t.Error("Expected empty config on init")
	}

	e, err := m.GetStreamsExecutor(streams.Config{Name: "ctl", Streams: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	cfg, ok := ctrl.GetConfig()["ctl"].(streams.Config)
	if !ok || cfg.Streams != 1 {
		t.Errorf("GetConfig did not report executor: %+v", ctrl.GetConfig())
	}
	ctrl.RegisterDebugProbe("custom", func() any { return 7 })
	stats := ctrl.Stats()
	if _, ok := stats["executor.ctl"]; !ok {
		t.Error("executor stats missing")
	}
	if stats["debug.custom"] != 7 {
		t.Error("custom probe missing")
	}
	if _, ok := stats["debug.platform.proc_type_table"]; !ok {
		t.Error("platform probe missing")
	}
}

func TestExecutorAdapterSubmit(t *testing.T) {
	ea, err := adapters.NewExecutorAdapter(streams.Config{Name: "adapted", Streams: 2},
		streams.WithLogger(zerolog.Nop()), streams.WithManager(streams.NewManager()),
		streams.WithProber(topology.NewStatic(topology.Layout{BigCores: 2})))
	if err != nil {
		t.Fatal(err)
	}
	if ea.NumWorkers() != 2 {
		t.Errorf("NumWorkers = %d", ea.NumWorkers())
	}

	done := make(chan struct{})
	if err := ea.Submit(func() { close(done) }); err != nil {
		t.Fatal(err)
	}
	<-done

	if err := ea.Submit(nil); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("Submit(nil) = %v", err)
	}
	ea.Close()
	if err := ea.Submit(func() {}); !errors.Is(err, api.ErrExecutorClosed) {
		t.Errorf("Submit after Close = %v", err)
	}
}

func TestAffinityAdapterRejectsEmptyBinding(t *testing.T) {
	a := adapters.NewAffinityAdapter()
	err := a.Pin(-1, -1)
	if err == nil {
		t.Fatal("expected error")
	}
	if cpu, node, _ := a.Get(); cpu != -1 || node != -1 {
		t.Errorf("Get = %d, %d", cpu, node)
	}
	if err := a.Unpin(); err != nil {
		t.Error(err)
	}
}
