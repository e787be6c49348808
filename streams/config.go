// File: streams/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streams

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/momentics/cpustreams/api"
	"github.com/momentics/cpustreams/topology"
)

// ThreadBindingType selects how stream threads are pinned.
type ThreadBindingType int

const (
	// BindNone leaves placement to the OS scheduler.
	BindNone ThreadBindingType = iota
	// BindCores pins stream threads to a contiguous run of cores.
	BindCores
	// BindNUMA keeps each stream on its NUMA node.
	BindNUMA
	// BindHybridAware places streams by core type on big/little CPUs.
	BindHybridAware
)

var bindingNames = map[ThreadBindingType]string{
	BindNone:        "none",
	BindCores:       "cores",
	BindNUMA:        "numa",
	BindHybridAware: "hybrid_aware",
}

func (t ThreadBindingType) String() string {
	if s, ok := bindingNames[t]; ok {
		return s
	}
	return fmt.Sprintf("binding(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t ThreadBindingType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ThreadBindingType) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for k, v := range bindingNames {
		if v == s {
			*t = k
			return nil
		}
	}
	return api.NewError(api.ErrCodeInvalidArgument, "unknown thread binding type").WithContext("value", s)
}

// PreferredCoreType selects the core type of hybrid-aware streams.
type PreferredCoreType int

const (
	// PreferAny runs streams on any core type.
	PreferAny PreferredCoreType = iota
	// PreferLittle runs streams on little cores only.
	PreferLittle
	// PreferBig runs streams on big cores only.
	PreferBig
	// PreferRoundRobin spreads streams over core types, big cores first.
	PreferRoundRobin
)

var coreTypeNames = map[PreferredCoreType]string{
	PreferAny:        "any",
	PreferLittle:     "little",
	PreferBig:        "big",
	PreferRoundRobin: "round_robin",
}

func (p PreferredCoreType) String() string {
	if s, ok := coreTypeNames[p]; ok {
		return s
	}
	return fmt.Sprintf("coretype(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p PreferredCoreType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PreferredCoreType) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for k, v := range coreTypeNames {
		if v == s {
			*p = k
			return nil
		}
	}
	return api.NewError(api.ErrCodeInvalidArgument, "unknown preferred core type").WithContext("value", s)
}

// StreamsInfo is one row of a precomputed stream layout: Streams streams of
// ThreadsPerStream threads each on processors of ProcType, a topology
// ProcTypeTable column (AllProc, MainCoreProc, EfficientCoreProc,
// HyperThreadingProc).
type StreamsInfo struct {
	Streams          int `json:"streams"`
	ProcType         int `json:"procType"`
	ThreadsPerStream int `json:"threadsPerStream"`
}

// Config is the executor parameter set. It is copied at NewExecutor and never
// changes afterwards.
type Config struct {
	// Name prefixes worker thread names; generated when empty.
	Name string `json:"name" env:"NAME"`
	// Streams is the worker count; 0 runs every task inline on its caller.
	Streams int `json:"streams" env:"STREAMS"`
	// ThreadsPerStream caps each stream's arena; 0 means automatic.
	ThreadsPerStream    int               `json:"threadsPerStream" env:"THREADS_PER_STREAM"`
	ThreadBindingType   ThreadBindingType `json:"threadBindingType" env:"THREAD_BINDING"`
	ThreadBindingStep   int               `json:"threadBindingStep" env:"THREAD_BINDING_STEP"`
	ThreadBindingOffset int               `json:"threadBindingOffset" env:"THREAD_BINDING_OFFSET"`
	// CPUPinning enables pinning to StreamCoreIDs on the StreamsInfo path.
	CPUPinning            bool              `json:"cpuPinning" env:"CPU_PINNING"`
	PreferredCoreType     PreferredCoreType `json:"preferredCoreType" env:"PREFERRED_CORE_TYPE"`
	BigCoreStreams        int               `json:"bigCoreStreams" env:"BIG_CORE_STREAMS"`
	SmallCoreStreams      int               `json:"smallCoreStreams" env:"SMALL_CORE_STREAMS"`
	ThreadsPerStreamBig   int               `json:"threadsPerStreamBig" env:"THREADS_PER_STREAM_BIG"`
	ThreadsPerStreamSmall int               `json:"threadsPerStreamSmall" env:"THREADS_PER_STREAM_SMALL"`
	SmallCoreOffset       int               `json:"smallCoreOffset" env:"SMALL_CORE_OFFSET"`

	// StreamsInfo, when set, replaces the binding heuristics with an explicit layout.
	StreamsInfo []StreamsInfo `json:"streamsInfo,omitempty"`
	// StreamCoreIDs lists the CPU ids of each stream; used only when its
	// length equals Streams.
	StreamCoreIDs [][]int `json:"streamCoreIds,omitempty"`
}

// DefaultConfig returns a single-stream, unpinned configuration.
func DefaultConfig(name string) Config {
	return Config{
		Name:              name,
		Streams:           1,
		ThreadBindingType: BindNone,
		ThreadBindingStep: 1,
		PreferredCoreType: PreferAny,
	}
}

// Validate reports the first invalid field as an *api.Error.
func (c Config) Validate() error {
	invalid := func(field string, v any) error {
		return api.NewError(api.ErrCodeInvalidArgument, "invalid streams config").
			WithContext("field", field).WithContext("value", v)
	}
	switch {
	case c.Streams < 0:
		return invalid("Streams", c.Streams)
	case c.ThreadsPerStream < 0:
		return invalid("ThreadsPerStream", c.ThreadsPerStream)
	case c.ThreadBindingStep < 0:
		return invalid("ThreadBindingStep", c.ThreadBindingStep)
	case c.ThreadBindingOffset < 0:
		return invalid("ThreadBindingOffset", c.ThreadBindingOffset)
	case c.BigCoreStreams < 0:
		return invalid("BigCoreStreams", c.BigCoreStreams)
	case c.SmallCoreStreams < 0:
		return invalid("SmallCoreStreams", c.SmallCoreStreams)
	case c.ThreadsPerStreamBig < 0:
		return invalid("ThreadsPerStreamBig", c.ThreadsPerStreamBig)
	case c.ThreadsPerStreamSmall < 0:
		return invalid("ThreadsPerStreamSmall", c.ThreadsPerStreamSmall)
	case c.SmallCoreOffset < 0:
		return invalid("SmallCoreOffset", c.SmallCoreOffset)
	}
	if _, ok := bindingNames[c.ThreadBindingType]; !ok {
		return invalid("ThreadBindingType", int(c.ThreadBindingType))
	}
	if _, ok := coreTypeNames[c.PreferredCoreType]; !ok {
		return invalid("PreferredCoreType", int(c.PreferredCoreType))
	}
	for i, row := range c.StreamsInfo {
		if row.Streams < 0 || row.ThreadsPerStream < 0 ||
			row.ProcType < topology.AllProc || row.ProcType > topology.HyperThreadingProc {
			return invalid(fmt.Sprintf("StreamsInfo[%d]", i), row)
		}
	}
	return nil
}

// normalized fills defaults that depend on nothing but the config itself.
func (c Config) normalized() Config {
	if c.ThreadBindingStep == 0 {
		c.ThreadBindingStep = 1
	}
	return c
}

// streamRows expands StreamsInfo into one row index per stream.
func (c Config) streamRows() []int {
	var rows []int
	for i, row := range c.StreamsInfo {
		for n := 0; n < row.Streams; n++ {
			rows = append(rows, i)
		}
	}
	return rows
}

// ConfigFromEnv overlays <prefix>* environment variables, for example
// CPUSTREAMS_STREAMS or CPUSTREAMS_THREAD_BINDING=cores, onto DefaultConfig.
func ConfigFromEnv(prefix string) (Config, error) {
	cfg := DefaultConfig("")
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return Config{}, fmt.Errorf("streams: parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadConfig reads a JSON file over DefaultConfig. An empty path returns defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig("")
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("streams: decode %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}
