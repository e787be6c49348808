package streams

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/cpustreams/api"
	"github.com/momentics/cpustreams/topology"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig("ok").Validate())

	cases := map[string]Config{
		"negative streams":  {Streams: -1},
		"negative tps":      {ThreadsPerStream: -2},
		"bad binding":       {ThreadBindingType: ThreadBindingType(42)},
		"bad core type":     {PreferredCoreType: PreferredCoreType(-1)},
		"bad info proc col": {StreamsInfo: []StreamsInfo{{Streams: 1, ProcType: topology.ProcNUMANodeID}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, api.ErrInvalidArgument))
			assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))
		})
	}
}

func TestConfig_TextEnums(t *testing.T) {
	var b ThreadBindingType
	require.NoError(t, b.UnmarshalText([]byte("HYBRID_AWARE")))
	assert.Equal(t, BindHybridAware, b)
	assert.Error(t, b.UnmarshalText([]byte("sockets")))

	var p PreferredCoreType
	require.NoError(t, p.UnmarshalText([]byte("round_robin")))
	assert.Equal(t, PreferRoundRobin, p)
	assert.Equal(t, "little", PreferLittle.String())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CPUSTREAMS_NAME", "envexec")
	t.Setenv("CPUSTREAMS_STREAMS", "3")
	t.Setenv("CPUSTREAMS_THREADS_PER_STREAM", "2")
	t.Setenv("CPUSTREAMS_THREAD_BINDING", "cores")
	t.Setenv("CPUSTREAMS_CPU_PINNING", "true")

	cfg, err := ConfigFromEnv("CPUSTREAMS_")
	require.NoError(t, err)
	assert.Equal(t, "envexec", cfg.Name)
	assert.Equal(t, 3, cfg.Streams)
	assert.Equal(t, 2, cfg.ThreadsPerStream)
	assert.Equal(t, BindCores, cfg.ThreadBindingType)
	assert.True(t, cfg.CPUPinning)
	assert.Equal(t, 1, cfg.ThreadBindingStep, "unset variables keep defaults")
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("CPUSTREAMS_THREAD_BINDING", "everywhere")
	_, err := ConfigFromEnv("CPUSTREAMS_")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"name": "filecfg",
		"streams": 2,
		"threadBindingType": "numa",
		"streamsInfo": [{"streams": 2, "procType": 1, "threadsPerStream": 4}]
	}`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "filecfg", cfg.Name)
	assert.Equal(t, BindNUMA, cfg.ThreadBindingType)
	assert.Equal(t, []int{0, 0}, cfg.streamRows())

	def, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(""), def)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
