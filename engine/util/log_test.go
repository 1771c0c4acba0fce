package util

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for name, want := range map[string]LogLevel{
		"error": LogLevelError,
		"WARN":  LogLevelWarning,
		"":      LogLevelInfo,
		"debug": LogLevelDebug,
	} {
		got, err := ParseLogLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLog_FiltersByLevelAndCategory(t *testing.T) {
	var buf bytes.Buffer
	previous := SetLogOutput(&buf)
	level, categories := GLOBAL_LOG_LEVEL, GLOBAL_LOG_CATEGORIES
	defer func() {
		SetLogOutput(previous)
		GLOBAL_LOG_LEVEL, GLOBAL_LOG_CATEGORIES = level, categories
	}()
	GLOBAL_LOG_LEVEL = LogLevelInfo
	GLOBAL_LOG_CATEGORIES = LogVoxel | LogSystem

	LogVoxelInfo("[Mesher] shown")
	LogVoxelDebug("[Mesher] too verbose")
	LogIOError("[Map] wrong category")
	LogSystemError("[Metrics] broken")

	assert.Equal(t, "INFO  [Mesher] shown\nERR   [Metrics] broken\n", buf.String())
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	for i := 0; i < 3; i++ {
		stop := timer.Start("mesh")
		time.Sleep(time.Millisecond)
		assert.GreaterOrEqual(t, stop(), time.Millisecond)
	}
	timer.Start("export")()

	state := timer.GetState("mesh")
	require.NotNil(t, state)
	assert.Equal(t, int64(3), state.Count())
	assert.GreaterOrEqual(t, state.Average(), time.Millisecond)
	assert.Nil(t, timer.GetState("missing"))
	lines := timer.String()
	assert.Regexp(t, `(?s)^mesh .*\nexport .*\n$`, lines)
}
