package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var GLOBAL_LOG_LEVEL = LogLevelInfo
var GLOBAL_LOG_CATEGORIES = LogVoxel | LogIO | LogSystem

type LogLevel int

const (
	LogLevelError LogLevel = 1 << iota
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERR"
	case LogLevelWarning:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// ParseLogLevel accepts error, warning, info and debug.
func ParseLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "error", "err":
		return LogLevelError, nil
	case "warning", "warn":
		return LogLevelWarning, nil
	case "info", "":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	}
	return LogLevelInfo, errors.Errorf("unknown log level %q", name)
}

type LogCategory int

const (
	LogVoxel LogCategory = 1 << iota
	LogIO
	LogSystem
)

var (
	logMutex  sync.Mutex
	logOutput io.Writer = os.Stderr
)

// SetLogOutput redirects all log lines, it returns the previous writer.
func SetLogOutput(w io.Writer) io.Writer {
	logMutex.Lock()
	defer logMutex.Unlock()
	previous := logOutput
	logOutput = w
	return previous
}

func log(cat LogCategory, lvl LogLevel, txt string) {
	if lvl > GLOBAL_LOG_LEVEL {
		return
	}
	if GLOBAL_LOG_CATEGORIES&cat == 0 {
		return
	}
	logMutex.Lock()
	defer logMutex.Unlock()
	fmt.Fprintf(logOutput, "%-5s %s\n", lvl, txt)
}

func LogVoxelInfo(txt string) {
	log(LogVoxel, LogLevelInfo, txt)
}

func LogVoxelDebug(txt string) {
	log(LogVoxel, LogLevelDebug, txt)
}

func LogVoxelWarning(txt string) {
	log(LogVoxel, LogLevelWarning, txt)
}

func LogVoxelError(txt string) {
	log(LogVoxel, LogLevelError, txt)
}

func LogIOInfo(txt string) {
	log(LogIO, LogLevelInfo, txt)
}

func LogIOError(txt string) {
	log(LogIO, LogLevelError, txt)
}

func LogSystemInfo(txt string) {
	log(LogSystem, LogLevelInfo, txt)
}

func LogSystemError(txt string) {
	log(LogSystem, LogLevelError, txt)
}
