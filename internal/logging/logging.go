// Package logging configures zerolog for the process.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnv names the environment variable that sets the default level.
const LevelEnv = "SPINLESS_LOG_LEVEL"

// Options controls Setup.
type Options struct {
	// Level is a zerolog level name; empty falls back to LevelEnv, then info.
	Level string
	// Verbose forces debug level.
	Verbose bool
	// JSON writes machine-readable lines instead of console output.
	JSON bool
	// Out receives log output; nil means stderr. Stdout is left to command
	// output and the MCP transport.
	Out io.Writer
	// Extra receives a JSON copy of every line (e.g. a --log-file).
	Extra io.Writer
}

// ParseLevel accepts zerolog level names plus "warning".
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level: %s", s)
	}
	return level, nil
}

// Setup configures zerolog and returns the root logger. It also replaces the
// global log.Logger.
func Setup(opts Options) (zerolog.Logger, error) {
	name := opts.Level
	if name == "" {
		name = os.Getenv(LevelEnv)
	}
	level, err := ParseLevel(name)
	if err != nil {
		return zerolog.Nop(), err
	}
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var writer io.Writer = out
	if !opts.JSON {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	if opts.Extra != nil {
		writer = zerolog.MultiLevelWriter(writer, opts.Extra)
	}

	logger := zerolog.New(writer).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger, nil
}
