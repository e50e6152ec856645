package cli

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
)

var logLevel = &slog.LevelVar{}

func addLogFlags(flags *flag.FlagSet) {
	if flags.Lookup("log-level") == nil {
		flags.Var(logLevelFlag("INFO"), "log-level", "set the log level")
	}

	if flags.Lookup("log-format") == nil {
		flags.Var(logFormatFlag("text"), "log-format", "set the log format (text, json)")
	}
}

type logLevelFlag string

func (logLevelFlag) Set(s string) error {
	var level slog.Level

	switch s {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		return fmt.Errorf("unsupported log level %q provided. supported log levels are DEBUG, INFO, WARN, ERROR", s)
	}

	logLevel.Set(level)
	slog.SetLogLoggerLevel(level)

	return nil
}

func (f logLevelFlag) String() string {
	return string(f)
}

func (f logLevelFlag) Type() string {
	return "LEVEL"
}

type logFormatFlag string

func (logFormatFlag) Set(s string) error {
	opts := &slog.HandlerOptions{Level: logLevel}

	switch s {
	case "text":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	default:
		return fmt.Errorf("unsupported log format %q provided. supported log formats are text, json", s)
	}

	return nil
}

func (f logFormatFlag) String() string {
	return string(f)
}

func (f logFormatFlag) Type() string {
	return "FORMAT"
}
