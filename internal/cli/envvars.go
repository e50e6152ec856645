package cli

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// ConfigFlagName is the name of the flag that selects the configuration file.
// Its environment variable is applied before all others.
const ConfigFlagName = "config"

// LoadDotEnv loads environment variables from the given files, ".env" by default.
// Missing files are ignored and variables that are already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		err := godotenv.Load(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("load env file: %w", err)
		}

		slog.Debug(fmt.Sprintf("loaded environment variables from %s", file))
	}

	return nil
}

// ParseFlagsWithEnvVars parses the command line flags, accepting each flag also as environment variable.
// It exits the process when an invalid flag or an unsupported environment variable with the given prefix is provided.
func ParseFlagsWithEnvVars(flags *flag.FlagSet, envVarPrefix string) {
	err := parseFlagsWithEnvVars(flags, envVarPrefix, os.Args[1:], os.Environ())
	if err != nil {
		flags.Usage()
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func parseFlagsWithEnvVars(flags *flag.FlagSet, envVarPrefix string, args, environ []string) error {
	addLogFlags(flags)

	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) == 2 {
			env[kv[0]] = kv[1]
		}
	}

	supportedEnvVars := map[string]struct{}{}
	var all []*flag.Flag

	flags.VisitAll(func(f *flag.Flag) {
		all = append(all, f)
	})

	// The config file replaces the values of the other flags.
	slices.SortStableFunc(all, func(a, b *flag.Flag) int {
		return configFlagOrder(a) - configFlagOrder(b)
	})

	for _, f := range all {
		envVarName := EnvVarName(envVarPrefix, f.Name)
		f.Usage = fmt.Sprintf("%s (%s)", f.Usage, envVarName)
		supportedEnvVars[envVarName] = struct{}{}

		if envVarValue := env[envVarName]; envVarValue != "" {
			f.DefValue = envVarValue

			if err := f.Value.Set(envVarValue); err != nil {
				return fmt.Errorf("invalid environment variable %s value provided: %w", envVarName, err)
			}
		}
	}

	for name := range env {
		if strings.HasPrefix(name, envVarPrefix) {
			if _, ok := supportedEnvVars[name]; !ok {
				return fmt.Errorf("unsupported environment variable provided: %s", name)
			}
		}
	}

	return flags.Parse(args)
}

func configFlagOrder(f *flag.Flag) int {
	if f.Name == ConfigFlagName {
		return 0
	}

	return 1
}

// EnvVarName returns the environment variable name of a flag.
func EnvVarName(envVarPrefix, flagName string) string {
	return envVarPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}
