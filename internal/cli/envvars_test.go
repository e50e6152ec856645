package cli

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFlagsWithEnvVars(t *testing.T) {
	for _, tc := range []struct {
		name          string
		args          []string
		environ       []string
		expectedModel string
		expectedDelay int
		expectError   bool
	}{
		{
			name:          "defaults",
			expectedModel: "default-model",
			expectedDelay: 1,
		},
		{
			name:          "env vars",
			environ:       []string{"TEST_CHAT_MODEL=env-model", "TEST_CHUNK_DELAY=2", "OTHER_VAR=ignored"},
			expectedModel: "env-model",
			expectedDelay: 2,
		},
		{
			name:          "flags override env vars",
			args:          []string{"-chat-model=flag-model"},
			environ:       []string{"TEST_CHAT_MODEL=env-model"},
			expectedModel: "flag-model",
			expectedDelay: 1,
		},
		{
			name:        "unsupported env var",
			environ:     []string{"TEST_UNKNOWN=value"},
			expectError: true,
		},
		{
			name:        "invalid env var value",
			environ:     []string{"TEST_CHUNK_DELAY=soon"},
			expectError: true,
		},
		{
			name:        "invalid log level",
			environ:     []string{"TEST_LOG_LEVEL=VERBOSE"},
			expectError: true,
		},
		{
			name:        "unknown flag",
			args:        []string{"-unknown"},
			expectError: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			flags := flag.NewFlagSet("test", flag.ContinueOnError)
			flags.SetOutput(io.Discard)
			model := flags.String("chat-model", "default-model", "chat model")
			delay := flags.Int("chunk-delay", 1, "chunk delay")

			err := parseFlagsWithEnvVars(flags, "TEST_", tc.args, tc.environ)

			if tc.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expectedModel, *model, "chat-model")
			require.Equal(t, tc.expectedDelay, *delay, "chunk-delay")
		})
	}
}

func TestEnvVarName(t *testing.T) {
	require.Equal(t, "VTB_TELEGRAM_TOKEN", EnvVarName("VTB_", "telegram-token"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	err := os.WriteFile(file, []byte("VTB_TEST_DOTENV_VAR=from-file\n"), 0o600)
	require.NoError(t, err)

	t.Setenv("VTB_TEST_DOTENV_VAR", "")
	os.Unsetenv("VTB_TEST_DOTENV_VAR")

	err = LoadDotEnv(filepath.Join(dir, "missing.env"), file)

	require.NoError(t, err)
	require.Equal(t, "from-file", os.Getenv("VTB_TEST_DOTENV_VAR"))
}

func TestParseFlagsWithEnvVarsAppliesConfigFirst(t *testing.T) {
	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	apiKey := ""
	configFile := ""
	flags.StringVar(&apiKey, "api-key", "", "api key")
	flags.Func(ConfigFlagName, "config file", func(s string) error {
		// Loading a config file replaces previously applied values
		apiKey = "from-config"
		configFile = s
		return nil
	})

	err := parseFlagsWithEnvVars(flags, "TEST_", nil, []string{"TEST_CONFIG=/config.yaml", "TEST_API_KEY=secret"})

	require.NoError(t, err)
	require.Equal(t, "/config.yaml", configFile)
	require.Equal(t, "secret", apiKey)
}
