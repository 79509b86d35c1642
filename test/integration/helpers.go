//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	APIEndpoint string
	Token       string
	SpaceID     string
	CmaPath     string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIEndpoint: os.Getenv("CMA_IT_API"),
		Token:       os.Getenv("CMA_IT_TOKEN"),
		SpaceID:     os.Getenv("CMA_IT_SPACE"),
		CmaPath:     getCmaPath(),
		Verbose:     os.Getenv("CMA_IT_VERBOSE") == "true",
	}
}

// getCmaPath determines the path to the cma binary.
func getCmaPath() string {
	if path := os.Getenv("CMA_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../bin/cma", "../../cma", "./cma"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "cma"
}

// SkipIfMissingConfig skips the test unless a token, a space and the binary
// are available.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Token == "" || config.SpaceID == "" {
		t.Skip("CMA_IT_TOKEN or CMA_IT_SPACE not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.CmaPath); err != nil {
		t.Skipf("cma binary not found at %s, skipping integration test", config.CmaPath)
	}
}

// CommandRunner runs the cma binary against an isolated config file.
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a runner whose config file lives in a temp dir.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a cma command and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a cma command with stdin input.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	cmd := exec.Command(runner.config.CmaPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.CmaPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Configure stores the endpoint, token and space in the runner's config file.
func (runner *CommandRunner) Configure() error {
	if runner.config.APIEndpoint != "" {
		_, stderr, err := runner.Run("config", "set", "api", runner.config.APIEndpoint)
		if err != nil {
			return fmt.Errorf("failed to set api endpoint: %s", stderr)
		}
	}

	_, stderr, err := runner.RunWithInput(runner.config.Token+"\n", "config", "set-token")
	if err != nil {
		return fmt.Errorf("failed to store token: %s", stderr)
	}

	_, stderr, err = runner.Run("config", "set", "space", runner.config.SpaceID)
	if err != nil {
		return fmt.Errorf("failed to set space: %s", stderr)
	}

	return nil
}

// RunJSON runs a command with JSON output and decodes it into out.
func (runner *CommandRunner) RunJSON(out interface{}, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	require.NoError(runner.t, err, "stderr: %s", stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), out), "stdout: %s", stdout)
}

// GenerateTestName creates a unique resource name.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().Unix())
}

// CleanupEnvironment deletes a test environment, logging failures.
func (runner *CommandRunner) CleanupEnvironment(environmentID string) {
	stdout, stderr, err := runner.Run("environments", "delete", environmentID)
	if err != nil {
		runner.t.Logf("Cleanup warning for environment %s: %s\nStderr: %s", environmentID, stdout, stderr)
	}
}

// LoadEntryID returns the entry used by bulk action tests.
func LoadEntryID() string {
	return os.Getenv("CMA_IT_ENTRY")
}
