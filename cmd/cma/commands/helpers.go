package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/pkg/cma"
	"github.com/fivetwenty-io/cma/pkg/cmaclient"
)

// Output formats.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
)

// Configuration keys shared by flags, environment and config file.
const (
	keyAPI         = "api"
	keyToken       = "token"
	keySpace       = "space"
	keyEnvironment = "environment"
	keyOutput      = "output"
	keyVerbose     = "verbose"
	keyNATSURL     = "nats_url"
)

// ClientFactory builds the API client used by commands. Tests replace it.
//
//nolint:gochecknoglobals // overridable for tests
var ClientFactory = func(config *cma.Config) (cma.Client, error) {
	return cmaclient.New(context.Background(), config)
}

// CreateClient creates a client from flags, environment and config file.
func CreateClient() (cma.Client, error) {
	token := viper.GetString(keyToken)
	if token == "" {
		return nil, constants.ErrNoAccessToken
	}

	config := &cma.Config{
		APIEndpoint: viper.GetString(keyAPI),
		AccessToken: token,
		UserAgent:   constants.SDKName + "-cli/" + constants.SDKVersion,
	}

	if viper.GetBool(keyVerbose) {
		config.Debug = true
		config.Logger = NewStderrLogger(os.Stderr)
	}

	return ClientFactory(config)
}

// targetSpace returns the configured space and environment.
func targetSpace() (string, string, error) {
	space := viper.GetString(keySpace)
	if space == "" {
		return "", "", constants.ErrNoSpaceConfigured
	}

	environment := viper.GetString(keyEnvironment)
	if environment == "" {
		environment = constants.DefaultEnvironment
	}

	return space, environment, nil
}

// StderrLogger writes log lines as "LEVEL msg key=value ...".
type StderrLogger struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStderrLogger creates a logger writing to out.
func NewStderrLogger(out io.Writer) *StderrLogger {
	return &StderrLogger{out: out}
}

func (l *StderrLogger) log(level, msg string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var b strings.Builder

	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)

	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, fields[key])
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.out, b.String())
}

// Debug implements cma.Logger.
func (l *StderrLogger) Debug(msg string, fields map[string]interface{}) { l.log("DEBUG", msg, fields) }

// Info implements cma.Logger.
func (l *StderrLogger) Info(msg string, fields map[string]interface{}) { l.log("INFO", msg, fields) }

// Warn implements cma.Logger.
func (l *StderrLogger) Warn(msg string, fields map[string]interface{}) { l.log("WARN", msg, fields) }

// Error implements cma.Logger.
func (l *StderrLogger) Error(msg string, fields map[string]interface{}) { l.log("ERROR", msg, fields) }

// pollFlags are the flags of every command that waits for a job.
type pollFlags struct {
	wait          bool
	initialDelay  time.Duration
	retryCount    int
	retryInterval time.Duration
	failOnError   bool
	natsURL       string
}

func addPollFlags(cmd *cobra.Command, flags *pollFlags, withWait bool) {
	defaults := cma.DefaultPollingPolicy()

	if withWait {
		cmd.Flags().BoolVarP(&flags.wait, "wait", "w", false, "wait for the job to finish")
	}

	cmd.Flags().DurationVar(&flags.initialDelay, "initial-delay", defaults.InitialDelay, "delay before the first status check")
	cmd.Flags().IntVar(&flags.retryCount, "retry-count", defaults.RetryCount, "status checks allowed after the first one")
	cmd.Flags().DurationVar(&flags.retryInterval, "retry-interval", defaults.RetryInterval, "delay between status checks")
	cmd.Flags().BoolVar(&flags.failOnError, "fail-on-error", true, "exit non-zero when the job fails")
	cmd.Flags().StringVar(&flags.natsURL, "nats-url", "", "publish the poll outcome to this NATS server")
}

// policy builds the polling policy. The returned closer releases the NATS
// connection, if any.
func (f *pollFlags) policy(cmd *cobra.Command) (*cma.PollingPolicy, func(), error) {
	policy := cma.DefaultPollingPolicy().
		WithInitialDelay(f.initialDelay).
		WithRetryCount(f.retryCount).
		WithRetryInterval(f.retryInterval).
		WithThrowOnFailedExecution(f.failOnError)

	var logger cma.Logger = cma.NoopLogger{}
	if viper.GetBool(keyVerbose) {
		logger = NewStderrLogger(cmd.ErrOrStderr())
		policy = policy.WithLogger(logger)
	}

	err := policy.Validate()
	if err != nil {
		return nil, nil, err
	}

	natsURL := f.natsURL
	if natsURL == "" {
		natsURL = viper.GetString(keyNATSURL)
	}

	if natsURL == "" {
		return policy, func() {}, nil
	}

	observer, err := cma.ConnectNATSObserver(&cma.NATSConfig{URL: natsURL, Name: constants.SDKName + "-cli"}, logger)
	if err != nil {
		return nil, nil, err
	}

	closer := func() {
		_ = observer.Close()
	}

	return policy.WithObserver(observer), closer, nil
}

// OutputRenderer handles different output formats.
type OutputRenderer[T any] struct {
	RenderTable func(out io.Writer, data T) error
}

// Render outputs data in the configured format.
func (o *OutputRenderer[T]) Render(cmd *cobra.Command, data T) error {
	out := cmd.OutOrStdout()

	switch format := viper.GetString(keyOutput); format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(data)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(out)

		return encoder.Encode(data)
	case OutputFormatTable, "":
		return o.RenderTable(out, data)
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
	}
}

// propertyTable renders two column property/value rows.
func propertyTable(out io.Writer, rows [][]string) error {
	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	for _, row := range rows {
		_ = table.Append(row[0], row[1])
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func sysRows(sys cma.Sys) [][]string {
	rows := [][]string{
		{"ID", sys.ID},
		{"Type", sys.Type},
	}

	if sys.Version > 0 {
		rows = append(rows, []string{"Version", strconv.Itoa(sys.Version)})
	}

	rows = append(rows,
		[]string{"Created", formatTime(sys.CreatedAt)},
		[]string{"Updated", formatTime(sys.UpdatedAt)},
	)

	return rows
}

func errorRows(apiErr *cma.APIError) [][]string {
	if apiErr == nil {
		return nil
	}

	return [][]string{{"Error", apiErr.Error()}}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return constants.NotAvailable
	}

	return t.Format(constants.TimeFormat)
}

// parseEntityRefs turns ID or ID@VERSION references into links.
func parseEntityRefs(entries, assets []string) ([]cma.EntityLink, error) {
	links := make([]cma.EntityLink, 0, len(entries)+len(assets))

	add := func(ref string, newLink func(string) cma.EntityLink) error {
		id, version, hasVersion := strings.Cut(ref, "@")
		if id == "" {
			return fmt.Errorf("%w: %q", constants.ErrInvalidEntityVersion, ref)
		}

		link := newLink(id)

		if hasVersion {
			v, err := strconv.Atoi(version)
			if err != nil || v < 1 {
				return fmt.Errorf("%w: %q", constants.ErrInvalidEntityVersion, ref)
			}

			link = link.WithVersion(v)
		}

		links = append(links, link)

		return nil
	}

	for _, ref := range entries {
		err := add(ref, cma.NewEntryLink)
		if err != nil {
			return nil, err
		}
	}

	for _, ref := range assets {
		err := add(ref, cma.NewAssetLink)
		if err != nil {
			return nil, err
		}
	}

	if len(links) == 0 {
		return nil, constants.ErrNoEntitiesSpecified
	}

	return links, nil
}

// parseVariables turns ID=VALUE pairs into AI action variables.
func parseVariables(pairs []string) ([]cma.AIActionVariable, error) {
	variables := make([]cma.AIActionVariable, 0, len(pairs))

	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidVariable, pair)
		}

		variables = append(variables, cma.AIActionVariable{ID: id, Value: value})
	}

	return variables, nil
}

// renderJob renders the outcome of a wait. Jobs that failed or timed out are
// rendered before their error is returned.
func renderJob[T cma.TrackedJob](cmd *cobra.Command, renderer *OutputRenderer[T], job T, err error) error {
	if err == nil {
		return renderer.Render(cmd, job)
	}

	var (
		failedErr  *cma.JobFailedError
		timeoutErr *cma.PollingTimeoutError
		last       cma.TrackedJob
	)

	switch {
	case errors.As(err, &failedErr):
		last = failedErr.Job
	case errors.As(err, &timeoutErr):
		last = timeoutErr.Job
	}

	if snapshot, ok := last.(T); ok {
		_ = renderer.Render(cmd, snapshot)
	}

	return err
}
