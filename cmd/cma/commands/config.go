package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// Masked replaces secrets in output.
const Masked = "***"

// Config is the content of the CLI configuration file.
type Config struct {
	API         string `json:"api,omitempty"         yaml:"api,omitempty"`
	Token       string `json:"token,omitempty"       yaml:"token,omitempty"`
	Space       string `json:"space,omitempty"       yaml:"space,omitempty"`
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`
	Output      string `json:"output,omitempty"      yaml:"output,omitempty"`
	NATSURL     string `json:"nats_url,omitempty"    yaml:"nats_url,omitempty"`
}

// set assigns a value by configuration key.
func (c *Config) set(key, value string) error {
	switch key {
	case keyAPI:
		c.API = value
	case keyToken:
		c.Token = value
	case keySpace:
		c.Space = value
	case keyEnvironment:
		c.Environment = value
	case keyOutput:
		switch value {
		case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		default:
			return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
		}

		c.Output = value
	case keyNATSURL, "nats-url":
		c.NATSURL = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// NewConfigCommand creates the config command group
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the CMA CLI configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigSetTokenCommand())

	return cmd
}

var configRenderer = &OutputRenderer[*Config]{
	RenderTable: func(out io.Writer, config *Config) error {
		value := func(v string) string {
			if v == "" {
				return constants.NotAvailable
			}

			return v
		}

		return propertyTable(out, [][]string{
			{"API", value(config.API)},
			{"Token", value(config.Token)},
			{"Space", value(config.Space)},
			{"Environment", value(config.Environment)},
			{"Output", value(config.Output)},
			{"NATS URL", value(config.NATSURL)},
		})
	},
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from flags, environment and config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := &Config{
				API:         viper.GetString(keyAPI),
				Space:       viper.GetString(keySpace),
				Environment: viper.GetString(keyEnvironment),
				Output:      viper.GetString(keyOutput),
				NATSURL:     viper.GetString(keyNATSURL),
			}

			if config.API == "" {
				config.API = constants.DefaultAPIEndpoint
			}

			if viper.GetString(keyToken) != "" {
				config.Token = Masked
			}

			return configRenderer.Render(cmd, config)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set one of api, space, environment, output or nats_url in the config file",
		Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			err := updateConfigFile(func(config *Config) error {
				return config.set(key, value)
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", key)

			return nil
		},
	}
}

func newConfigSetTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token",
		Short: "Store an access token",
		Long:  "Read a personal access token from the terminal (or stdin) and store it in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd)
			if err != nil {
				return err
			}

			if token == "" {
				return constants.ErrNoAccessToken
			}

			err = updateConfigFile(func(config *Config) error {
				return config.set(keyToken, token)
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token stored")

			return nil
		},
	}
}

// readToken prompts without echo on a terminal and reads one line otherwise.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")

		data, err := term.ReadPassword(int(file.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	return strings.TrimSpace(line), nil
}

func configFilePath() (string, error) {
	if file := viper.ConfigFileUsed(); file != "" {
		return file, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".cma", "config.yml"), nil
}

// updateConfigFile loads the config file, applies update and writes it back.
func updateConfigFile(update func(*Config) error) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	config := &Config{}

	// path comes from the --config flag or the user's home directory
	// #nosec G304
	data, err := os.ReadFile(path)

	switch {
	case err == nil:
		err = yaml.Unmarshal(data, config)
		if err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read config file: %w", err)
	}

	err = update(config)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err = yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
