package commands

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// NewEnvironmentsCommand creates the environments command group
func NewEnvironmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "environments",
		Aliases: []string{"environment", "env"},
		Short:   "Manage environments",
		Long:    "List, create, clone and delete environments of a space",
	}

	cmd.AddCommand(newEnvironmentsListCommand())
	cmd.AddCommand(newEnvironmentsGetCommand())
	cmd.AddCommand(newEnvironmentsCreateCommand())
	cmd.AddCommand(newEnvironmentsDeleteCommand())
	cmd.AddCommand(newEnvironmentsWaitCommand())

	return cmd
}

func environmentStatus(env *cma.Environment) string {
	if status := env.JobStatus(); status != "" {
		return status
	}

	return constants.NotAvailable
}

var environmentRenderer = &OutputRenderer[*cma.Environment]{
	RenderTable: func(out io.Writer, env *cma.Environment) error {
		rows := sysRows(env.Sys.Sys)
		rows = append(rows,
			[]string{"Name", env.Name},
			[]string{"Status", environmentStatus(env)},
		)

		if env.Sys.SourceEnvironment != nil {
			rows = append(rows, []string{"Source", env.Sys.SourceEnvironment.Sys.ID})
		}

		return propertyTable(out, rows)
	},
}

var environmentListRenderer = &OutputRenderer[*cma.Collection[cma.Environment]]{
	RenderTable: func(out io.Writer, list *cma.Collection[cma.Environment]) error {
		table := tablewriter.NewWriter(out)
		table.Header("ID", "Name", "Status", "Updated")

		for i := range list.Items {
			env := &list.Items[i]
			_ = table.Append(env.Sys.ID, env.Name, environmentStatus(env), formatTime(env.Sys.UpdatedAt))
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	},
}

func newEnvironmentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List environments",
		Long:  "List the environments of the configured space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			space := viper.GetString(keySpace)
			if space == "" {
				return constants.ErrNoSpaceConfigured
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			list, err := client.Environments().List(cmd.Context(), space)
			if err != nil {
				return fmt.Errorf("failed to list environments: %w", err)
			}

			return environmentListRenderer.Render(cmd, list)
		},
	}
}

func newEnvironmentsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ENVIRONMENT_ID",
		Short: "Get environment details",
		Long:  "Display an environment and its readiness status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space := viper.GetString(keySpace)
			if space == "" {
				return constants.ErrNoSpaceConfigured
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			env, err := client.Environments().Get(cmd.Context(), space, args[0])
			if err != nil {
				return fmt.Errorf("failed to get environment: %w", err)
			}

			return environmentRenderer.Render(cmd, env)
		},
	}
}

func newEnvironmentsCreateCommand() *cobra.Command {
	var (
		name   string
		source string
		poll   pollFlags
	)

	cmd := &cobra.Command{
		Use:   "create ENVIRONMENT_ID",
		Short: "Create an environment",
		Long:  "Create an environment, cloned from --source or from master",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space := viper.GetString(keySpace)
			if space == "" {
				return constants.ErrNoSpaceConfigured
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			request := &cma.EnvironmentCreateRequest{Name: name}

			env, err := client.Environments().Create(cmd.Context(), space, args[0], request, source)
			if err != nil {
				return fmt.Errorf("failed to create environment: %w", err)
			}

			if !poll.wait {
				return environmentRenderer.Render(cmd, env)
			}

			return waitEnvironment(cmd, client, space, env.Sys.ID, &poll)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the ID)")
	cmd.Flags().StringVar(&source, "source", "", "environment to clone")
	addPollFlags(cmd, &poll, true)

	return cmd
}

func newEnvironmentsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ENVIRONMENT_ID",
		Short: "Delete an environment",
		Long:  "Delete an environment and all of its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space := viper.GetString(keySpace)
			if space == "" {
				return constants.ErrNoSpaceConfigured
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			err = client.Environments().Delete(cmd.Context(), space, args[0])
			if err != nil {
				return fmt.Errorf("failed to delete environment: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Environment %s deleted\n", args[0])

			return nil
		},
	}
}

func newEnvironmentsWaitCommand() *cobra.Command {
	var poll pollFlags

	cmd := &cobra.Command{
		Use:   "wait ENVIRONMENT_ID",
		Short: "Wait for an environment",
		Long:  "Poll an environment until it is ready, failed, or the retry budget runs out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space := viper.GetString(keySpace)
			if space == "" {
				return constants.ErrNoSpaceConfigured
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			return waitEnvironment(cmd, client, space, args[0], &poll)
		},
	}

	addPollFlags(cmd, &poll, false)

	return cmd
}

func waitEnvironment(cmd *cobra.Command, client cma.Client, space, environmentID string, poll *pollFlags) error {
	policy, closeObserver, err := poll.policy(cmd)
	if err != nil {
		return err
	}
	defer closeObserver()

	env, err := client.Environments().WaitUntilReady(cmd.Context(), space, environmentID, policy)

	return renderJob(cmd, environmentRenderer, env, err)
}
