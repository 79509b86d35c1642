package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

// NewAIActionsCommand creates the ai-actions command group
func NewAIActionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ai-actions",
		Aliases: []string{"ai-action", "ai"},
		Short:   "Invoke AI actions",
		Long:    "Invoke AI actions and wait for their generated output",
	}

	cmd.AddCommand(newAIActionsInvokeCommand())
	cmd.AddCommand(newAIActionsGetCommand())
	cmd.AddCommand(newAIActionsWaitCommand())

	return cmd
}

var invocationRenderer = &OutputRenderer[*cma.AIActionInvocation]{
	RenderTable: func(out io.Writer, invocation *cma.AIActionInvocation) error {
		rows := sysRows(invocation.Sys.Sys)
		rows = append(rows, []string{"Status", invocation.Sys.Status})

		if invocation.Sys.AIAction != nil {
			rows = append(rows, []string{"AI Action", invocation.Sys.AIAction.Sys.ID})
		}

		if text, ok := invocation.Result.Text(); ok {
			rows = append(rows, []string{"Result", text})
		} else if invocation.Result != nil {
			rows = append(rows, []string{"Result", string(invocation.Result.Content)})
		}

		rows = append(rows, errorRows(invocation.Error)...)

		return propertyTable(out, rows)
	},
}

func newAIActionsInvokeCommand() *cobra.Command {
	var (
		variables    []string
		outputFormat string
		poll         pollFlags
	)

	cmd := &cobra.Command{
		Use:   "invoke AI_ACTION_ID",
		Short: "Invoke an AI action",
		Long:  "Start an AI action invocation with the given variables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := parseVariables(variables)
			if err != nil {
				return err
			}

			space, environment, err := targetSpace()
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			request := &cma.AIActionInvocationRequest{
				OutputFormat: outputFormat,
				Variables:    vars,
			}

			invocation, err := client.AIActions().Invoke(cmd.Context(), space, environment, args[0], request)
			if err != nil {
				return fmt.Errorf("failed to invoke AI action: %w", err)
			}

			if !poll.wait {
				return invocationRenderer.Render(cmd, invocation)
			}

			return waitInvocation(cmd, client, space, environment, args[0], invocation.Sys.ID, &poll)
		},
	}

	cmd.Flags().StringArrayVar(&variables, "variable", nil, "template variable as ID=VALUE (repeatable)")
	cmd.Flags().StringVar(&outputFormat, "output-format", cma.AIOutputFormatMarkdown, "result format (Markdown, RichText, PlainText)")
	addPollFlags(cmd, &poll, true)

	return cmd
}

func newAIActionsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get AI_ACTION_ID INVOCATION_ID",
		Short: "Get invocation details",
		Long:  "Display the status and result of an AI action invocation",
		Args:  cobra.ExactArgs(2), //nolint:mnd // action and invocation IDs
		RunE: func(cmd *cobra.Command, args []string) error {
			space, environment, err := targetSpace()
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			invocation, err := client.AIActions().GetInvocation(cmd.Context(), space, environment, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get invocation: %w", err)
			}

			return invocationRenderer.Render(cmd, invocation)
		},
	}
}

func newAIActionsWaitCommand() *cobra.Command {
	var poll pollFlags

	cmd := &cobra.Command{
		Use:   "wait AI_ACTION_ID INVOCATION_ID",
		Short: "Wait for an invocation",
		Long:  "Poll an AI action invocation until it completes, fails or is cancelled",
		Args:  cobra.ExactArgs(2), //nolint:mnd // action and invocation IDs
		RunE: func(cmd *cobra.Command, args []string) error {
			space, environment, err := targetSpace()
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			return waitInvocation(cmd, client, space, environment, args[0], args[1], &poll)
		},
	}

	addPollFlags(cmd, &poll, false)

	return cmd
}

func waitInvocation(cmd *cobra.Command, client cma.Client, space, environment, actionID, invocationID string, poll *pollFlags) error {
	policy, closeObserver, err := poll.policy(cmd)
	if err != nil {
		return err
	}
	defer closeObserver()

	invocation, err := client.AIActions().WaitInvocation(cmd.Context(), space, environment, actionID, invocationID, policy)

	return renderJob(cmd, invocationRenderer, invocation, err)
}
