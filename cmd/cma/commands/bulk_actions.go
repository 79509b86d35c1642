package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

// NewBulkActionsCommand creates the bulk-actions command group
func NewBulkActionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bulk-actions",
		Aliases: []string{"bulk-action", "bulk"},
		Short:   "Manage bulk actions",
		Long:    "Publish, unpublish and validate entries and assets in bulk, and wait for the result",
	}

	cmd.AddCommand(newBulkActionsGetCommand())
	cmd.AddCommand(newBulkActionsCreateCommand(cma.BulkActionPublish, "Publish entries and assets"))
	cmd.AddCommand(newBulkActionsCreateCommand(cma.BulkActionUnpublish, "Unpublish entries and assets"))
	cmd.AddCommand(newBulkActionsCreateCommand(cma.BulkActionValidate, "Validate entries and assets"))
	cmd.AddCommand(newBulkActionsWaitCommand())

	return cmd
}

var bulkActionRenderer = &OutputRenderer[*cma.BulkAction]{
	RenderTable: func(out io.Writer, action *cma.BulkAction) error {
		rows := sysRows(action.Sys.Sys)
		rows = append(rows,
			[]string{"Action", action.Action},
			[]string{"Status", action.Sys.Status},
			[]string{"Entities", strconv.Itoa(len(action.Payload.Entities.Items))},
		)
		rows = append(rows, errorRows(action.Error)...)

		return propertyTable(out, rows)
	},
}

func newBulkActionsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get BULK_ACTION_ID",
		Short: "Get bulk action details",
		Long:  "Display the current status of a bulk action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space, environment, err := targetSpace()
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			action, err := client.BulkActions().Get(cmd.Context(), space, environment, args[0])
			if err != nil {
				return fmt.Errorf("failed to get bulk action: %w", err)
			}

			return bulkActionRenderer.Render(cmd, action)
		},
	}
}

func newBulkActionsCreateCommand(action, short string) *cobra.Command {
	var (
		entries []string
		assets  []string
		poll    pollFlags
	)

	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		Long:  short + " in one background bulk action. References are ID or ID@VERSION.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := parseEntityRefs(entries, assets)
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

			ctx := cmd.Context()
			request := cma.NewBulkActionRequest(links...)

			var create func(context.Context, string, string, *cma.BulkActionRequest) (*cma.BulkAction, error)

			switch action {
			case cma.BulkActionUnpublish:
				create = client.BulkActions().Unpublish
			case cma.BulkActionValidate:
				create = client.BulkActions().Validate
			default:
				create = client.BulkActions().Publish
			}

			created, err := create(ctx, space, environment, request)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", action, err)
			}

			if !poll.wait {
				return bulkActionRenderer.Render(cmd, created)
			}

			return waitBulkAction(cmd, client, space, environment, created.Sys.ID, &poll)
		},
	}

	cmd.Flags().StringSliceVar(&entries, "entry", nil, "entry ID or ID@VERSION (repeatable)")
	cmd.Flags().StringSliceVar(&assets, "asset", nil, "asset ID or ID@VERSION (repeatable)")
	addPollFlags(cmd, &poll, true)

	return cmd
}

func newBulkActionsWaitCommand() *cobra.Command {
	var poll pollFlags

	cmd := &cobra.Command{
		Use:   "wait BULK_ACTION_ID",
		Short: "Wait for a bulk action",
		Long:  "Poll a bulk action until it succeeds, fails, or the retry budget runs out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space, environment, err := targetSpace()
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			return waitBulkAction(cmd, client, space, environment, args[0], &poll)
		},
	}

	addPollFlags(cmd, &poll, false)

	return cmd
}

func waitBulkAction(cmd *cobra.Command, client cma.Client, space, environment, id string, poll *pollFlags) error {
	policy, closeObserver, err := poll.policy(cmd)
	if err != nil {
		return err
	}
	defer closeObserver()

	action, err := client.BulkActions().Wait(cmd.Context(), space, environment, id, policy)

	return renderJob(cmd, bulkActionRenderer, action, err)
}
