package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

// NewReleasesCommand creates the releases command group
func NewReleasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "releases",
		Aliases: []string{"release"},
		Short:   "Manage releases",
		Long:    "Publish, unpublish and validate releases, and follow their release actions",
	}

	cmd.AddCommand(newReleasesGetCommand())
	cmd.AddCommand(newReleasesActionCommand(cma.ReleaseActionPublish, "Publish a release"))
	cmd.AddCommand(newReleasesActionCommand(cma.ReleaseActionUnpublish, "Unpublish a release"))
	cmd.AddCommand(newReleasesActionCommand(cma.ReleaseActionValidate, "Validate a release"))
	cmd.AddCommand(newReleasesGetActionCommand())
	cmd.AddCommand(newReleasesWaitCommand())

	return cmd
}

var releaseRenderer = &OutputRenderer[*cma.Release]{
	RenderTable: func(out io.Writer, release *cma.Release) error {
		rows := sysRows(release.Sys)
		rows = append(rows,
			[]string{"Title", release.Title},
			[]string{"Entities", strconv.Itoa(len(release.Entities.Items))},
		)

		return propertyTable(out, rows)
	},
}

var releaseActionRenderer = &OutputRenderer[*cma.ReleaseAction]{
	RenderTable: func(out io.Writer, action *cma.ReleaseAction) error {
		rows := sysRows(action.Sys.Sys)
		rows = append(rows,
			[]string{"Release", action.ReleaseID()},
			[]string{"Action", action.Action},
			[]string{"Status", action.Sys.Status},
		)
		rows = append(rows, errorRows(action.Error)...)

		if action.Result != nil {
			for i := range action.Result.Errors {
				rows = append(rows, []string{"Validation", action.Result.Errors[i].Error()})
			}
		}

		return propertyTable(out, rows)
	},
}

func newReleasesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get RELEASE_ID",
		Short: "Get release details",
		Long:  "Display a release and the number of entities it contains",
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

			release, err := client.Releases().Get(cmd.Context(), space, environment, args[0])
			if err != nil {
				return fmt.Errorf("failed to get release: %w", err)
			}

			return releaseRenderer.Render(cmd, release)
		},
	}
}

func newReleasesActionCommand(action, short string) *cobra.Command {
	var (
		version int
		poll    pollFlags
	)

	cmd := &cobra.Command{
		Use:   action + " RELEASE_ID",
		Short: short,
		Long:  short + ". The work runs in the background as a release action.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			releaseID := args[0]

			space, environment, err := targetSpace()
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if action != cma.ReleaseActionValidate && version == 0 {
				release, err := client.Releases().Get(ctx, space, environment, releaseID)
				if err != nil {
					return fmt.Errorf("failed to get release version: %w", err)
				}

				version = release.Sys.Version
			}

			var started *cma.ReleaseAction

			switch action {
			case cma.ReleaseActionUnpublish:
				started, err = client.Releases().Unpublish(ctx, space, environment, releaseID, version)
			case cma.ReleaseActionValidate:
				started, err = client.Releases().Validate(ctx, space, environment, releaseID)
			default:
				started, err = client.Releases().Publish(ctx, space, environment, releaseID, version)
			}

			if err != nil {
				return fmt.Errorf("failed to %s release: %w", action, err)
			}

			if !poll.wait {
				return releaseActionRenderer.Render(cmd, started)
			}

			return waitReleaseAction(cmd, client, space, environment, releaseID, started.Sys.ID, &poll)
		},
	}

	if action != cma.ReleaseActionValidate {
		cmd.Flags().IntVar(&version, "version", 0, "current release version (fetched when omitted)")
	}

	addPollFlags(cmd, &poll, true)

	return cmd
}

func newReleasesGetActionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "action RELEASE_ID ACTION_ID",
		Short: "Get release action details",
		Long:  "Display the current status of a release action",
		Args:  cobra.ExactArgs(2), //nolint:mnd // release and action IDs
		RunE: func(cmd *cobra.Command, args []string) error {
			space, environment, err := targetSpace()
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			action, err := client.Releases().GetAction(cmd.Context(), space, environment, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get release action: %w", err)
			}

			return releaseActionRenderer.Render(cmd, action)
		},
	}
}

func newReleasesWaitCommand() *cobra.Command {
	var poll pollFlags

	cmd := &cobra.Command{
		Use:   "wait RELEASE_ID ACTION_ID",
		Short: "Wait for a release action",
		Long:  "Poll a release action until it succeeds, fails, or the retry budget runs out",
		Args:  cobra.ExactArgs(2), //nolint:mnd // release and action IDs
		RunE: func(cmd *cobra.Command, args []string) error {
			space, environment, err := targetSpace()
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}

			return waitReleaseAction(cmd, client, space, environment, args[0], args[1], &poll)
		},
	}

	addPollFlags(cmd, &poll, false)

	return cmd
}

func waitReleaseAction(cmd *cobra.Command, client cma.Client, space, environment, releaseID, actionID string, poll *pollFlags) error {
	policy, closeObserver, err := poll.policy(cmd)
	if err != nil {
		return err
	}
	defer closeObserver()

	action, err := client.Releases().WaitAction(cmd.Context(), space, environment, releaseID, actionID, policy)

	return renderJob(cmd, releaseActionRenderer, action, err)
}
