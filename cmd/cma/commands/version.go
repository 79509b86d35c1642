package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// VersionInfo describes the CLI build.
type VersionInfo struct {
	Version    string `json:"version"     yaml:"version"`
	Commit     string `json:"commit"      yaml:"commit"`
	Built      string `json:"built"       yaml:"built"`
	SDKVersion string `json:"sdk_version" yaml:"sdk_version"`
}

var versionRenderer = &OutputRenderer[VersionInfo]{
	RenderTable: func(out io.Writer, info VersionInfo) error {
		return propertyTable(out, [][]string{
			{"Version", info.Version},
			{"Commit", info.Commit},
			{"Built", info.Built},
			{"SDK", info.SDKVersion},
		})
	},
}

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the CMA CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return versionRenderer.Render(cmd, VersionInfo{
				Version:    version,
				Commit:     commit,
				Built:      date,
				SDKVersion: constants.SDKVersion,
			})
		},
	}
}
