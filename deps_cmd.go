package main

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/voxlab/subvox/internal/audio"
	"github.com/voxlab/subvox/tts/engines/piper"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Report the external tools subvox depends on",
	Long:  paragraph(fmt.Sprintf("\nCheck whether %s can find the external tools it shells out to.", keyword("subvox"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		piperConfig, err := env.ParseAs[piper.Config]()
		if err != nil {
			return fmt.Errorf("error parsing engine config: %w", err)
		}

		statuses := []audio.DependencyStatus{
			audio.CheckFFmpeg(cmd.Context()),
			audio.CheckTool(piperConfig.BinaryPath, "install piper (https://github.com/rhasspy/piper)", true),
		}

		missing := false
		for _, st := range statuses {
			switch {
			case st.Installed && st.Version != "":
				fmt.Printf("%s %s %s (%s)\n", okStyle.Render("  ok"), st.Name, st.Version, st.Path)
			case st.Installed:
				fmt.Printf("%s %s (%s)\n", okStyle.Render("  ok"), st.Name, st.Path)
			case st.Required:
				missing = true
				fmt.Printf("%s %s: %s\n", failStyle.Render("miss"), st.Name, st.Instructions)
			default:
				fmt.Printf("%s %s: %s\n", warnStyle.Render("warn"), st.Name, st.Instructions)
			}
		}

		if missing {
			return errors.New("required tools are missing")
		}
		return nil
	},
}
