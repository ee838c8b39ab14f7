package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/voxlab/subvox/internal/voices"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "Manage cached voice models",
	Long:  paragraph(fmt.Sprintf("\nList the %s available locally, or fetch new ones into the cache.", keyword("voice models"))),
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		mgr, err := voiceManager()
		if err != nil {
			return err
		}

		cached, err := mgr.List()
		if err != nil {
			return err
		}
		if len(cached) == 0 {
			fmt.Println("No voices cached. Fetch one with: subvox voices fetch <id>")
			return nil
		}
		for _, v := range cached {
			fmt.Printf("%s  %s\n", okStyle.Render(v.ID), v.Language)
		}
		return nil
	},
}

var voicesFetchCmd = &cobra.Command{
	Use:     "fetch <id>",
	Short:   "Download a voice model into the cache",
	Example: paragraph("subvox voices fetch en_US-lessac-medium"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := voiceManager()
		if err != nil {
			return err
		}

		id := args[0]
		if err := mgr.Fetch(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("%s %s -> %s\n", okStyle.Render("  OK"), id, mgr.ModelPath(id))
		return nil
	},
}

func voiceManager() (*voices.Manager, error) {
	cacheDir, err := voices.DefaultCacheDir()
	if err != nil {
		return nil, err
	}
	return voices.NewManager(cacheDir, viper.GetString("voice_base_url")), nil
}

func init() {
	voicesCmd.AddCommand(voicesFetchCmd)
}
