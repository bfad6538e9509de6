package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appregistry "github.com/albertocavalcante/go-appregistry"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload whenever the bundled file or local overrides change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		out := cmd.OutOrStdout()
		if err := printRegistry(out, s.reg.Snapshot()); err != nil {
			return err
		}
		cancel := s.reg.Subscribe(func(snap appregistry.Snapshot) {
			fmt.Fprintln(out)
			_ = printRegistry(out, snap)
		})
		defer cancel()

		logger.Info("watching for changes")
		return s.reg.Watch(cmd.Context(), s.watched...)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
