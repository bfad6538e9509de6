package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	appregistry "github.com/albertocavalcante/go-appregistry"
)

var (
	adminSave bool
	addIcon   string
	addKey    string
)

var addCmd = &cobra.Command{
	Use:   "add LABEL URL",
	Short: "Add an application, or edit one with --key",
	Long: `Adds a link tile. --icon accepts a path or URL; an existing image file is
embedded as a data URI. Changes are kept for this run only unless --save is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdmin(cmd, func(m *appregistry.AdminModel) error {
			icon, err := iconValue(addIcon)
			if err != nil {
				return err
			}
			key, err := m.Upsert(appregistry.AppForm{
				Key:   addKey,
				Label: args[0],
				Href:  args[1],
				Icon:  icon,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("saved"), key)
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove KEY",
	Short: "Remove an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdmin(cmd, func(m *appregistry.AdminModel) error {
			if err := m.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.RedString("removed"), args[0])
			return nil
		})
	},
}

var setURLCmd = &cobra.Command{
	Use:   "set-url KEY URL",
	Short: "Change the link of an application",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdmin(cmd, func(m *appregistry.AdminModel) error {
			return m.SetURL(args[0], args[1])
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{addCmd, removeCmd, setURLCmd} {
		c.Flags().BoolVar(&adminSave, "save", false, "save the result as the local override")
	}
	addCmd.Flags().StringVar(&addIcon, "icon", "", "icon path, URL or image file to embed")
	addCmd.Flags().StringVar(&addKey, "key", "", "edit the application with this key")

	rootCmd.AddCommand(addCmd, removeCmd, setURLCmd)
}

// runAdmin loads the registry, applies edit to an admin session and
// optionally saves the result.
func runAdmin(cmd *cobra.Command, edit func(*appregistry.AdminModel) error) error {
	s, err := loadRegistry(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	m := s.reg.Admin()
	if err := edit(m); err != nil {
		return err
	}
	if adminSave {
		if !m.Save(cmd.Context()) {
			return errors.New("unable to save local overrides")
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), color.HiBlackString("not saved; use --save to persist"))
	}
	return printRegistry(cmd.OutOrStdout(), s.reg.Snapshot())
}

// iconValue embeds v when it names a readable file and returns it unchanged
// otherwise.
func iconValue(v string) (string, error) {
	if v == "" {
		return "", nil
	}
	info, err := os.Stat(v)
	if err != nil || info.IsDir() {
		return v, nil
	}
	data, err := os.ReadFile(v)
	if err != nil {
		return "", err
	}
	return appregistry.IconDataURI(v, data), nil
}
