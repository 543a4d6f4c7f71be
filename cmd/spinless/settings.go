package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spinless-app/spinless/internal/config"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or save default options",
	}
	cmd.AddCommand(newSettingsShowCmd())
	cmd.AddCommand(newSettingsSaveCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings(config.GetSettingsPath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return outputJSON(out, settings)
			case "yaml":
				fmt.Fprintf(out, "# %s\n", config.GetSettingsPath())
				encoder := yaml.NewEncoder(out)
				encoder.SetIndent(2)
				if err := encoder.Encode(settings); err != nil {
					return err
				}
				return encoder.Close()
			default:
				return fmt.Errorf("invalid format: %s (valid values: yaml, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	return cmd
}

func newSettingsSaveCmd() *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the given options as defaults",
		Long:  "Save merges the given flags into the settings file; flags not given keep their saved value.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := flags.settings(cmd)
			if err != nil {
				return err
			}
			path := config.GetSettingsPath()
			if err := config.SaveSettings(path, settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved settings to %s\n", path)
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}
