package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoolCat467/idletypecheck/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persisted settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write missing settings with their default values",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := a.requireStore()
				if err != nil {
					return err
				}
				written, err := store.EnsureDefaults()
				if err != nil {
					return newExitError(ExitCodeInvalidUsage, err)
				}
				if written {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", store.Path)
				} else {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", store.Path)
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the settings in effect",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := a.requireStore()
				if err != nil {
					return err
				}
				f, err := store.Load()
				if err != nil {
					return newExitError(ExitCodeInvalidUsage, err)
				}
				raw, err := config.Encode(f)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), raw)
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the settings file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := a.requireStore()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), store.Path)
				return err
			},
		},
	)
	return cmd
}

func (a *app) requireStore() (*config.Store, error) {
	store := a.store()
	if store == nil {
		return nil, newExitError(ExitCodeInvalidUsage, errors.New("no settings location; pass --config"))
	}
	return store, nil
}
