package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manash/picfour/internal/keys"
)

func newKeysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored API keys",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <api-key>",
			Short: "Store the Gemini API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				store, err := keys.NewStore()
				if err != nil {
					return err
				}
				if err := store.Set(keys.DefaultProvider, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Stored key for %s: %s\n", keys.DefaultProvider, keys.MaskKey(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "get",
			Short: "Show the stored Gemini API key (masked)",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				store, err := keys.NewStore()
				if err != nil {
					return err
				}
				key, err := store.Get(keys.DefaultProvider)
				if err != nil {
					return err
				}
				if key == "" {
					fmt.Fprintln(app.Out, "No key stored")
					return nil
				}
				fmt.Fprintf(app.Out, "%s: %s\n", keys.DefaultProvider, keys.MaskKey(key))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored keys (masked)",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				store, err := keys.NewStore()
				if err != nil {
					return err
				}
				providers, err := store.List()
				if err != nil {
					return err
				}
				if len(providers) == 0 {
					fmt.Fprintln(app.Out, "No keys stored")
					return nil
				}
				for _, p := range providers {
					key, err := store.Get(p)
					if err != nil {
						return err
					}
					fmt.Fprintf(app.Out, "%s: %s\n", p, keys.MaskKey(key))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete the stored Gemini API key",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				store, err := keys.NewStore()
				if err != nil {
					return err
				}
				if err := store.Delete(keys.DefaultProvider); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Deleted key for %s\n", keys.DefaultProvider)
				return nil
			},
		},
	)

	return cmd
}
