package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khabaroff/apikeys-dashboard/src/models"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

// ---------- generate ----------

func newGenerateCmd(flags *globalFlags) *cobra.Command {
	var (
		name    string
		keyType string
		output  string
	)

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"create"},
		Short:   "Generate a new API key",
		Long:    "Generate a new active API key. The full secret is printed once.",
		Example: `  keyctl generate --name "CI pipeline" --type prod
  keyctl generate --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}
			return flags.withRegistry(cmd.Context(), func(registry *services.KeyRegistry) error {
				key, err := registry.Generate(cmd.Context(), name, models.KeyType(keyType))
				if err != nil {
					return fmt.Errorf("generate key: %w", err)
				}

				w := cmd.OutOrStdout()
				if output != outputTable {
					return writeStructured(w, output, newKeyView(key))
				}

				fmt.Fprintln(w, "API key created:")
				fmt.Fprintln(w)
				fmt.Fprintf(w, "  ID:   %s\n", key.ID)
				fmt.Fprintf(w, "  Name: %s\n", key.Name)
				fmt.Fprintf(w, "  Type: %s\n", key.Type)
				fmt.Fprintf(w, "  Key:  %s\n", key.Key)
				fmt.Fprintln(w)
				fmt.Fprintln(w, "  Save this key now - list output only shows it masked.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "label for the key (default \"Default\")")
	cmd.Flags().StringVar(&keyType, "type", string(models.KeyTypeDev), "key type: dev or prod")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	return cmd
}

// ---------- list ----------

func newListCmd(flags *globalFlags) *cobra.Command {
	var (
		all    bool
		output string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List API keys, newest first",
		Long:    "List API keys newest first. Deactivated keys are hidden unless --all is given.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(output); err != nil {
				return err
			}
			return flags.withRegistry(cmd.Context(), func(registry *services.KeyRegistry) error {
				keys, err := registry.List(cmd.Context(), !all)
				if err != nil {
					return fmt.Errorf("list keys: %w", err)
				}

				w := cmd.OutOrStdout()
				if output != outputTable {
					views := make([]keyView, 0, len(keys))
					for i := range keys {
						views = append(views, newKeyView(&keys[i]))
					}
					return writeStructured(w, output, views)
				}

				if len(keys) == 0 {
					fmt.Fprintln(w, "No API keys found. Use 'keyctl generate' to create one.")
					return nil
				}
				return writeKeyTable(w, keys)
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include deactivated keys")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	return cmd
}

// ---------- revoke ----------

func newRevokeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "revoke <id>",
		Aliases: []string{"deactivate"},
		Short:   "Deactivate an API key by ID",
		Long:    "Deactivate an API key. The record is kept and validates as INACTIVE from then on.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withRegistry(cmd.Context(), func(registry *services.KeyRegistry) error {
				if err := registry.Deactivate(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("revoke key: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Revoked API key %s\n", args[0])
				return nil
			})
		},
	}
}

// ---------- validate ----------

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate <key>",
		Short: "Check whether a key is VALID, INACTIVE or INVALID",
		Long: `Look up a key by exact match and print its status.
With --quiet nothing is printed and the exit status is non-zero unless the key is VALID.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withRegistry(cmd.Context(), func(registry *services.KeyRegistry) error {
				result, err := registry.Validate(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("validate key: %w", err)
				}

				if quiet {
					if !result.IsValid() {
						return fmt.Errorf("key is %s", result.Status)
					}
					return nil
				}

				w := cmd.OutOrStdout()
				fmt.Fprintln(w, result.Status)
				if result.Key != nil {
					fmt.Fprintf(w, "  ID:   %s\n", result.Key.ID)
					fmt.Fprintf(w, "  Name: %s\n", result.Key.Name)
					fmt.Fprintf(w, "  Type: %s\n", result.Key.Type)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only report through the exit status")

	return cmd
}
