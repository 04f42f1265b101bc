package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"sitecraft/internal/schema"
)

// SchemaCommand prints the element catalog, or one merged element config,
// as JSON.
func SchemaCommand() *cobra.Command {
	var typ, subtype string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the element schema as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := schema.Builtin()
			var out any = registry.Catalog()
			if typ != "" {
				cfg, err := registry.Config(typ, subtype)
				if err != nil {
					return err
				}
				out = cfg.Describe()
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Element type to describe")
	cmd.Flags().StringVar(&subtype, "subtype", "", "Subtype of --type (defaults to the type's default subtype)")
	return cmd
}
