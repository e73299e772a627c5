package commands

import (
	"fmt"
	"github.com/conduit-lang/projector/internal/handlers"
	"github.com/conduit-lang/projector/internal/transform"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the schema and handler registrations",
		Long:  "Validate checks every relation of the forum schema and every handler's output keys, then lists the registered types.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := handlers.ForumSchema().Validate(); err != nil {
				return err
			}

			registry, err := handlers.NewRegistry(handlers.DefaultPolicy{})
			if err != nil {
				return err
			}

			okColor := color.New(color.FgGreen, color.Bold)
			out := cmd.OutOrStdout()

			for _, typ := range registry.Types() {
				h, err := registry.Lookup(typ)
				if err != nil {
					return err
				}
				okColor.Fprint(out, "✓ ")
				fmt.Fprintf(out, "%s (%d keys)\n", typ, len(h.Mappings(&transform.Context{})))
			}
			return nil
		},
	}
}
