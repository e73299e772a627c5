package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/conduit-lang/projector/internal/handlers"
	"github.com/conduit-lang/projector/internal/render"
	"github.com/conduit-lang/projector/internal/transform/selector"
	"github.com/conduit-lang/projector/internal/visitor"
	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command
func NewRenderCommand() *cobra.Command {
	var (
		entityType  string
		ids         []int64
		include     string
		exclude     string
		visitorID   int64
		ignored     []int64
		permissions []string
		fixtures    string
		pretty      bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render entities as JSON",
		Long: `Render loads entities of one type by id and prints their API output.

Examples:
  projector render --ids 1,2 --visitor 1 --fixtures sample
  projector render --type conversation_message --ids 10 --exclude attachments
  projector render --ids 1 --include "*,last_message" --pretty`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return fmt.Errorf("--ids is required")
			}

			a, err := newApp(cmd.Context(), fixtures)
			if err != nil {
				return err
			}
			defer a.Close()

			v := visitor.New(visitorID,
				visitor.WithIgnored(ignored...),
				visitor.WithPermissions(permissions...),
			)

			body, err := a.renderer.Render(cmd.Context(), render.Request{
				Type:     entityType,
				IDs:      ids,
				Visitor:  v,
				Selector: selector.Parse(include, exclude),
			})
			if err != nil {
				return err
			}

			if pretty {
				var buf bytes.Buffer
				if err := json.Indent(&buf, body, "", "  "); err != nil {
					return err
				}
				body = buf.Bytes()
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&entityType, "type", handlers.TypeConversation, "Entity type to render")
	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "Entity ids, comma separated")
	cmd.Flags().StringVar(&include, "include", "", "Fields to include, comma separated dotted keys")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Fields to exclude, comma separated dotted keys")
	cmd.Flags().Int64Var(&visitorID, "visitor", 0, "Visitor user id (0 for guest)")
	cmd.Flags().Int64SliceVar(&ignored, "ignore", nil, "User ids the visitor ignores")
	cmd.Flags().StringSliceVar(&permissions, "permission", nil, "Permissions granted to the visitor")
	cmd.Flags().StringVar(&fixtures, "fixtures", "", `Fixture file to serve data from, or "sample"`)
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")

	return cmd
}
