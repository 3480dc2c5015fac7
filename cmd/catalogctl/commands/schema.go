package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-attribute-service/internal/schema"
	"github.com/fekuna/omnipos-attribute-service/internal/schema/rpc"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <category-id>",
	Short: "Print the compiled attribute form of a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client rpc.SchemaServiceClient) error {
			req, err := structpb.NewStruct(map[string]interface{}{"categoryId": args[0]})
			if err != nil {
				return err
			}
			res, err := client.CompileSchema(ctx, req)
			if err != nil {
				return err
			}

			var view schema.View
			if err := decodeStruct(res, &view); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			printSchema(cmd, args[0], view)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func printSchema(cmd *cobra.Command, categoryID string, view schema.View) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Attribute schema for "+categoryID))
	if view.Hidden {
		fmt.Fprintln(out, mutedStyle.Render("No attributes are bound; the section is hidden."))
		return
	}

	t := newTable("#", "Attribute", "Slug", "Type", "Widget", "Required", "Choices")
	for i, d := range view.Descriptors {
		name := d.Name
		if d.Unit != "" {
			name += " (" + d.Unit + ")"
		}
		t.Row(
			fmt.Sprint(i+1),
			name,
			d.Slug,
			string(d.Type),
			string(d.Widget),
			yesNo(d.Required),
			choiceList(d),
		)
	}
	fmt.Fprintln(out, t.Render())
}

func choiceList(d schema.Descriptor) string {
	labels := make([]string, 0, len(d.Choices))
	for _, c := range d.Choices {
		labels = append(labels, c.Label)
	}
	s := strings.Join(labels, ", ")
	if d.AllowCustom {
		s += mutedStyle.Render(" (+custom)")
	}
	return s
}
