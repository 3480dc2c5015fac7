package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-attribute-service/internal/schema/handler"
	"github.com/fekuna/omnipos-attribute-service/internal/schema/rpc"
)

var (
	valuesJSON string
	valuesFile string
)

var errInvalid = errors.New("attribute values are invalid")

var validateCmd = &cobra.Command{
	Use:   "validate <category-id>",
	Short: "Check an attribute values map against a category's schema",
	Example: `  catalogctl validate 7d0c... --values '{"<attributeId>": "<valueId>"}'
  catalogctl validate 7d0c... --file values.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := readValues()
		if err != nil {
			return err
		}

		return withClient(cmd, func(ctx context.Context, client rpc.SchemaServiceClient) error {
			req, err := structpb.NewStruct(map[string]interface{}{
				"categoryId": args[0],
				"values":     values,
			})
			if err != nil {
				return fmt.Errorf("encode values: %w", err)
			}
			res, err := client.ValidateAttributes(ctx, req)
			if err != nil {
				return err
			}

			var result handler.ValidateResponse
			if err := decodeStruct(res, &result); err != nil {
				return err
			}
			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printValidation(cmd, result)
			}
			if !result.Valid {
				return errInvalid
			}
			return nil
		})
	},
}

func init() {
	validateCmd.Flags().StringVar(&valuesJSON, "values", "", "Attribute values as a JSON object")
	validateCmd.Flags().StringVarP(&valuesFile, "file", "f", "", "Read attribute values from a JSON file")
	rootCmd.AddCommand(validateCmd)
}

func readValues() (map[string]interface{}, error) {
	raw := []byte(valuesJSON)
	if valuesFile != "" {
		data, err := os.ReadFile(valuesFile)
		if err != nil {
			return nil, err
		}
		raw = data
	}

	values := map[string]interface{}{}
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("values must be a JSON object: %w", err)
	}
	return values, nil
}

func printValidation(cmd *cobra.Command, result handler.ValidateResponse) {
	out := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintln(out, successStyle.Render("✓ valid"))
		if len(result.Normalized) > 0 {
			_ = writeJSON(out, result.Normalized)
		}
		return
	}

	fmt.Fprintln(out, dangerStyle.Render(fmt.Sprintf("✗ %d problem(s)", len(result.Errors))))
	t := newTable("Field", "Code", "Message")
	for _, fe := range result.Errors {
		t.Row(fe.Field, warningStyle.Render(fe.Code), fe.Message)
	}
	fmt.Fprintln(out, t.Render())
}
