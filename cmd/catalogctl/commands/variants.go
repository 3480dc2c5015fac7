package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/variant"
)

var (
	attributesFile string
	dimensions     []string
	selections     []string
	baseSKU        string
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "Expand variant dimensions into SKUs without touching the service",
	Long: `Reads attribute definitions (a JSON array, as returned by GET /attributes)
and prints the variant rows the product form would generate for the given
dimensions. Without --select every value of a dimension is used.`,
	Example: `  catalogctl variants -a attributes.json -d <colorId> -d <storageId> --sku PHONE
  catalogctl variants -a attributes.json -d <colorId> --select <colorId>=<blackId> --sku PHONE`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		attrs, err := readAttributes(attributesFile)
		if err != nil {
			return err
		}
		selection, err := parseSelection(selections)
		if err != nil {
			return err
		}

		rows, labels, err := planVariants(attrs, dimensions, baseSKU, selection)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), rows)
		}
		printVariants(cmd.OutOrStdout(), rows, labels)
		return nil
	},
}

func init() {
	variantsCmd.Flags().StringVarP(&attributesFile, "attributes", "a", "", "JSON file with attribute definitions")
	variantsCmd.Flags().StringArrayVarP(&dimensions, "dimension", "d", nil, "Attribute id to use as a variant dimension (repeatable, in order)")
	variantsCmd.Flags().StringArrayVar(&selections, "select", nil, "Restrict a dimension to a value: <attributeId>=<valueId> (repeatable)")
	variantsCmd.Flags().StringVar(&baseSKU, "sku", "", "Base SKU the generated SKUs start with")
	_ = variantsCmd.MarkFlagRequired("attributes")
	_ = variantsCmd.MarkFlagRequired("dimension")
	rootCmd.AddCommand(variantsCmd)
}

// planVariants runs the variant manager over the given dimensions and
// returns the generated rows with their display labels.
func planVariants(attrs []model.Attribute, dims []string, sku string, selection map[string][]string) ([]model.Variant, []string, error) {
	m := variant.NewManager(attrs)
	for _, id := range dims {
		if err := m.AddDimension(id); err != nil {
			return nil, nil, err
		}
	}
	if _, err := m.Generate(sku, selection); err != nil {
		return nil, nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	rows := m.Variants()
	labels := make([]string, len(rows))
	for i := range rows {
		label, err := m.Label(i)
		if err != nil {
			return nil, nil, err
		}
		labels[i] = label
	}
	return rows, labels, nil
}

func readAttributes(path string) ([]model.Attribute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var attrs []model.Attribute
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return attrs, nil
}

func parseSelection(pairs []string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, p := range pairs {
		attrID, valueID, ok := strings.Cut(p, "=")
		if !ok || attrID == "" || valueID == "" {
			return nil, fmt.Errorf("invalid --select %q, want <attributeId>=<valueId>", p)
		}
		out[attrID] = append(out[attrID], valueID)
	}
	return out, nil
}

func printVariants(out io.Writer, rows []model.Variant, labels []string) {
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d variant(s)", len(rows))))
	t := newTable("#", "Variant", "SKU", "Price", "Stock")
	for i, v := range rows {
		t.Row(fmt.Sprint(i+1), labels[i], v.SKU, v.Price.StringFixed(2), fmt.Sprint(v.Stock))
	}
	fmt.Fprintln(out, t.Render())
}
