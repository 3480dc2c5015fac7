package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/fekuna/omnipos-attribute-service/internal/auth"
	"github.com/fekuna/omnipos-attribute-service/internal/schema/rpc"
)

var (
	// Global flags
	serverAddr string
	actorID    string
	timeout    time.Duration
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Inspect category attribute schemas and plan product variants",
	Long: `catalogctl talks to the attribute service's SchemaService over gRPC.

Commands:
  - schema:   print the compiled attribute form of a category
  - validate: check an attribute values map against a category
  - variants: expand variant dimensions into SKUs, offline`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, dangerStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", envOr("CATALOG_GRPC_ADDR", "localhost:8083"), "SchemaService gRPC address")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", os.Getenv("USER"), "Actor id sent with every call")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-call timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// withClient dials the service and runs fn with a call context carrying the
// actor id.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client rpc.SchemaServiceClient) error) error {
	conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", serverAddr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	if actorID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, auth.ActorHeader, actorID)
	}
	return fn(ctx, rpc.NewSchemaServiceClient(conn))
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
