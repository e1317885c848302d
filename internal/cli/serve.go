package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the merged tree over HTTP",
	Long: `Builds the tree and serves it as JSON:

  GET  /health
  GET  /v1/tree            whole tree (?depth=N, ?format=tsv|yaml)
  GET  /v1/tree/{path}     subtree at a slug path
  GET  /v1/nodes/{id}      one node with its children summarized
  GET  /v1/stats           build statistics
  POST /v1/reload          rebuild from the record source

With --watch the tree is rebuilt whenever a specimen file changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr    string
	serveToken   string
	serveCatalog bool
	serveWatch   bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:7272)")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "Bearer token required on /v1 routes")
	serveCmd.Flags().BoolVar(&serveCatalog, "catalog", false, "Serve records from the catalog")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Rebuild when the data directory changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flag := func(name string) string {
		if f := cmd.Flag(name); f != nil {
			return f.Value.String()
		}
		return ""
	}
	return ServeDaemon(ctx, DaemonOptions{
		Addr:     serveAddr,
		Token:    serveToken,
		DBPath:   flag("db"),
		DataDir:  flag("data"),
		LeafRule: flag("leaf-rule"),
		LogLevel: flag("log-level"),
		Strict:   flag("strict") == "true",
		Catalog:  serveCatalog,
		Watch:    serveWatch,
	})
}
