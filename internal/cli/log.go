package cli

import (
	"errors"
	"strconv"

	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/events"
	"github.com/lherron/taxomobile/internal/id"
	"github.com/lherron/taxomobile/internal/render"
	"github.com/lherron/taxomobile/internal/store"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log [REF]",
	Short: "Show catalog history",
	Long: `Shows imports, updates and removals recorded in the catalog, newest first.
REF narrows the history to one specimen. A removed specimen can still be
named by its UUID.`,
	Args: cobra.MaximumNArgs(1),
	RunE: appctx.WithApp(appctx.WithCatalog(), runLog),
}

var (
	logLimit     int
	logJSON      bool
	logPorcelain bool
)

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Maximum number of events (0 = all)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "Output as JSON")
	logCmd.Flags().BoolVar(&logPorcelain, "porcelain", false, "Machine-readable output")
}

func runLog(app *appctx.App, cmd *cobra.Command, args []string) error {
	uuid := ""
	if len(args) == 1 {
		s, err := app.Store.Specimens.Get(args[0])
		switch {
		case err == nil:
			uuid = s.UUID
		case errors.Is(err, store.ErrNotFound) && id.IsUUID(args[0]):
			uuid = args[0]
		default:
			return exitError(3, err)
		}
	}

	evs, err := app.Store.Events(uuid, logLimit)
	if err != nil {
		return err
	}

	r := render.NewRenderer(cmd.OutOrStdout(), render.Options{Porcelain: logPorcelain})
	if logJSON {
		if evs == nil {
			evs = []events.Event{}
		}
		return r.RenderJSON(evs)
	}

	rows := make([][]string, len(evs))
	for i, e := range evs {
		resource, payload := "", ""
		if e.ResourceUUID != nil {
			resource = *e.ResourceUUID
		}
		if e.Payload != nil {
			payload = *e.Payload
		}
		rows[i] = []string{strconv.FormatInt(e.ID, 10), e.Timestamp, e.EventType, resource, payload}
	}
	return r.RenderTable([]string{"ID", "TS", "EVENT", "RESOURCE", "PAYLOAD"}, rows)
}
