package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lherron/taxomobile/internal/build"
	"github.com/lherron/taxomobile/internal/cli/appctx"
	"github.com/lherron/taxomobile/internal/paths"
	"github.com/lherron/taxomobile/internal/taxon"
	"github.com/spf13/cobra"
)

// ExitError carries a process exit code. A nil Err exits silently.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError returns an error that will cause the CLI to exit with the given code
func exitError(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

// pluralize formats n with a singular or plural noun.
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// buildTree runs the configured builder. A malformed tree under --strict
// exits with code 1.
func buildTree(app *appctx.App, cmd *cobra.Command) (*build.Result, error) {
	res, err := app.Builder().Build(cmd.Context())
	if err != nil {
		if taxon.IsMalformed(err) {
			return nil, exitError(1, err)
		}
		return nil, err
	}
	return res, nil
}

// resolveNode looks up a slug path such as "animalia/chordata" in the tree.
func resolveNode(t *taxon.Tree, path string) (taxon.NodeID, error) {
	nodeID, err := t.Lookup(paths.SplitPath(path), paths.MatchSlug)
	if err != nil {
		return 0, exitError(3, err)
	}
	return nodeID, nil
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
