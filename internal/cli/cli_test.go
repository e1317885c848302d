package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lherron/taxomobile/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	catLineage = []string{
		"kingdom", "Animalia", "phylum", "Chordata", "class", "Mammalia", "order", "Carnivora",
		"family", "Felidae", "genus", "Felis", "species", "Felis catus",
	}
	owlLineage = []string{
		"kingdom", "Animalia", "phylum", "Chordata", "class", "Aves", "order", "Strigiformes",
		"family", "Strigidae", "genus", "Bubo", "species", "Bubo bubo",
	}
	oakLineage = []string{
		"kingdom", "Plantae", "phylum", "Tracheophyta", "class", "Magnoliopsida", "order", "Fagales",
		"family", "Fagaceae", "genus", "Quercus", "species", "Quercus robur",
	}
)

// setupEnv isolates config and returns a data directory holding cat and owl records.
func setupEnv(t *testing.T) (dataDir string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"TAXO_LEAF_RULE", "TAXO_ADDR", "TAXO_ROOT_FRONT_IMAGE", "TAXO_ROOT_BACK_IMAGE",
		"TAXO_DB_PATH_FILE", "TAXO_TOKEN", "TAXO_TOKEN_FILE", "TAXO_STRICT", "TAXO_LOAD_WORKERS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(home)

	dataDir = filepath.Join(home, "data")
	testutil.WriteFile(t, dataDir, "cat.json", testutil.SpecimenJSON(catLineage...))
	testutil.WriteFile(t, dataDir, "owl.json", testutil.SpecimenJSON(owlLineage...))

	t.Setenv("TAXO_DATA_DIR", dataDir)
	t.Setenv("TAXO_IMAGE_BASE", "img")
	t.Setenv("TAXO_IMAGE_EXT", ".jpg")
	t.Setenv("TAXO_DB_PATH", filepath.Join(home, "catalog.db"))
	t.Setenv("TAXO_LOG_LEVEL", "error")
	return dataDir
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestTree_Default(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "tree")
	require.NoError(t, err)
	assert.Contains(t, out, "Domain\n")
	assert.Contains(t, out, "└── Animalia (kingdom)")
	assert.Contains(t, out, "Felis catus (species)")
	assert.Contains(t, out, "Bubo bubo (species)")
	assert.NotContains(t, out, "img/")
}

func TestTree_SubtreeWithImages(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "tree", "animalia/chordata/aves", "--images")
	require.NoError(t, err)
	assert.Contains(t, out, "animalia/chordata/aves (class) {1 image(s), 1x1}")
	assert.Contains(t, out, "Bubo bubo (species) [img/owl.jpg]")
	assert.NotContains(t, out, "Felis")
}

func TestTree_DepthLimitAndJSON(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "tree", "-L", "2", "--json")
	require.NoError(t, err)

	var snap struct {
		Meta struct {
			SnapshotRev string `json:"snapshot_rev"`
			Nodes       int    `json:"nodes"`
		} `json:"meta"`
		Tree struct {
			Name             string   `json:"name"`
			DescendantImages []string `json:"descendant_images"`
			Children         []struct {
				Name     string `json:"name"`
				Children []struct {
					Name     string            `json:"name"`
					Children []json.RawMessage `json:"children"`
				} `json:"children"`
			} `json:"children"`
		} `json:"tree"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 13, snap.Meta.Nodes)
	assert.Contains(t, snap.Meta.SnapshotRev, "sha256:")
	assert.Equal(t, "Domain", snap.Tree.Name)
	assert.Equal(t, []string{"img/cat.jpg", "img/owl.jpg"}, snap.Tree.DescendantImages)
	require.Len(t, snap.Tree.Children, 1)
	require.Len(t, snap.Tree.Children[0].Children, 1)
	assert.Equal(t, "Chordata", snap.Tree.Children[0].Children[0].Name)
	assert.Empty(t, snap.Tree.Children[0].Children[0].Children)
}

func TestTree_UnknownPath(t *testing.T) {
	setupEnv(t)

	_, _, err := runCLI(t, "tree", "animalia/arthropoda")
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))
}

func TestCheck_ReportsOverwritesAndSkips(t *testing.T) {
	dataDir := setupEnv(t)
	testutil.WriteFile(t, dataDir, "tabby.json", testutil.SpecimenJSON(catLineage...))
	testutil.WriteFile(t, dataDir, "broken.json", "{")

	out, _, err := runCLI(t, "check", "--json")
	require.NoError(t, err)

	var report checkReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.OK)
	assert.Equal(t, 3, report.Records)
	require.Len(t, report.Overwrites, 1)
	assert.Equal(t, "img/cat.jpg", report.Overwrites[0].Previous)
	assert.Equal(t, "img/tabby.jpg", report.Overwrites[0].Current)
	assert.Equal(t, "animalia/chordata/mammalia/carnivora/felidae/felis/felis-catus", report.Overwrites[0].Path)
	require.Len(t, report.Skipped, 1)
	assert.Contains(t, report.Skipped[0].File, "broken.json")
}

func TestCheck_HumanOutput(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "2 records merged into 13 nodes")
	assert.Contains(t, out, "✓ tree is well-formed")
}

func TestFind(t *testing.T) {
	dataDir := setupEnv(t)
	testutil.WriteFile(t, dataDir, "oak.json", testutil.SpecimenJSON(oakLineage...))

	out, _, err := runCLI(t, "find", "**/bubo*", "--porcelain")
	require.NoError(t, err)
	assert.Contains(t, out, "genus\tanimalia/chordata/aves/strigiformes/strigidae/bubo\t1")
	assert.Contains(t, out, "species\tanimalia/chordata/aves/strigiformes/strigidae/bubo/bubo-bubo\t0")

	out, _, err = runCLI(t, "find", "*", "--level", "kingdom", "--json")
	require.NoError(t, err)
	var nodes []struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "Animalia", nodes[0].Name)
	assert.Equal(t, "plantae", nodes[1].Path)

	_, _, err = runCLI(t, "find", "fungi/**")
	assert.Equal(t, 1, ExitCode(err))

	_, _, err = runCLI(t, "find", "*", "--level", "tribe")
	assert.Equal(t, 2, ExitCode(err))
}

func TestExport_StableRev(t *testing.T) {
	setupEnv(t)
	outFile := filepath.Join(t.TempDir(), "out", "snapshot.json")

	_, stderr, err := runCLI(t, "export", "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported snapshot sha256:")

	var first, second struct {
		Meta struct {
			SnapshotRev string `json:"snapshot_rev"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal([]byte(testutil.ReadFile(t, outFile)), &first))

	out, _, err := runCLI(t, "export")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Equal(t, first.Meta.SnapshotRev, second.Meta.SnapshotRev)
}

func TestDiff(t *testing.T) {
	dataDir := setupEnv(t)
	other := filepath.Join(t.TempDir(), "other")
	testutil.WriteFile(t, other, "cat.json", testutil.SpecimenJSON(catLineage...))
	testutil.WriteFile(t, other, "owl.json", testutil.SpecimenJSON(owlLineage...))

	out, _, err := runCLI(t, "diff", dataDir, other)
	require.NoError(t, err)
	assert.Empty(t, out)

	testutil.WriteFile(t, other, "oak.json", testutil.SpecimenJSON(oakLineage...))
	out, _, err = runCLI(t, "diff", dataDir, other)
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
	assert.Empty(t, err.Error())
	assert.Contains(t, out, "+")
	assert.Contains(t, out, "Quercus robur")
}

func TestCatalogWorkflow(t *testing.T) {
	setupEnv(t)

	_, _, err := runCLI(t, "ls")
	require.Error(t, err, "catalog must be initialized first")
	assert.Contains(t, err.Error(), "taxomobile init")

	out, _, err := runCLI(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 3 migrations")

	out, _, err = runCLI(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog is up to date")

	out, _, err = runCLI(t, "import")
	require.NoError(t, err)
	assert.Equal(t, "imported S-00001 cat.json\nimported S-00002 owl.json\n", out)

	out, _, err = runCLI(t, "import")
	require.NoError(t, err)
	assert.Equal(t, "updated S-00001 cat.json\nupdated S-00002 owl.json\n", out)

	out, _, err = runCLI(t, "ls", "--porcelain")
	require.NoError(t, err)
	assert.Contains(t, out, "S-00001\tcat.json\t7\tFelis catus\timg/cat.jpg")
	assert.Contains(t, out, "S-00002\towl.json\t7\tBubo bubo\timg/owl.jpg")

	out, _, err = runCLI(t, "tree", "--catalog", "--images")
	require.NoError(t, err)
	assert.Contains(t, out, "Domain {2 image(s), 2x2}")

	out, _, err = runCLI(t, "rm", "S-00001")
	require.NoError(t, err)
	assert.Equal(t, "removed S-00001 (cat.json)\n", out)

	out, _, err = runCLI(t, "tree", "--catalog")
	require.NoError(t, err)
	assert.NotContains(t, out, "Felis")

	out, _, err = runCLI(t, "log", "--json")
	require.NoError(t, err)
	var evs []struct {
		EventType string `json:"event_type"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &evs))
	require.Len(t, evs, 5)
	assert.Equal(t, "specimen.removed", evs[0].EventType)
	assert.Equal(t, "specimen.imported", evs[4].EventType)

	out, _, err = runCLI(t, "log", "owl.json", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &evs))
	assert.Len(t, evs, 2)
}

func TestImport_NoRecords(t *testing.T) {
	setupEnv(t)
	_, _, err := runCLI(t, "init")
	require.NoError(t, err)

	broken := testutil.WriteFile(t, t.TempDir(), "broken.json", "{")
	_, stderr, err := runCLI(t, "import", broken)
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, err.Error(), "no specimen records")
	assert.Contains(t, stderr, "skipped")
}

func TestRm_ContinueOnError(t *testing.T) {
	setupEnv(t)
	_, _, err := runCLI(t, "init")
	require.NoError(t, err)
	_, _, err = runCLI(t, "import")
	require.NoError(t, err)

	_, stderr, err := runCLI(t, "rm", "S-00099", "owl.json")
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, stderr, "No operations succeeded")

	out, stderr, err := runCLI(t, "rm", "--continue-on-error", "S-00099", "owl.json")
	assert.Equal(t, 5, ExitCode(err))
	assert.Equal(t, "removed S-00002 (owl.json)\n", out)
	assert.Contains(t, stderr, "Partial success")
}

func TestVersion_JSON(t *testing.T) {
	out, _, err := runCLI(t, "version", "--json")
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])
	assert.Contains(t, v["leaf_rules"], "deepest")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(assert.AnError))
	assert.Equal(t, 5, ExitCode(exitError(5, nil)))
	assert.Empty(t, exitError(5, nil).Error())
	assert.Equal(t, "boom", exitError(2, &testError{"boom"}).Error())
}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
