package build

import (
	"context"
	"testing"
	"time"

	"github.com/lherron/taxomobile/internal/db"
	"github.com/lherron/taxomobile/internal/specimen"
	"github.com/lherron/taxomobile/internal/store"
	"github.com/lherron/taxomobile/internal/taxon"
	"github.com/lherron/taxomobile/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	catJSON  = `{"kingdom":"Animalia","phylum":"Chordata","class":"Mammalia","order":"Carnivora","family":"Felidae","genus":"Felis","species":"Felis catus"}`
	kitJSON  = `{"kingdom":"Animalia","phylum":"Chordata","class":"Mammalia","order":"Carnivora","family":"Felidae","genus":"Felis","species":"Felis catus"}`
	camelYML = "kingdom: Animalia\nphylum: Chordata\nclass: Mammalia\norder: Artiodactyla\nfamily: Camelidae\ngenus: Camelus\n"
)

func fixedNow() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

func writeData(t *testing.T) string {
	t.Helper()
	dir := testutil.TempDir(t)
	testutil.WriteFile(t, dir, "a_cat.json", catJSON)
	testutil.WriteFile(t, dir, "b_kitten.json", kitJSON)
	testutil.WriteFile(t, dir, "c_camel.yaml", camelYML)
	return dir
}

func TestBuild_FromDirectory(t *testing.T) {
	dir := writeData(t)
	b := &Builder{
		Loader:    &specimen.Loader{Dir: dir, ImageBase: "img", ImageExt: ".jpg", Workers: 2},
		Rule:      taxon.LeafRuleSpecies,
		RootFront: "front.jpg",
		Now:       fixedNow,
	}

	res, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Stats.Records)
	require.Len(t, res.Stats.Overwrites, 1)
	assert.Equal(t, taxon.ImageRef("img/a_cat.jpg"), res.Stats.Overwrites[0].Previous)
	assert.Equal(t, taxon.ImageRef("img/b_kitten.jpg"), res.Stats.Overwrites[0].Current)

	assert.Equal(t, []taxon.ImageRef{"img/b_kitten.jpg"}, res.Tree.Root().DescendantImages)
	assert.Equal(t, "front.jpg", res.Snapshot.Root.FrontImage)
	assert.Equal(t, "2024-01-02T03:04:05Z", res.Snapshot.Meta.GeneratedAt)
	assert.Equal(t, res.Rev, res.Snapshot.Meta.SnapshotRev)
	assert.Equal(t, dir, b.Source())
}

func TestBuild_DeepestRuleAndStableRev(t *testing.T) {
	dir := writeData(t)
	loader := &specimen.Loader{Dir: dir, ImageBase: "img", ImageExt: ".jpg"}

	species, err := (&Builder{Loader: loader, Rule: taxon.LeafRuleSpecies}).Build(context.Background())
	require.NoError(t, err)
	deepest, err := (&Builder{Loader: loader, Rule: taxon.LeafRuleDeepest}).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []taxon.ImageRef{"img/b_kitten.jpg", "img/c_camel.jpg"}, deepest.Tree.Root().DescendantImages)
	assert.NotEqual(t, species.Rev, deepest.Rev)

	again, err := (&Builder{Loader: loader, Rule: taxon.LeafRuleSpecies, Now: fixedNow}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, species.Rev, again.Rev, "rev must not depend on build time")
}

func TestBuild_ManifestRootImages(t *testing.T) {
	dir := writeData(t)
	testutil.WriteFile(t, dir, specimen.ManifestName, "root:\n  front_image: m_front.jpg\nspecimens:\n  - a_cat.json\n")

	res, err := (&Builder{
		Loader:    &specimen.Loader{Dir: dir},
		RootFront: "default_front.jpg",
		RootBack:  "default_back.jpg",
	}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m_front.jpg", res.Snapshot.Root.FrontImage)
	assert.Equal(t, "default_back.jpg", res.Snapshot.Root.BackImage)
	assert.Equal(t, 1, res.Stats.Records)
}

func TestBuild_FromCatalog(t *testing.T) {
	_, dbPath := testutil.TempDB(t)
	database, err := db.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	s := store.New(database)

	records, _, err := (&specimen.Loader{Dir: writeData(t), ImageBase: "img", ImageExt: ".jpg"}).Load(context.Background())
	require.NoError(t, err)
	for _, rec := range records {
		_, err := s.Specimens.Upsert(rec)
		require.NoError(t, err)
	}

	res, err := (&Builder{Catalog: s.Specimens, Rule: taxon.LeafRuleDeepest, Strict: true}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "catalog", (&Builder{Catalog: s.Specimens}).Source())
	assert.Nil(t, res.Report)
	assert.Equal(t, []taxon.ImageRef{"img/b_kitten.jpg", "img/c_camel.jpg"}, res.Tree.Root().DescendantImages)
}

func TestBuild_NoSource(t *testing.T) {
	_, err := (&Builder{}).Build(context.Background())
	assert.Error(t, err)
}
