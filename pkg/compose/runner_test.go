package compose_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockpress/mockpress/pkg/compose"
	"github.com/mockpress/mockpress/pkg/config"
	"github.com/mockpress/mockpress/pkg/document"
	"github.com/mockpress/mockpress/pkg/fit"
)

// fakeService is an in-memory host environment double. Template handles are
// registered by path; design assets "load" from a size table, and any asset
// whose stem contains "broken" fails substitution.
type fakeService struct {
	units       document.Units
	unitHistory []document.Units
	templates   map[string]*fakeDoc
	active      *fakeDoc

	duplicated int
	closed     int
	dups       []*fakeDoc
}

func newFakeService() *fakeService {
	return &fakeService{
		units:     document.UnitsInches,
		templates: map[string]*fakeDoc{},
	}
}

func (s *fakeService) OpenTemplate(path string) (document.Document, error) {
	d, ok := s.templates[path]
	if !ok {
		return nil, fmt.Errorf("failed to open template %s", path)
	}
	return d, nil
}

func (s *fakeService) Active() (document.Document, error) {
	if s.active == nil {
		return nil, errors.New("nothing open")
	}
	return s.active, nil
}

func (s *fakeService) Units() document.Units { return s.units }

func (s *fakeService) SetUnits(u document.Units) {
	s.units = u
	s.unitHistory = append(s.unitHistory, u)
}

type fakeRegion struct {
	id     string
	name   string
	bounds fit.Box
	scaled []float64
}

type fakeDoc struct {
	svc     *fakeService
	name    string
	w, h    int
	regions []*fakeRegion
	resized [][2]int
	closed  bool
}

func (d *fakeDoc) Name() string     { return d.name }
func (d *fakeDoc) Size() (int, int) { return d.w, d.h }
func (d *fakeDoc) RootID() string   { return "root" }

func (d *fakeDoc) Children(id string) ([]document.Node, error) {
	if id != "root" {
		return nil, errors.New("unknown node")
	}
	nodes := make([]document.Node, 0, len(d.regions))
	for _, r := range d.regions {
		nodes = append(nodes, document.Node{
			ID: r.id, Name: r.name, Kind: document.KindRegion,
			Substitutable: true, Bounds: r.bounds,
		})
	}
	return nodes, nil
}

func (d *fakeDoc) Duplicate(name string) (document.Document, error) {
	dup := &fakeDoc{svc: d.svc, name: name, w: d.w, h: d.h}
	for _, r := range d.regions {
		cp := *r
		dup.regions = append(dup.regions, &cp)
	}
	d.svc.duplicated++
	d.svc.dups = append(d.svc.dups, dup)
	return dup, nil
}

func (d *fakeDoc) region(id string) (*fakeRegion, error) {
	for _, r := range d.regions {
		if r.id == id {
			return r, nil
		}
	}
	return nil, errors.New("unknown region")
}

func (d *fakeDoc) ReplaceContent(regionID, assetPath string) error {
	if strings.Contains(document.Stem(assetPath), "broken") {
		return errors.New("undecodable asset")
	}
	r, err := d.region(regionID)
	if err != nil {
		return err
	}
	// Substituted content comes in at a fixed native size, centered on the
	// placeholder's previous center.
	const nw, nh = 400.0, 100.0
	cx, cy := r.bounds.CenterX(), r.bounds.CenterY()
	r.bounds = fit.Box{Left: cx - nw/2, Top: cy - nh/2, Right: cx + nw/2, Bottom: cy + nh/2}
	return nil
}

func (d *fakeDoc) RegionBounds(regionID string) (fit.Box, error) {
	r, err := d.region(regionID)
	if err != nil {
		return fit.Box{}, err
	}
	return r.bounds, nil
}

func (d *fakeDoc) ScaleRegion(regionID string, factor float64) error {
	r, err := d.region(regionID)
	if err != nil {
		return err
	}
	r.scaled = append(r.scaled, factor)
	cx, cy := r.bounds.CenterX(), r.bounds.CenterY()
	w := r.bounds.Width() * factor
	h := r.bounds.Height() * factor
	r.bounds = fit.Box{Left: cx - w/2, Top: cy - h/2, Right: cx + w/2, Bottom: cy + h/2}
	return nil
}

func (d *fakeDoc) Resize(width, height int) error {
	d.resized = append(d.resized, [2]int{width, height})
	d.w, d.h = width, height
	return nil
}

func (d *fakeDoc) Export(path string, spec document.ExportSpec) error {
	return os.WriteFile(path, []byte(spec.Format), 0644)
}

func (d *fakeDoc) Close() error {
	d.closed = true
	d.svc.closed++
	return nil
}

func maxLong(v int) *int { return &v }

// fixture builds a scannable source layout plus a matching fake service.
func fixture(t *testing.T, templates []string, designs []string) (*fakeService, *config.Config) {
	t.Helper()
	root := t.TempDir()
	bases := filepath.Join(root, "bases")
	logos := filepath.Join(root, "logos")
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(bases, 0755))
	require.NoError(t, os.MkdirAll(logos, 0755))

	svc := newFakeService()
	for _, stem := range templates {
		path := filepath.Join(bases, stem+".mockup.yaml")
		require.NoError(t, os.WriteFile(path, []byte("stub"), 0644))
		svc.templates[path] = &fakeDoc{
			svc: svc, name: stem, w: 2000, h: 1000,
			regions: []*fakeRegion{
				{id: "L1", name: "design area", bounds: fit.Box{Left: 100, Top: 100, Right: 300, Bottom: 300}},
			},
		}
	}
	for _, stem := range designs {
		require.NoError(t, os.WriteFile(filepath.Join(logos, stem+".png"), []byte("x"), 0644))
	}

	cfg := &config.Config{
		NameFilter:    "design",
		ExportMaxLong: maxLong(5000),
		BasesDir:      bases,
		LogosDir:      logos,
		OutputDir:     out,
		Overwrite:     true,
		Formats:       []string{"png"},
		JPGQuality:    90,
		Source:        "test",
	}
	return svc, cfg
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			names = append(names, rel)
		}
		return nil
	})
	return names
}

func TestRunCrossProduct(t *testing.T) {
	svc, cfg := fixture(t, []string{"A", "B"}, []string{"x", "y", "z"})
	runner := compose.Runner{Service: svc, Config: cfg}

	sum, err := runner.Run(compose.Options{})
	require.NoError(t, err)

	assert.Equal(t, 6, sum.Items)
	assert.Equal(t, 6, sum.OK)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, 6, sum.FilesWritten)

	files := listFiles(t, cfg.OutputDir)
	assert.ElementsMatch(t, []string{
		"A_x.png", "A_y.png", "A_z.png",
		"B_x.png", "B_y.png", "B_z.png",
	}, files)

	// One duplicate per item, every one discarded.
	require.Len(t, svc.dups, 6)
	for _, dup := range svc.dups {
		assert.True(t, dup.closed, "%s left open", dup.name)
	}
}

func TestRunMalformedAssetIsolated(t *testing.T) {
	svc, cfg := fixture(t, []string{"A", "B"}, []string{"broken", "x"})
	runner := compose.Runner{Service: svc, Config: cfg}

	sum, err := runner.Run(compose.Options{})
	require.NoError(t, err, "item failures never abort the batch")

	assert.Equal(t, 4, sum.Items)
	assert.Equal(t, 2, sum.OK)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 2, sum.FilesWritten)

	// Duplicates from failed items are discarded too.
	require.Len(t, svc.dups, 4)
	for _, dup := range svc.dups {
		assert.True(t, dup.closed, "%s left open", dup.name)
	}
}

func TestRunNoMatchSkips(t *testing.T) {
	svc, cfg := fixture(t, []string{"A"}, []string{"x", "y"})
	cfg.NameFilter = "nothing-has-this-name"
	runner := compose.Runner{Service: svc, Config: cfg}

	sum, err := runner.Run(compose.Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Items)
	assert.Equal(t, 0, sum.OK)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 0, sum.FilesWritten)
	assert.Empty(t, listFiles(t, cfg.OutputDir))
}

func TestRunOverwriteDisabledRerun(t *testing.T) {
	svc, cfg := fixture(t, []string{"A"}, []string{"x"})
	cfg.Overwrite = false
	runner := compose.Runner{Service: svc, Config: cfg}

	sum, err := runner.Run(compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.FilesWritten)

	// Identical rerun: existing destinations are kept, nothing new counts.
	sum, err = runner.Run(compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OK, "skip-existing items still end OK")
	assert.Equal(t, 0, sum.FilesWritten)
}

func TestRunUnknownFormatSkipped(t *testing.T) {
	svc, cfg := fixture(t, []string{"A"}, []string{"x"})
	cfg.Formats = []string{"webp", "png"}
	runner := compose.Runner{Service: svc, Config: cfg}

	sum, err := runner.Run(compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OK)
	assert.Equal(t, 1, sum.FilesWritten)
	assert.ElementsMatch(t, []string{"A_x.png"}, listFiles(t, cfg.OutputDir))
}

func TestRunFitAndResize(t *testing.T) {
	svc, cfg := fixture(t, []string{"A"}, []string{"x"})
	cfg.ExportMaxLong = maxLong(1000)
	runner := compose.Runner{Service: svc, Config: cfg}

	_, err := runner.Run(compose.Options{})
	require.NoError(t, err)

	// The placeholder is 200x200 and the substituted content 400x100, so
	// the fit factor is 0.5; the 2000x1000 canvas is then capped to
	// 1000x500.
	tpl := svc.templates[filepath.Join(cfg.BasesDir, "A.mockup.yaml")]
	require.Empty(t, tpl.resized, "the template itself is never mutated")
	require.Empty(t, tpl.regions[0].scaled)
	assert.Equal(t, 2000, tpl.w)

	require.Len(t, svc.dups, 1)
	dup := svc.dups[0]
	require.Len(t, dup.regions[0].scaled, 1)
	assert.InDelta(t, 0.5, dup.regions[0].scaled[0], 1e-9)
	require.Len(t, dup.resized, 1)
	assert.Equal(t, [2]int{1000, 500}, dup.resized[0])
	assert.True(t, dup.closed)
}

func TestRunCapDisabledByZero(t *testing.T) {
	svc, cfg := fixture(t, []string{"A"}, []string{"x"})
	cfg.ExportMaxLong = maxLong(0)
	runner := compose.Runner{Service: svc, Config: cfg}

	_, err := runner.Run(compose.Options{})
	require.NoError(t, err)

	require.Len(t, svc.dups, 1)
	assert.Empty(t, svc.dups[0].resized, "zero disables the long-edge cap")
}

func TestRunMakeSubfolders(t *testing.T) {
	svc, cfg := fixture(t, []string{"A", "B"}, []string{"x"})
	cfg.MakeSubfolders = true
	runner := compose.Runner{Service: svc, Config: cfg}

	sum, err := runner.Run(compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.FilesWritten)
	assert.ElementsMatch(t, []string{
		filepath.Join("A", "A_x.png"),
		filepath.Join("B", "B_x.png"),
	}, listFiles(t, cfg.OutputDir))
}

func TestRunUnitPreferenceScopedToRun(t *testing.T) {
	svc, cfg := fixture(t, []string{"A"}, []string{"broken"})
	require.Equal(t, document.UnitsInches, svc.Units())
	runner := compose.Runner{Service: svc, Config: cfg}

	_, err := runner.Run(compose.Options{})
	require.NoError(t, err)

	// Pixels during the run, previous preference restored even though the
	// only item failed.
	require.Len(t, svc.unitHistory, 2)
	assert.Equal(t, document.UnitsPixels, svc.unitHistory[0])
	assert.Equal(t, document.UnitsInches, svc.unitHistory[1])
	assert.Equal(t, document.UnitsInches, svc.Units())
}

func TestRunSelectors(t *testing.T) {
	svc, cfg := fixture(t, []string{"A", "B"}, []string{"x", "y"})
	runner := compose.Runner{Service: svc, Config: cfg}

	sum, err := runner.Run(compose.Options{Templates: []string{"A"}, Designs: []string{"y"}})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Items)
	assert.ElementsMatch(t, []string{"A_y.png"}, listFiles(t, cfg.OutputDir))

	_, err = runner.Run(compose.Options{Templates: []string{"missing"}})
	require.Error(t, err, "empty selection is a configuration-level error")
}

func TestRunActiveDocument(t *testing.T) {
	svc, cfg := fixture(t, nil, []string{"x", "y"})
	cfg.UseActiveDocument = true

	runner := compose.Runner{Service: svc, Config: cfg}
	_, err := runner.Run(compose.Options{})
	require.ErrorIs(t, err, compose.ErrNoActiveDocument)

	svc.active = &fakeDoc{
		svc: svc, name: "open", w: 800, h: 600,
		regions: []*fakeRegion{
			{id: "L1", name: "design", bounds: fit.Box{Left: 0, Top: 0, Right: 100, Bottom: 100}},
		},
	}
	sum, err := runner.Run(compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Items)
	assert.ElementsMatch(t, []string{"open_x.png", "open_y.png"}, listFiles(t, cfg.OutputDir))
}

func TestRunUnreadableTemplateFailsEachPairing(t *testing.T) {
	svc, cfg := fixture(t, []string{"A"}, []string{"x", "y"})
	// A template file the service refuses to open.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BasesDir, "corrupt.mockup.yaml"), []byte("stub"), 0644))
	runner := compose.Runner{Service: svc, Config: cfg}

	sum, err := runner.Run(compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Items, "items still equal templates x designs")
	assert.Equal(t, 2, sum.OK)
	assert.Equal(t, 2, sum.Failed)
}
