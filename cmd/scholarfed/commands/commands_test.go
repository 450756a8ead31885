package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/scholarfed/am"
	"github.com/teranos/scholarfed/entity"
	"github.com/teranos/scholarfed/errors"
)

const sparqlJournals = `{
  "head": {"vars": ["journal","title","identifier","languages","publisher","seal","license","apc"]},
  "results": {"bindings": [
    {
      "title":      {"type": "literal", "value": "Journal of Medicine"},
      "identifier": {"type": "literal", "value": "1234-5678; 9999-0000"},
      "languages":  {"type": "literal", "value": "EN"},
      "publisher":  {"type": "literal", "value": "Acme"},
      "seal":       {"type": "literal", "value": "true"},
      "license":    {"type": "literal", "value": "CC BY"},
      "apc":        {"type": "literal", "value": "false"}
    },
    {
      "title":      {"type": "literal", "value": "Biology Letters"},
      "identifier": {"type": "literal", "value": "2222-3333"},
      "languages":  {"type": "literal", "value": "EN"},
      "seal":       {"type": "literal", "value": "false"},
      "license":    {"type": "literal", "value": "CC BY-NC"},
      "apc":        {"type": "literal", "value": "true"}
    }
  ]}
}`

const classificationJSON = `[
  {"identifiers": ["1234-5678"], "categories": [{"id": "Oncology", "quartile": "Q1"}], "areas": ["Medicine"]},
  {"identifiers": ["2222-3333"], "categories": [{"id": "Zoology", "quartile": "Q3"}], "areas": ["Biology"]}
]`

const doajCSV = `Journal title,Journal ISSN (print version),Journal EISSN (online version),Languages in which the journal accepts manuscripts,Publisher,DOAJ Seal,Journal license,APC
Journal of Medicine,1234-5678,9999-0000,English,Acme,Yes,CC BY,No
`

type sparqlFake struct {
	mu      sync.Mutex
	updates int
}

func (f *sparqlFake) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	if r.PostForm.Get("update") != "" {
		f.mu.Lock()
		f.updates++
		f.mu.Unlock()
		return
	}
	w.Header().Set("Content-Type", "application/sparql-results+json")
	_, _ = w.Write([]byte(sparqlJournals))
}

type fixture struct {
	cfg    *am.Config
	sparql *sparqlFake
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pterm.DisableStyling()

	fake := &sparqlFake{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfg := &am.Config{
		Database: am.DatabaseConfig{Paths: []string{filepath.Join(dir, "scholarfed.db")}},
		Graph:    am.GraphConfig{Endpoints: []string{server.URL}, AllowPrivate: true},
		Engine:   am.EngineConfig{ParallelFanout: true, MaxConcurrency: 2},
	}

	previous := loadConfig
	loadConfig = func() (*am.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = previous })

	return &fixture{cfg: cfg, sparql: fake, dir: dir}
}

func (f *fixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes args against a fresh root. Package-level commands keep flag
// state between executions, so every flag is reset first.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "scholarfed", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().Bool("json", false, "")
	for _, c := range []*cobra.Command{AmCmd, LoadCmd, QueryCmd, VersionCmd} {
		resetFlags(c)
		root.AddCommand(c)
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (f *fixture) loadClassification(t *testing.T) {
	t.Helper()
	_, err := run(t, "load", "categories", f.writeFile(t, "classification.json", classificationJSON))
	require.NoError(t, err)
}

func decodeJournals(t *testing.T, out string) []entity.JournalView {
	t.Helper()
	var views []entity.JournalView
	require.NoError(t, json.Unmarshal([]byte(out), &views), out)
	return views
}

func TestBuildEngine(t *testing.T) {
	f := newFixture(t)
	f.cfg.Graph.Endpoints = append(f.cfg.Graph.Endpoints, "ftp://nowhere")
	f.cfg.Database.Paths = append(f.cfg.Database.Paths, filepath.Join(f.dir, "second.db"))

	e, closeStores := BuildEngine(f.cfg, zaptest.NewLogger(t).Sugar())
	defer closeStores()

	assert.Equal(t, 1, e.JournalHandlerCount(), "refused endpoints are not registered")
	assert.Equal(t, 2, e.CategoryHandlerCount())
}

func TestQueryEntityReconcilesBothStores(t *testing.T) {
	f := newFixture(t)
	f.loadClassification(t)

	out, err := run(t, "query", "entity", "9999-0000", "--json")
	require.NoError(t, err)

	var v entityView
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	assert.Equal(t, "journal", v.Kind)
	require.NotNil(t, v.Journal)
	assert.Equal(t, []string{"1234-5678", "9999-0000"}, v.Journal.Identifiers)
	require.Len(t, v.Journal.Categories, 1)
	assert.Equal(t, "Oncology", v.Journal.Categories[0].Name)
	assert.Equal(t, []string{"Medicine"}, v.Journal.Areas)
}

func TestQueryEntityNotFound(t *testing.T) {
	f := newFixture(t)
	f.cfg.Graph.Endpoints = nil
	f.loadClassification(t)

	_, err := run(t, "query", "entity", "0000-0000")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestQueryDiamond(t *testing.T) {
	f := newFixture(t)
	f.loadClassification(t)

	out, err := run(t, "query", "diamond", "--area", "Medicine", "--quartile", "Q1", "--json")
	require.NoError(t, err)
	journals := decodeJournals(t, out)
	require.Len(t, journals, 1)
	assert.Equal(t, "Journal of Medicine", journals[0].Title)

	out, err = run(t, "query", "diamond", "--area", "Biology", "--json")
	require.NoError(t, err)
	assert.Empty(t, decodeJournals(t, out))
}

func TestQueryInAreasAndCategories(t *testing.T) {
	f := newFixture(t)
	f.loadClassification(t)

	out, err := run(t, "query", "in-areas", "--area", "Biology", "--json")
	require.NoError(t, err)
	journals := decodeJournals(t, out)
	require.Len(t, journals, 1)
	assert.Equal(t, "Biology Letters", journals[0].Title)

	out, err = run(t, "query", "in-categories", "--category", "Oncology", "--json")
	require.NoError(t, err)
	journals = decodeJournals(t, out)
	require.Len(t, journals, 1)
	assert.Equal(t, "Journal of Medicine", journals[0].Title)
}

func TestQueryJournalsTable(t *testing.T) {
	newFixture(t)

	out, err := run(t, "query", "journals")
	require.NoError(t, err)
	assert.Contains(t, out, "Journal of Medicine")
	assert.Contains(t, out, "Biology Letters")
	assert.Contains(t, out, "2 journals")
}

func TestQueryJournalsRejectsCombinedFilters(t *testing.T) {
	newFixture(t)

	_, err := run(t, "query", "journals", "--title", "x", "--seal")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), "choose one filter")
}

func TestQueryCategoriesAndAreas(t *testing.T) {
	f := newFixture(t)
	f.loadClassification(t)

	out, err := run(t, "query", "categories", "--quartile", "Q3", "--json")
	require.NoError(t, err)
	var categories []entity.CategoryView
	require.NoError(t, json.Unmarshal([]byte(out), &categories), out)
	require.Len(t, categories, 1)
	assert.Equal(t, "Zoology", categories[0].Name)

	out, err = run(t, "query", "areas", "--json")
	require.NoError(t, err)
	var areas []entity.AreaView
	require.NoError(t, json.Unmarshal([]byte(out), &areas), out)
	assert.Len(t, areas, 2)
}

func TestLoadJournals(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "load", "journals", f.writeFile(t, "doaj.csv", doajCSV))
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded")
	assert.Equal(t, 1, f.sparql.updates)
}

func TestLoadRequiresTarget(t *testing.T) {
	f := newFixture(t)
	f.cfg.Database.Paths = nil

	_, err := run(t, "load", "categories", "x.json")
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "database.paths")
}

func TestAmShow(t *testing.T) {
	newFixture(t)

	out, err := run(t, "am", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "endpoints:")

	out, err = run(t, "am", "show")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# scholarfed configuration"))

	_, err = run(t, "am", "show", "--format", "ini")
	assert.Error(t, err)
}

func TestAmValidate(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "am", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	f.cfg.Engine.MaxConcurrency = -1
	_, err = run(t, "am", "validate")
	assert.Error(t, err)
}

func TestVersionJSON(t *testing.T) {
	out, err := run(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"go_version"`)
}
