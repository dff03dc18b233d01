package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/publicrust/rust-analyzer-sub000/internal/cache"
	"github.com/publicrust/rust-analyzer-sub000/pkg/config"
	"github.com/publicrust/rust-analyzer-sub000/pkg/hooks"
	"github.com/publicrust/rust-analyzer-sub000/pkg/models"
)

const trackerSource = `using Oxide.Core;

namespace Oxide.Plugins
{
    [Info("Tracker", "dev", "1.0.0")]
    public class Tracker : RustPlugin
    {
        void OnPlayerConnected(BasePlayer player)
        {
            Record(player);
        }

        void Record(BasePlayer player)
        {
            Puts("recorded");
        }

        void OnPlayerConected(BasePlayer player)
        {
        }

        void Orphan()
        {
        }
    }
}
`

// trackerSourceEdited adds one method so an edit visibly changes the report.
const trackerSourceEdited = `using Oxide.Core;

namespace Oxide.Plugins
{
    [Info("Tracker", "dev", "1.0.0")]
    public class Tracker : RustPlugin
    {
        void OnPlayerConnected(BasePlayer player)
        {
            Record(player);
        }

        void Record(BasePlayer player)
        {
            Puts("recorded");
        }

        void OnPlayerConected(BasePlayer player)
        {
        }

        void Orphan()
        {
        }

        void Extra()
        {
        }
    }
}
`

func testRegistry() *hooks.Registry {
	reg := hooks.NewRegistry()
	reg.Register("rust", func() (*hooks.Catalog, error) {
		return hooks.NewCatalog("rust", []hooks.RawEntry{
			{Signature: "void OnPlayerConnected(BasePlayer player)"},
			{Signature: "void OnPlayerDisconnected(BasePlayer player, string reason)"},
			{Signature: "void OnServerInitialized(bool initial)"},
			{Signature: "object CanUserLogin(string name, string id, string ipAddress)"},
		}, map[string]string{
			"void OnPlayerInit(BasePlayer player)": "void OnPlayerConnected(BasePlayer player)",
		}), nil
	})
	return reg
}

func writePlugin(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	base := []Option{WithConfig(config.DefaultConfig()), WithRegistry(testRegistry())}
	return New(append(base, opts...)...)
}

func TestNewDefaults(t *testing.T) {
	svc := New(WithConfig(config.DefaultConfig()))
	if svc.config == nil {
		t.Fatal("New() left config nil")
	}
	if svc.cache.Enabled() {
		t.Error("cache should be disabled unless provided")
	}
}

func TestCatalogResolvesConfiguredVersion(t *testing.T) {
	svc := newTestService(t)

	cat, err := svc.Catalog("")
	if err != nil {
		t.Fatalf("Catalog() error: %v", err)
	}
	if cat.Version() != "rust" {
		t.Errorf("Catalog() version = %s, want rust", cat.Version())
	}

	if _, err := svc.Catalog("unknown"); err == nil {
		t.Error("Catalog() should fail for an unknown version")
	}
}

func TestRegistryLoadsCatalogDir(t *testing.T) {
	dir := t.TempDir()
	catalogJSON := `{"version": "legacy", "hooks": [{"signature": "void OnLegacyThing(string name)"}]}`
	if err := os.WriteFile(filepath.Join(dir, "legacy.json"), []byte(catalogJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Catalog.Dir = dir
	svc := New(WithConfig(cfg))

	cat, err := svc.Catalog("legacy")
	if err != nil {
		t.Fatalf("Catalog(legacy) error: %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("legacy catalog has %d hooks, want 1", cat.Len())
	}

	// Builtins stay registered alongside the extra directory.
	if _, err := svc.Catalog("rust"); err != nil {
		t.Errorf("builtin rust catalog should still resolve: %v", err)
	}
}

func TestAnalyzeHooks(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "Tracker.cs", trackerSource)

	svc := newTestService(t)
	report, err := svc.AnalyzeHooks(context.Background(), []string{filepath.Join(dir, "Tracker.cs")}, HooksOptions{})
	if err != nil {
		t.Fatalf("AnalyzeHooks() error: %v", err)
	}

	if report.Summary.TotalMethods != 4 {
		t.Errorf("TotalMethods = %d, want 4", report.Summary.TotalMethods)
	}
	if report.Summary.ValidHooks != 1 {
		t.Errorf("ValidHooks = %d, want 1", report.Summary.ValidHooks)
	}
	if report.Summary.UsedMethods != 1 {
		t.Errorf("UsedMethods = %d, want 1", report.Summary.UsedMethods)
	}
	if report.Summary.UnusedMethods != 2 {
		t.Errorf("UnusedMethods = %d, want 2", report.Summary.UnusedMethods)
	}
	if report.CatalogVersion != "rust" {
		t.Errorf("CatalogVersion = %s, want rust", report.CatalogVersion)
	}

	byMethod := make(map[string]models.MethodResult)
	for _, r := range report.Results {
		byMethod[r.Method] = r
	}
	if got := byMethod["OnPlayerConected"].Classification; got != models.ClassificationUnusedWithSuggestions {
		t.Errorf("OnPlayerConected classified %s, want %s", got, models.ClassificationUnusedWithSuggestions)
	}
	if got := byMethod["Orphan"].Classification; got != models.ClassificationUnused {
		t.Errorf("Orphan classified %s, want %s", got, models.ClassificationUnused)
	}
}

func TestAnalyzeHooks_MissingFileIsWarning(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.AnalyzeHooks(context.Background(), []string{"/nonexistent/Plugin.cs"}, HooksOptions{})
	if err != nil {
		t.Fatalf("AnalyzeHooks() error: %v", err)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(report.Warnings), report.Warnings)
	}
	if report.Summary.TotalMethods != 0 {
		t.Errorf("TotalMethods = %d, want 0", report.Summary.TotalMethods)
	}
	if report.Summary.TotalFilesAnalyzed != 0 {
		t.Errorf("TotalFilesAnalyzed = %d, want 0", report.Summary.TotalFilesAnalyzed)
	}
}

func TestAnalyzeHooks_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := writePlugin(t, dir, "Tracker.cs", trackerSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(t)
	_, err := svc.AnalyzeHooks(ctx, []string{path}, HooksOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("AnalyzeHooks() error = %v, want context.Canceled", err)
	}
}

func TestAnalyzeHooks_CachePopulatedAndReused(t *testing.T) {
	dir := t.TempDir()
	path := writePlugin(t, dir, "Tracker.cs", trackerSource)

	c, err := cache.New(filepath.Join(dir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("cache.New() error: %v", err)
	}
	svc := newTestService(t, WithCache(c))

	first, err := svc.AnalyzeHooks(context.Background(), []string{path}, HooksOptions{})
	if err != nil {
		t.Fatalf("first AnalyzeHooks() error: %v", err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 1 {
		t.Fatalf("cache entries = %d, want 1", stats.Entries)
	}

	second, err := svc.AnalyzeHooks(context.Background(), []string{path}, HooksOptions{})
	if err != nil {
		t.Fatalf("second AnalyzeHooks() error: %v", err)
	}

	if !reflect.DeepEqual(second.Summary, first.Summary) {
		t.Errorf("cached summary differs: %+v vs %+v", second.Summary, first.Summary)
	}
	if len(second.Results) != len(first.Results) {
		t.Fatalf("cached results length %d, want %d", len(second.Results), len(first.Results))
	}
	for i := range first.Results {
		if second.Results[i].Method != first.Results[i].Method ||
			second.Results[i].Classification != first.Results[i].Classification {
			t.Errorf("cached result %d differs: %+v vs %+v", i, second.Results[i], first.Results[i])
		}
	}
}

func TestAnalyzeHooks_CacheInvalidatedByEdit(t *testing.T) {
	dir := t.TempDir()
	path := writePlugin(t, dir, "Tracker.cs", trackerSource)

	c, err := cache.New(filepath.Join(dir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("cache.New() error: %v", err)
	}
	svc := newTestService(t, WithCache(c))

	first, err := svc.AnalyzeHooks(context.Background(), []string{path}, HooksOptions{})
	if err != nil {
		t.Fatalf("first AnalyzeHooks() error: %v", err)
	}
	if first.Summary.TotalMethods != 4 {
		t.Fatalf("TotalMethods = %d, want 4", first.Summary.TotalMethods)
	}

	writePlugin(t, dir, "Tracker.cs", trackerSourceEdited)

	second, err := svc.AnalyzeHooks(context.Background(), []string{path}, HooksOptions{})
	if err != nil {
		t.Fatalf("second AnalyzeHooks() error: %v", err)
	}
	if second.Summary.TotalMethods != 5 {
		t.Errorf("edited TotalMethods = %d, want 5", second.Summary.TotalMethods)
	}
}

func TestAnalyzeDeadcode(t *testing.T) {
	dir := t.TempDir()
	path := writePlugin(t, dir, "Tracker.cs", trackerSource)

	svc := newTestService(t)
	analysis, err := svc.AnalyzeDeadcode(context.Background(), []string{path}, DeadcodeOptions{})
	if err != nil {
		t.Fatalf("AnalyzeDeadcode() error: %v", err)
	}

	if analysis.Summary.DeadMethods != 2 {
		t.Errorf("DeadMethods = %d, want 2", analysis.Summary.DeadMethods)
	}
	dead := make(map[string]bool)
	for _, dm := range analysis.DeadMethods {
		dead[dm.Method] = true
	}
	if !dead["Orphan"] || !dead["OnPlayerConected"] {
		t.Errorf("dead methods = %v, want Orphan and OnPlayerConected", dead)
	}
	if analysis.Graph != nil {
		t.Error("service result should not carry the raw graph")
	}
	if len(analysis.Ranked) != 0 {
		t.Error("ranking should be off by default")
	}
}

func TestAnalyzeDeadcode_Rank(t *testing.T) {
	dir := t.TempDir()
	path := writePlugin(t, dir, "Tracker.cs", trackerSource)

	svc := newTestService(t)
	analysis, err := svc.AnalyzeDeadcode(context.Background(), []string{path}, DeadcodeOptions{Rank: true})
	if err != nil {
		t.Fatalf("AnalyzeDeadcode() error: %v", err)
	}
	if len(analysis.Ranked) == 0 {
		t.Error("expected ranked live methods")
	}
}

func TestAnalyzeDeadcode_Cached(t *testing.T) {
	dir := t.TempDir()
	path := writePlugin(t, dir, "Tracker.cs", trackerSource)

	c, err := cache.New(filepath.Join(dir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("cache.New() error: %v", err)
	}
	svc := newTestService(t, WithCache(c))

	first, err := svc.AnalyzeDeadcode(context.Background(), []string{path}, DeadcodeOptions{})
	if err != nil {
		t.Fatalf("first AnalyzeDeadcode() error: %v", err)
	}
	second, err := svc.AnalyzeDeadcode(context.Background(), []string{path}, DeadcodeOptions{})
	if err != nil {
		t.Fatalf("second AnalyzeDeadcode() error: %v", err)
	}
	if second.Summary != first.Summary {
		t.Errorf("cached summary differs: %+v vs %+v", second.Summary, first.Summary)
	}
}

func TestSuggest(t *testing.T) {
	svc := newTestService(t)

	suggestions, err := svc.Suggest("OnPlayerConected", SuggestOptions{})
	if err != nil {
		t.Fatalf("Suggest() error: %v", err)
	}
	if len(suggestions) == 0 {
		t.Fatal("expected suggestions for a near-miss name")
	}
	if suggestions[0].Text != "OnPlayerConnected(BasePlayer player)" {
		t.Errorf("top suggestion = %s, want OnPlayerConnected(BasePlayer player)", suggestions[0].Text)
	}

	none, err := svc.Suggest("Zzzz", SuggestOptions{})
	if err != nil {
		t.Fatalf("Suggest() error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no suggestions for gibberish, got %v", none)
	}
}

func TestCatalogs(t *testing.T) {
	svc := newTestService(t)

	infos, err := svc.Catalogs()
	if err != nil {
		t.Fatalf("Catalogs() error: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("Catalogs() returned %d entries, want 1", len(infos))
	}
	if infos[0].Version != "rust" || infos[0].Hooks != 4 || infos[0].Deprecated != 1 {
		t.Errorf("Catalogs()[0] = %+v, want rust/4/1", infos[0])
	}
}

func TestValidateCatalogs(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	if err := os.WriteFile(good, []byte(`{"version": "test", "hooks": [{"signature": "void OnThing(string name)"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"version": "test", "hooks": "not-a-list"}`), 0644); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(t)
	results, err := svc.ValidateCatalogs(context.Background(), []string{good, bad})
	if err != nil {
		t.Fatalf("ValidateCatalogs() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	// Results are sorted by path: bad.json first.
	if results[0].Error == "" {
		t.Errorf("bad.json should report a validation error")
	}
	if results[1].Error != "" {
		t.Errorf("good.json should validate, got error %q", results[1].Error)
	}
	if results[1].Version != "test" || results[1].Hooks != 1 {
		t.Errorf("good.json info = %+v, want version test with 1 hook", results[1])
	}
}
