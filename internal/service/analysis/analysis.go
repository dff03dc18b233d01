package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/publicrust/rust-analyzer-sub000/internal/cache"
	"github.com/publicrust/rust-analyzer-sub000/internal/fileproc"
	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer/callgraph"
	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer/hookcheck"
	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer/similarity"
	"github.com/publicrust/rust-analyzer-sub000/pkg/config"
	"github.com/publicrust/rust-analyzer-sub000/pkg/hooks"
	"github.com/publicrust/rust-analyzer-sub000/pkg/models"
	"github.com/publicrust/rust-analyzer-sub000/pkg/parser"
	"github.com/publicrust/rust-analyzer-sub000/pkg/plugin"
)

// Service orchestrates hook analysis: it parses plugin sources, assembles
// the program model, resolves the catalog and runs the analyzers. The CLI
// and the MCP server share one Service.
type Service struct {
	config   *config.Config
	cache    *cache.Cache
	registry *hooks.Registry

	regOnce sync.Once
	regErr  error
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache sets the result cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithRegistry sets the catalog registry (for testing).
func WithRegistry(reg *hooks.Registry) Option {
	return func(s *Service) {
		s.registry = reg
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault("."),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the catalog registry, building the default one on first
// use. Extra catalog files from the configured directory are registered on
// top of the builtins.
func (s *Service) Registry() (*hooks.Registry, error) {
	s.regOnce.Do(func() {
		if s.registry != nil {
			return
		}
		reg, err := hooks.DefaultRegistry()
		if err != nil {
			s.regErr = err
			return
		}
		if dir := s.config.Catalog.Dir; dir != "" {
			if err := hooks.RegisterDir(reg, dir); err != nil {
				s.regErr = fmt.Errorf("registering catalogs from %s: %w", dir, err)
				return
			}
		}
		s.registry = reg
	})
	return s.registry, s.regErr
}

// Catalog resolves a catalog version, falling back to the configured one
// when version is empty.
func (s *Service) Catalog(version string) (*hooks.Catalog, error) {
	reg, err := s.Registry()
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = s.config.Catalog.Version
	}
	return reg.Resolve(version)
}

// BuildModel parses files concurrently and assembles the program model.
// Unparseable files do not abort the run; they are reported through the
// returned processing errors. Parse results are ordered by path so the
// model, and everything derived from it, is deterministic.
func (s *Service) BuildModel(ctx context.Context, files []string, onProgress func()) (*plugin.Model, *fileproc.ProcessingErrors, error) {
	results, procErrs := fileproc.MapFilesWithContextAndProgress(ctx, files,
		func(p *parser.Parser, path string) (*parser.ParseResult, error) {
			return p.ParseFile(path)
		}, onProgress)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	model, err := plugin.Build(ctx, results, s.config.Hierarchy.PluginHierarchy())
	if err != nil {
		return nil, nil, err
	}
	return model, procErrs, nil
}

// HooksOptions configures a classification run.
type HooksOptions struct {
	Catalog        string // catalog version, empty for the configured one
	MaxSuggestions int    // suggestions per diagnostic, 0 for the configured cap
	OnProgress     func()
}

// AnalyzeHooks classifies every method in the given plugin sources. Results
// are cached per file and reused while neither the sources nor the catalog
// selection change.
func (s *Service) AnalyzeHooks(ctx context.Context, files []string, opts HooksOptions) (*models.Report, error) {
	files = sortedCopy(files)

	catalog, err := s.Catalog(opts.Catalog)
	if err != nil {
		return nil, err
	}

	maxSuggestions := opts.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = s.config.MaxSuggestions
	}

	digest := s.runDigest(fmt.Sprintf("hooks:%s:%d", catalog.Version(), maxSuggestions), files)

	if report, ok := s.cachedReport(files, digest, catalog); ok {
		if opts.OnProgress != nil {
			for range files {
				opts.OnProgress()
			}
		}
		return report, nil
	}

	model, procErrs, err := s.BuildModel(ctx, files, opts.OnProgress)
	if err != nil {
		return nil, err
	}

	policy := hookcheck.New(catalog, hookcheck.WithMaxSuggestions(maxSuggestions))
	report, err := policy.Analyze(ctx, model)
	if err != nil {
		return nil, err
	}
	report.Warnings = append(report.Warnings, processingWarnings(procErrs)...)

	s.storeReport(files, digest, report, procErrs)
	return report, nil
}

// DeadcodeOptions configures a reachability run.
type DeadcodeOptions struct {
	Catalog    string
	Rank       bool // rank live methods by PageRank centrality
	OnProgress func()
}

// AnalyzeDeadcode finds methods unreachable from any hook, exempt method or
// registration. The raw graph is dropped from the result; consumers get the
// dead methods, clusters and optional ranking.
func (s *Service) AnalyzeDeadcode(ctx context.Context, files []string, opts DeadcodeOptions) (*callgraph.Analysis, error) {
	files = sortedCopy(files)

	catalog, err := s.Catalog(opts.Catalog)
	if err != nil {
		return nil, err
	}

	digest := s.runDigest(fmt.Sprintf("deadcode:%s:%t", catalog.Version(), opts.Rank), files)
	key := deadcodeKey(files, opts.Rank)

	if digest != "" {
		if raw, ok := s.cache.GetWithHash(key, digest); ok {
			var analysis callgraph.Analysis
			if json.Unmarshal(raw, &analysis) == nil {
				if opts.OnProgress != nil {
					for range files {
						opts.OnProgress()
					}
				}
				return &analysis, nil
			}
		}
	}

	model, procErrs, err := s.BuildModel(ctx, files, opts.OnProgress)
	if err != nil {
		return nil, err
	}

	var cgOpts []callgraph.Option
	if opts.Rank {
		cgOpts = append(cgOpts, callgraph.WithRank())
	}

	analysis, err := callgraph.New(catalog, cgOpts...).Analyze(ctx, model)
	if err != nil {
		return nil, err
	}
	analysis.Warnings = append(analysis.Warnings, processingWarnings(procErrs)...)
	analysis.Graph = nil

	if digest != "" {
		if raw, err := json.Marshal(analysis); err == nil {
			_ = s.cache.SetWithHash(key, digest, raw)
		}
	}
	return analysis, nil
}

// SuggestOptions configures hook name suggestions.
type SuggestOptions struct {
	Catalog string
	Max     int
}

// Suggest ranks catalog hooks against a free-form method name.
func (s *Service) Suggest(name string, opts SuggestOptions) ([]similarity.Suggestion, error) {
	catalog, err := s.Catalog(opts.Catalog)
	if err != nil {
		return nil, err
	}
	max := opts.Max
	if max <= 0 {
		max = s.config.MaxSuggestions
	}
	return similarity.Rank(name, catalog.Hooks(), max), nil
}

// CatalogInfo describes one registered catalog.
type CatalogInfo struct {
	Version    string `json:"version" toon:"version"`
	Hooks      int    `json:"hooks" toon:"hooks"`
	Deprecated int    `json:"deprecated" toon:"deprecated"`
}

// Catalogs lists every registered catalog version with its hook counts.
func (s *Service) Catalogs() ([]CatalogInfo, error) {
	reg, err := s.Registry()
	if err != nil {
		return nil, err
	}

	var infos []CatalogInfo
	for _, version := range reg.Versions() {
		cat, err := reg.Resolve(version)
		if err != nil {
			return nil, err
		}
		infos = append(infos, CatalogInfo{
			Version:    cat.Version(),
			Hooks:      cat.Len(),
			Deprecated: cat.DeprecatedCount(),
		})
	}
	return infos, nil
}

// CatalogValidation is the outcome of validating one catalog file.
type CatalogValidation struct {
	Path    string `json:"path" toon:"path"`
	Version string `json:"version,omitempty" toon:"version,omitempty"`
	Hooks   int    `json:"hooks,omitempty" toon:"hooks,omitempty"`
	Error   string `json:"error,omitempty" toon:"error,omitempty"`
}

// ValidateCatalogs checks catalog files against the schema. A failing file
// is a result with its error set, not a run failure.
func (s *Service) ValidateCatalogs(ctx context.Context, paths []string) ([]CatalogValidation, error) {
	results, _ := fileproc.ForEachFileWithContext(ctx, paths, func(path string) (CatalogValidation, error) {
		cat, err := hooks.LoadFile(path)
		if err != nil {
			return CatalogValidation{Path: path, Error: err.Error()}, nil
		}
		return CatalogValidation{Path: path, Version: cat.Version(), Hooks: cat.Len()}, nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

// fileEntry is the cached classification of one source file.
type fileEntry struct {
	Parsed   bool                  `json:"parsed"`
	Results  []models.MethodResult `json:"results,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

// runDigest fingerprints a run: the analysis parameters plus every input
// file's content hash. An empty digest disables caching for the run.
func (s *Service) runDigest(params string, files []string) string {
	if !s.cache.Enabled() {
		return ""
	}

	var b strings.Builder
	b.WriteString(params)
	b.WriteByte('\n')
	for _, f := range files {
		h, err := cache.HashFile(f)
		if err != nil {
			return ""
		}
		b.WriteString(f)
		b.WriteByte(':')
		b.WriteString(h)
		b.WriteByte('\n')
	}
	return cache.HashBytes([]byte(b.String()))
}

// cachedReport reassembles a report from per-file entries. Every file must
// hit against the current digest; one miss discards the whole attempt.
func (s *Service) cachedReport(files []string, digest string, catalog *hooks.Catalog) (*models.Report, bool) {
	if digest == "" {
		return nil, false
	}

	report := models.NewReport()
	report.CatalogVersion = catalog.Version()
	report.Warnings = append(report.Warnings, catalog.Warnings()...)

	parsed := 0
	for _, f := range files {
		raw, ok := s.cache.GetWithHash("hooks:"+f, digest)
		if !ok {
			return nil, false
		}
		var entry fileEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, false
		}
		if entry.Parsed {
			parsed++
		}
		for _, r := range entry.Results {
			report.AddResult(r)
		}
		report.Warnings = append(report.Warnings, entry.Warnings...)
	}

	report.Summary.TotalFilesAnalyzed = parsed
	report.AnalyzedAt = time.Now().UTC()
	return report, true
}

// storeReport writes one cache entry per input file.
func (s *Service) storeReport(files []string, digest string, report *models.Report, procErrs *fileproc.ProcessingErrors) {
	if digest == "" {
		return
	}

	failed := make(map[string][]string)
	if procErrs != nil {
		for _, pe := range procErrs.Errors {
			failed[pe.Path] = append(failed[pe.Path], pe.Error())
		}
	}

	byFile := make(map[string][]models.MethodResult, len(files))
	for _, r := range report.Results {
		byFile[r.File] = append(byFile[r.File], r)
	}

	for _, f := range files {
		entry := fileEntry{
			Parsed:   len(failed[f]) == 0,
			Results:  byFile[f],
			Warnings: failed[f],
		}
		raw, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		_ = s.cache.SetWithHash("hooks:"+f, digest, raw)
	}
}

func deadcodeKey(files []string, rank bool) string {
	return fmt.Sprintf("deadcode:rank=%t:%s", rank, cache.HashBytes([]byte(strings.Join(files, "\n"))))
}

func processingWarnings(procErrs *fileproc.ProcessingErrors) []string {
	if procErrs == nil {
		return nil
	}
	warnings := make([]string, 0, len(procErrs.Errors))
	for _, pe := range procErrs.Errors {
		warnings = append(warnings, pe.Error())
	}
	return warnings
}

func sortedCopy(files []string) []string {
	out := append([]string(nil), files...)
	sort.Strings(out)
	return out
}
