package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/publicrust/rust-analyzer-sub000/internal/cache"
	"github.com/publicrust/rust-analyzer-sub000/internal/mcpserver"
	"github.com/publicrust/rust-analyzer-sub000/internal/output"
	"github.com/publicrust/rust-analyzer-sub000/internal/progress"
	"github.com/publicrust/rust-analyzer-sub000/internal/service/analysis"
	svcscanner "github.com/publicrust/rust-analyzer-sub000/internal/service/scanner"
	"github.com/publicrust/rust-analyzer-sub000/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    // set via ldflags at build time
	date    = "unknown" // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "rust-analyzer",
		Usage:    "Hook linter for Rust game server plugins",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `rust-analyzer checks Oxide/uMod plugin sources against a hook catalog:
it verifies hook method signatures, flags deprecated hooks with their
replacements, finds methods no hook or call site can reach, and suggests
the closest catalog hooks for near-miss names.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"RUST_ANALYZER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the result cache",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
			},
		},
		Before: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				cpuFile, err := os.Create(pprofPrefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				pprof.StopCPUProfile()
				if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
					cpuFile.Close()
					color.Green("CPU profile written to %s.cpu.pprof", pprofPrefix)
				}

				memFile, err := os.Create(pprofPrefix + ".mem.pprof")
				if err != nil {
					return fmt.Errorf("failed to create memory profile: %w", err)
				}
				defer memFile.Close()

				runtime.GC()
				if err := pprof.WriteHeapProfile(memFile); err != nil {
					return fmt.Errorf("failed to write memory profile: %w", err)
				}
				color.Green("Memory profile written to %s.mem.pprof", pprofPrefix)
			}
			return nil
		},
		Commands: []*cli.Command{
			hooksCmd(),
			deadcodeCmd(),
			suggestCmd(),
			catalogCmd(),
			initCmd(),
			mcpCmd(),
			versionCmd(),
		},
	}
}

// loadConfig honors the --config flag, else searches upward from the
// working directory.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.LoadOrDefault("."), nil
}

// newService builds the shared analysis service. Cache setup failures
// degrade to an uncached run rather than aborting.
func newService(c *cli.Context, cfg *config.Config) *analysis.Service {
	enabled := cfg.Cache.Enabled && !c.Bool("no-cache")
	store, err := cache.New(cache.DefaultDir(), cfg.Cache.TTL, enabled)
	if err != nil {
		if c.Bool("verbose") {
			color.Yellow("Cache unavailable, continuing without it: %v", err)
		}
		store, _ = cache.New("", 0, false)
	}
	return analysis.New(analysis.WithConfig(cfg), analysis.WithCache(store))
}

// scanFiles collects plugin sources for the positional path arguments.
func scanFiles(c *cli.Context, cfg *config.Config) ([]string, error) {
	scanSvc := svcscanner.New(svcscanner.WithConfig(cfg))
	result, err := scanSvc.ScanPaths(getPaths(c.Args().Slice()))
	if err != nil {
		return nil, err
	}
	if result.Skipped > 0 && c.Bool("verbose") {
		color.Yellow("Skipped %d file(s) over the size limit", result.Skipped)
	}
	return result.Files, nil
}

func newTracker(c *cli.Context, label string, total int) *progress.Tracker {
	if c.Bool("no-progress") {
		return nil
	}
	return progress.NewTracker(label, total)
}

func hooksCmd() *cli.Command {
	return &cli.Command{
		Name:      "hooks",
		Aliases:   []string{"check"},
		Usage:     "Classify plugin methods against the hook catalog",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Catalog version to match against",
			},
			&cli.IntFlag{
				Name:  "max-suggestions",
				Usage: "Suggestions per diagnostic",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable the progress bar",
			},
		},
		Action: runHooksCmd,
	}
}

func runHooksCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := scanFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No plugin sources found")
		return nil
	}

	svc := newService(c, cfg)

	tracker := newTracker(c, "Analyzing hooks...", len(files))
	opts := analysis.HooksOptions{
		Catalog:        c.String("catalog"),
		MaxSuggestions: c.Int("max-suggestions"),
	}
	if tracker != nil {
		opts.OnProgress = tracker.Tick
	}

	report, err := svc.AnalyzeHooks(c.Context, files, opts)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(report)
}

func deadcodeCmd() *cli.Command {
	return &cli.Command{
		Name:      "deadcode",
		Aliases:   []string{"dc"},
		Usage:     "Find methods unreachable from any hook or registration",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Catalog version to match against",
			},
			&cli.BoolFlag{
				Name:  "rank",
				Usage: "Rank live methods by PageRank centrality",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable the progress bar",
			},
		},
		Action: runDeadcodeCmd,
	}
}

func runDeadcodeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := scanFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No plugin sources found")
		return nil
	}

	svc := newService(c, cfg)

	tracker := newTracker(c, "Scanning reachability...", len(files))
	opts := analysis.DeadcodeOptions{
		Catalog: c.String("catalog"),
		Rank:    c.Bool("rank"),
	}
	if tracker != nil {
		opts.OnProgress = tracker.Tick
	}

	result, err := svc.AnalyzeDeadcode(c.Context, files, opts)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(result)
	}

	if len(result.DeadMethods) > 0 {
		var rows [][]string
		for _, dm := range result.DeadMethods {
			cluster := ""
			if dm.Cluster > 0 {
				cluster = fmt.Sprintf("%d", dm.Cluster)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%s:%d", dm.File, dm.Line),
				methodLabel(dm.Class, dm.Method),
				truncate(dm.Reason, 60),
				cluster,
			})
		}

		table := output.NewTable(
			"Unreachable Methods",
			[]string{"Location", "Method", "Reason", "Cluster"},
			rows,
			[]string{
				fmt.Sprintf("Methods: %d", result.Summary.TotalMethods),
				fmt.Sprintf("Roots: %d", result.Summary.RootMethods),
				fmt.Sprintf("Reachable: %d", result.Summary.ReachableMethods),
				fmt.Sprintf("Dead: %d", result.Summary.DeadMethods),
			},
			result,
		)
		if err := formatter.Output(table); err != nil {
			return err
		}
	} else {
		formatter.Success("No unreachable methods found (%d methods, %d roots)",
			result.Summary.TotalMethods, result.Summary.RootMethods)
	}

	if len(result.Ranked) > 0 {
		var rows [][]string
		for _, rm := range result.Ranked {
			rows = append(rows, []string{
				rm.File,
				methodLabel(rm.Class, rm.Method),
				fmt.Sprintf("%.4f", rm.PageRank),
				fmt.Sprintf("%d", rm.InDegree),
				fmt.Sprintf("%d", rm.OutDegree),
			})
		}

		table := output.NewTable(
			"Most Central Live Methods",
			[]string{"File", "Method", "PageRank", "In", "Out"},
			rows,
			nil,
			nil,
		)
		if err := formatter.Output(table); err != nil {
			return err
		}
	}

	if len(result.Warnings) > 0 && formatter.Format() == output.FormatText {
		fmt.Println()
		color.Yellow("Warnings (%d):", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	return nil
}

func suggestCmd() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Rank catalog hooks against a method name",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Catalog version to match against",
			},
			&cli.IntFlag{
				Name:  "max",
				Value: 10,
				Usage: "Maximum number of suggestions",
			},
		},
		Action: runSuggestCmd,
	}
}

func runSuggestCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("suggest requires exactly one method name")
	}
	name := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc := newService(c, cfg)

	suggestions, err := svc.Suggest(name, analysis.SuggestOptions{
		Catalog: c.String("catalog"),
		Max:     c.Int("max"),
	})
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(suggestions)
	}

	if len(suggestions) == 0 {
		formatter.Warning("No similar hooks found for %q", name)
		return nil
	}

	var rows [][]string
	for _, s := range suggestions {
		rows = append(rows, []string{
			s.Text,
			s.Tier.String(),
			fmt.Sprintf("%d", s.Score),
		})
	}

	table := output.NewTable(
		fmt.Sprintf("Hooks similar to %q", name),
		[]string{"Signature", "Tier", "Score"},
		rows,
		nil,
		suggestions,
	)
	return formatter.Output(table)
}

func catalogCmd() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect and validate hook catalogs",
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate catalog files against the schema",
				ArgsUsage: "FILE...",
				Action:    runCatalogValidateCmd,
			},
			{
				Name:   "show",
				Usage:  "List registered catalog versions",
				Action: runCatalogShowCmd,
			},
		},
	}
}

func runCatalogValidateCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("catalog validate requires at least one file")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc := newService(c, cfg)

	results, err := svc.ValidateCatalogs(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		if err := formatter.Output(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Error != "" {
				formatter.Error("%s: %s", r.Path, r.Error)
				continue
			}
			formatter.Success("%s: %s (%d hooks)", r.Path, r.Version, r.Hooks)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d catalog file(s) failed validation", failed, len(results))
	}
	return nil
}

func runCatalogShowCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc := newService(c, cfg)

	infos, err := svc.Catalogs()
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(infos)
	}

	var rows [][]string
	for _, info := range infos {
		marker := ""
		if info.Version == cfg.Catalog.Version {
			marker = "*"
		}
		rows = append(rows, []string{
			info.Version + marker,
			fmt.Sprintf("%d", info.Hooks),
			fmt.Sprintf("%d", info.Deprecated),
		})
	}

	table := output.NewTable(
		"Registered Catalogs",
		[]string{"Version", "Hooks", "Deprecated"},
		rows,
		[]string{"* = selected by config"},
		infos,
	)
	return formatter.Output(table)
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default rust-analyzer.toml configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "rust-analyzer.toml",
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	outputPath := c.String("output")
	force := c.Bool("force")

	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.Green("Created %s", outputPath)
	fmt.Println("Edit this file to customize catalog, scanning and cache settings.")
	return nil
}

func generateDefaultConfig() (string, error) {
	cfg := config.DefaultConfig()

	content, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# rust-analyzer configuration\n")
	buf.WriteString("# Hook catalog selection, source scanning and cache settings.\n\n")
	buf.Write(content)

	return buf.String(), nil
}

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes the analyzers
as tools that LLMs can invoke. This lets AI assistants lint plugin
sources, find unreachable methods and look up hook names.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "rust-analyzer": {
        "command": "rust-analyzer",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_hooks     Classify plugin methods against the hook catalog
  - deadcode          Methods unreachable from any hook or registration
  - suggest_hooks     Rank catalog hooks against a method name
  - list_catalogs     Registered catalog versions and hook counts
  - validate_catalog  Validate catalog files against the schema`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Print the MCP server manifest (server.json) and exit",
			},
		},
		Action: runMcpCmd,
	}
}

func runMcpCmd(c *cli.Context) error {
	if c.Bool("manifest") {
		manifest, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		fmt.Println(string(manifest))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcpserver.NewServer(version)
	return server.Run(ctx)
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(c *cli.Context) error {
			fmt.Printf("rust-analyzer %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}
