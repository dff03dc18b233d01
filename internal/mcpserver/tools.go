package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/publicrust/rust-analyzer-sub000/internal/output"
	"github.com/publicrust/rust-analyzer-sub000/internal/service/analysis"
	scannerSvc "github.com/publicrust/rust-analyzer-sub000/internal/service/scanner"
	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer/similarity"
)

// Common input structures for tools

// AnalyzeInput is the base input for the source-scanning tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// HooksInput adds hook-classification options.
type HooksInput struct {
	AnalyzeInput
	Catalog        string `json:"catalog,omitempty" jsonschema:"Catalog version to match against. Defaults to the configured version."`
	MaxSuggestions int    `json:"max_suggestions,omitempty" jsonschema:"Suggestions per unmatched method. Default 3."`
}

// DeadcodeInput adds reachability options.
type DeadcodeInput struct {
	AnalyzeInput
	Catalog string `json:"catalog,omitempty" jsonschema:"Catalog version to match against. Defaults to the configured version."`
	Rank    bool   `json:"rank,omitempty" jsonschema:"Rank live methods by PageRank centrality."`
}

// SuggestInput asks for hooks similar to a method name.
type SuggestInput struct {
	Name    string `json:"name" jsonschema:"Method name to find similar hooks for."`
	Catalog string `json:"catalog,omitempty" jsonschema:"Catalog version to search. Defaults to the configured version."`
	Max     int    `json:"max,omitempty" jsonschema:"Maximum suggestions to return. Default 10."`
	Format  string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// ListCatalogsInput lists registered catalog versions.
type ListCatalogsInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// ValidateCatalogInput validates catalog files on disk.
type ValidateCatalogInput struct {
	Paths  []string `json:"paths" jsonschema:"Catalog files to validate."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// Helper functions

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(format string) output.Format {
	switch format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func handleAnalyzeHooks(ctx context.Context, req *mcp.CallToolRequest, input HooksInput) (*mcp.CallToolResult, any, error) {
	paths := getPaths(input.AnalyzeInput)
	format := getFormat(input.Format)

	scanner := scannerSvc.New()
	scanResult, err := scanner.ScanPaths(paths)
	if err != nil {
		return toolError(err.Error())
	}

	if len(scanResult.Files) == 0 {
		return toolError("no plugin sources found")
	}

	svc := analysis.New()
	report, err := svc.AnalyzeHooks(ctx, scanResult.Files, analysis.HooksOptions{
		Catalog:        input.Catalog,
		MaxSuggestions: input.MaxSuggestions,
	})
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(report, format)
}

func handleDeadcode(ctx context.Context, req *mcp.CallToolRequest, input DeadcodeInput) (*mcp.CallToolResult, any, error) {
	paths := getPaths(input.AnalyzeInput)
	format := getFormat(input.Format)

	scanner := scannerSvc.New()
	scanResult, err := scanner.ScanPaths(paths)
	if err != nil {
		return toolError(err.Error())
	}

	if len(scanResult.Files) == 0 {
		return toolError("no plugin sources found")
	}

	svc := analysis.New()
	result, err := svc.AnalyzeDeadcode(ctx, scanResult.Files, analysis.DeadcodeOptions{
		Catalog: input.Catalog,
		Rank:    input.Rank,
	})
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(result, format)
}

func handleSuggestHooks(ctx context.Context, req *mcp.CallToolRequest, input SuggestInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("method name is required")
	}
	format := getFormat(input.Format)

	max := input.Max
	if max <= 0 {
		max = 10
	}

	svc := analysis.New()
	suggestions, err := svc.Suggest(input.Name, analysis.SuggestOptions{
		Catalog: input.Catalog,
		Max:     max,
	})
	if err != nil {
		return toolError(err.Error())
	}

	out := struct {
		Name        string                  `json:"name" toon:"name"`
		Suggestions []similarity.Suggestion `json:"suggestions" toon:"suggestions"`
	}{input.Name, suggestions}

	return toolResult(out, format)
}

func handleListCatalogs(ctx context.Context, req *mcp.CallToolRequest, input ListCatalogsInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.Format)

	svc := analysis.New()
	infos, err := svc.Catalogs()
	if err != nil {
		return toolError(err.Error())
	}

	out := struct {
		Catalogs []analysis.CatalogInfo `json:"catalogs" toon:"catalogs"`
	}{infos}

	return toolResult(out, format)
}

func handleValidateCatalog(ctx context.Context, req *mcp.CallToolRequest, input ValidateCatalogInput) (*mcp.CallToolResult, any, error) {
	if len(input.Paths) == 0 {
		return toolError("at least one catalog file is required")
	}
	format := getFormat(input.Format)

	svc := analysis.New()
	results, err := svc.ValidateCatalogs(ctx, input.Paths)
	if err != nil {
		return toolError(err.Error())
	}

	out := struct {
		Results []analysis.CatalogValidation `json:"results" toon:"results"`
	}{results}

	return toolResult(out, format)
}
