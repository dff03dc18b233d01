package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/publicrust/rust-analyzer-sub000/internal/output"
)

const samplePlugin = `using Oxide.Core;

namespace Oxide.Plugins
{
    [Info("Sample", "tester", "1.0.0")]
    public class Sample : RustPlugin
    {
        void OnServerInitialized(bool initial)
        {
            Announce();
        }

        void OnPlayerConected(BasePlayer player)
        {
            Announce();
        }

        void Announce()
        {
            Puts("ready");
        }

        void Orphan()
        {
        }
    }
}
`

func writePlugin(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	csFile := filepath.Join(tmpDir, "Sample.cs")
	if err := os.WriteFile(csFile, []byte(samplePlugin), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return tmpDir
}

// TestServerCreation verifies the MCP server can be created without panicking.
func TestServerCreation(t *testing.T) {
	server := NewServer("1.0.0-test")
	if server == nil {
		t.Fatal("NewServer() returned nil")
	}
	if server.server == nil {
		t.Fatal("NewServer().server is nil")
	}
}

// TestServerCreationEmptyVersion verifies empty version defaults to "dev".
func TestServerCreationEmptyVersion(t *testing.T) {
	server := NewServer("")
	if server == nil {
		t.Fatal("NewServer(\"\") returned nil")
	}
}

// TestToolDescriptions verifies all description functions return non-empty strings.
func TestToolDescriptions(t *testing.T) {
	descriptions := map[string]func() string{
		"hooks":    describeHooks,
		"deadcode": describeDeadcode,
		"suggest":  describeSuggest,
		"catalogs": describeCatalogs,
		"validate": describeValidate,
	}

	for name, fn := range descriptions {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			if desc == "" {
				t.Errorf("%s description is empty", name)
			}
			if !strings.Contains(desc, "USE WHEN:") {
				t.Errorf("%s description missing USE WHEN section", name)
			}
			if !strings.Contains(desc, "INTERPRETING RESULTS:") {
				t.Errorf("%s description missing INTERPRETING RESULTS section", name)
			}
			if !strings.Contains(desc, "METRICS RETURNED:") {
				t.Errorf("%s description missing METRICS RETURNED section", name)
			}
		})
	}
}

// TestGetPaths verifies path handling logic.
func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		input    AnalyzeInput
		expected []string
	}{
		{
			name:     "empty paths defaults to current dir",
			input:    AnalyzeInput{Paths: nil},
			expected: []string{"."},
		},
		{
			name:     "empty slice defaults to current dir",
			input:    AnalyzeInput{Paths: []string{}},
			expected: []string{"."},
		},
		{
			name:     "single path returned as-is",
			input:    AnalyzeInput{Paths: []string{"/foo/bar"}},
			expected: []string{"/foo/bar"},
		},
		{
			name:     "multiple paths returned as-is",
			input:    AnalyzeInput{Paths: []string{"/foo", "/bar"}},
			expected: []string{"/foo", "/bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getPaths(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("getPaths() = %v, want %v", result, tt.expected)
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("getPaths()[%d] = %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

// TestGetFormat verifies format parsing logic.
func TestGetFormat(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		expected output.Format
	}{
		{"empty defaults to toon", "", output.FormatTOON},
		{"json format", "json", output.FormatJSON},
		{"markdown format", "markdown", output.FormatMarkdown},
		{"md alias", "md", output.FormatMarkdown},
		{"toon explicit", "toon", output.FormatTOON},
		{"unknown defaults to toon", "xml", output.FormatTOON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getFormat(tt.format)
			if result != tt.expected {
				t.Errorf("getFormat(%q) = %v, want %v", tt.format, result, tt.expected)
			}
		})
	}
}

// TestToolError verifies error result formatting.
func TestToolError(t *testing.T) {
	result, _, err := toolError("test error message")
	if err != nil {
		t.Fatalf("toolError returned unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("toolError returned nil result")
	}
	if !result.IsError {
		t.Error("toolError result.IsError should be true")
	}
	if len(result.Content) == 0 {
		t.Fatal("toolError result has no content")
	}
	textContent, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("toolError content is not TextContent: %T", result.Content[0])
	}
	if textContent.Text != "Error: test error message" {
		t.Errorf("toolError text = %q, want %q", textContent.Text, "Error: test error message")
	}
}

// TestToolResult verifies successful result formatting.
func TestToolResult(t *testing.T) {
	data := map[string]interface{}{
		"key": "value",
		"num": 42,
	}
	result, _, err := toolResult(data, output.FormatTOON)
	if err != nil {
		t.Fatalf("toolResult returned error: %v", err)
	}
	if result == nil {
		t.Fatal("toolResult returned nil")
	}
	if result.IsError {
		t.Error("toolResult.IsError should be false")
	}
	if len(result.Content) == 0 {
		t.Fatal("toolResult has no content")
	}
	textContent, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("toolResult content is not TextContent: %T", result.Content[0])
	}
	if textContent.Text == "" {
		t.Error("toolResult text is empty")
	}
}

// TestInputStructTags verifies all input structs marshal cleanly.
func TestInputStructTags(t *testing.T) {
	inputs := map[string]interface{}{
		"HooksInput":           HooksInput{},
		"DeadcodeInput":        DeadcodeInput{},
		"SuggestInput":         SuggestInput{},
		"ListCatalogsInput":    ListCatalogsInput{},
		"ValidateCatalogInput": ValidateCatalogInput{},
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(input)
			if err != nil {
				t.Errorf("failed to marshal: %v", err)
			}
			if len(data) == 0 {
				t.Error("marshaled to empty data")
			}
		})
	}
}

// TestHandleAnalyzeHooks tests the hook classification tool handler.
func TestHandleAnalyzeHooks(t *testing.T) {
	tmpDir := writePlugin(t)

	input := HooksInput{
		AnalyzeInput: AnalyzeInput{
			Paths:  []string{tmpDir},
			Format: "json",
		},
	}

	result, _, err := handleAnalyzeHooks(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleAnalyzeHooks returned error: %v", err)
	}
	if result == nil {
		t.Fatal("handleAnalyzeHooks returned nil result")
	}
	if result.IsError {
		textContent := result.Content[0].(*mcp.TextContent)
		t.Fatalf("handleAnalyzeHooks returned error: %s", textContent.Text)
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "OnPlayerConected") {
		t.Error("report should mention the misspelled hook")
	}
	if !strings.Contains(text, "OnPlayerConnected") {
		t.Error("report should suggest the corrected hook name")
	}
}

// TestHandleAnalyzeHooksEmptyDir verifies the no-sources error path.
func TestHandleAnalyzeHooksEmptyDir(t *testing.T) {
	tmpDir := t.TempDir()

	input := HooksInput{
		AnalyzeInput: AnalyzeInput{Paths: []string{tmpDir}},
	}

	result, _, err := handleAnalyzeHooks(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleAnalyzeHooks returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected IsError for directory with no plugin sources")
	}
}

// TestHandleDeadcode tests the reachability tool handler.
func TestHandleDeadcode(t *testing.T) {
	tmpDir := writePlugin(t)

	input := DeadcodeInput{
		AnalyzeInput: AnalyzeInput{
			Paths:  []string{tmpDir},
			Format: "json",
		},
		Rank: true,
	}

	result, _, err := handleDeadcode(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleDeadcode returned error: %v", err)
	}
	if result == nil {
		t.Fatal("handleDeadcode returned nil result")
	}
	if result.IsError {
		textContent := result.Content[0].(*mcp.TextContent)
		t.Fatalf("handleDeadcode returned error: %s", textContent.Text)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "Orphan") {
		t.Error("result should report the orphaned method")
	}
}

// TestHandleSuggestHooks tests the suggestion tool handler.
func TestHandleSuggestHooks(t *testing.T) {
	input := SuggestInput{
		Name:   "OnPlayerConected",
		Format: "json",
	}

	result, _, err := handleSuggestHooks(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleSuggestHooks returned error: %v", err)
	}
	if result.IsError {
		textContent := result.Content[0].(*mcp.TextContent)
		t.Fatalf("handleSuggestHooks returned error: %s", textContent.Text)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "OnPlayerConnected") {
		t.Error("suggestions should include the corrected hook name")
	}
}

// TestHandleSuggestHooksMissingName verifies name validation.
func TestHandleSuggestHooksMissingName(t *testing.T) {
	result, _, err := handleSuggestHooks(context.Background(), nil, SuggestInput{})
	if err != nil {
		t.Fatalf("handleSuggestHooks returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected IsError for missing method name")
	}
}

// TestHandleListCatalogs tests the catalog inventory tool handler.
func TestHandleListCatalogs(t *testing.T) {
	result, _, err := handleListCatalogs(context.Background(), nil, ListCatalogsInput{Format: "json"})
	if err != nil {
		t.Fatalf("handleListCatalogs returned error: %v", err)
	}
	if result.IsError {
		textContent := result.Content[0].(*mcp.TextContent)
		t.Fatalf("handleListCatalogs returned error: %s", textContent.Text)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "rust") {
		t.Error("catalog list should include the builtin rust catalog")
	}
}

// TestHandleValidateCatalog tests the catalog validation tool handler.
func TestHandleValidateCatalog(t *testing.T) {
	tmpDir := t.TempDir()

	goodFile := filepath.Join(tmpDir, "good.json")
	good := `{
  "version": "custom",
  "hooks": [
    {"signature": "void OnSampleEvent(BasePlayer player)"}
  ]
}`
	if err := os.WriteFile(goodFile, []byte(good), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	badFile := filepath.Join(tmpDir, "bad.json")
	if err := os.WriteFile(badFile, []byte(`{"hooks": "nope"}`), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	input := ValidateCatalogInput{
		Paths:  []string{goodFile, badFile},
		Format: "json",
	}

	result, _, err := handleValidateCatalog(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handleValidateCatalog returned error: %v", err)
	}
	if result.IsError {
		textContent := result.Content[0].(*mcp.TextContent)
		t.Fatalf("handleValidateCatalog returned error: %s", textContent.Text)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "custom") {
		t.Error("result should include the valid catalog's version")
	}
	if !strings.Contains(text, "bad.json") {
		t.Error("result should include the failing file")
	}
}

// TestHandleValidateCatalogNoPaths verifies path validation.
func TestHandleValidateCatalogNoPaths(t *testing.T) {
	result, _, err := handleValidateCatalog(context.Background(), nil, ValidateCatalogInput{})
	if err != nil {
		t.Fatalf("handleValidateCatalog returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected IsError for empty path list")
	}
}

// TestParseFrontmatter verifies frontmatter extraction from prompt files.
func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		expectedDesc string
		expectedBody string
	}{
		{
			name:         "with frontmatter",
			content:      "---\ndescription: A prompt.\n---\n\nBody text.",
			expectedDesc: "A prompt.",
			expectedBody: "Body text.",
		},
		{
			name:         "no frontmatter",
			content:      "Just body.",
			expectedDesc: "",
			expectedBody: "Just body.",
		},
		{
			name:         "unterminated frontmatter",
			content:      "---\ndescription: broken",
			expectedDesc: "",
			expectedBody: "---\ndescription: broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, body := parseFrontmatter([]byte(tt.content))
			if desc != tt.expectedDesc {
				t.Errorf("description = %q, want %q", desc, tt.expectedDesc)
			}
			if body != tt.expectedBody {
				t.Errorf("body = %q, want %q", body, tt.expectedBody)
			}
		})
	}
}

// TestEmbeddedPrompts verifies prompt files are embedded and well-formed.
func TestEmbeddedPrompts(t *testing.T) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		t.Fatalf("reading embedded prompts: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded prompt files")
	}

	for _, entry := range entries {
		content, err := promptFiles.ReadFile(filepath.Join("prompts", entry.Name()))
		if err != nil {
			t.Fatalf("reading %s: %v", entry.Name(), err)
		}
		desc, body := parseFrontmatter(content)
		if desc == "" {
			t.Errorf("%s has no description frontmatter", entry.Name())
		}
		if body == "" {
			t.Errorf("%s has an empty body", entry.Name())
		}
	}
}

// TestMakePromptHandler verifies prompt handler output shape.
func TestMakePromptHandler(t *testing.T) {
	handler := makePromptHandler("desc", "body text")

	result, err := handler(context.Background(), &mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.Description != "desc" {
		t.Errorf("description = %q, want %q", result.Description, "desc")
	}
	if len(result.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(result.Messages))
	}
	msg := result.Messages[0]
	if msg.Role != "user" {
		t.Errorf("role = %q, want %q", msg.Role, "user")
	}
	textContent, ok := msg.Content.(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", msg.Content)
	}
	if textContent.Text != "body text" {
		t.Errorf("text = %q, want %q", textContent.Text, "body text")
	}
}

// TestGenerateManifest verifies the server manifest shape.
func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("1.2.3")
	if err != nil {
		t.Fatalf("GenerateManifest returned error: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if manifest.Name != "io.github.publicrust/rust-analyzer" {
		t.Errorf("name = %q", manifest.Name)
	}
	if manifest.Version != "1.2.3" {
		t.Errorf("version = %q, want %q", manifest.Version, "1.2.3")
	}
	if len(manifest.Packages) == 0 {
		t.Fatal("manifest has no packages")
	}
	if manifest.Packages[0].Transport.Type != "stdio" {
		t.Errorf("transport = %q, want stdio", manifest.Packages[0].Transport.Type)
	}

	data, err = GenerateManifest("")
	if err != nil {
		t.Fatalf("GenerateManifest returned error: %v", err)
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if manifest.Version != "0.0.0" {
		t.Errorf("empty version = %q, want 0.0.0", manifest.Version)
	}
}
