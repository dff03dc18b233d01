package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/publicrust/rust-analyzer-sub000/pkg/config"
)

func TestNewScanner(t *testing.T) {
	// With nil config
	s := NewScanner(nil)
	if s == nil {
		t.Fatal("NewScanner(nil) returned nil")
	}
	if s.config == nil {
		t.Error("scanner.config should not be nil when passing nil")
	}

	// With explicit config
	cfg := config.DefaultConfig()
	s = NewScanner(cfg)
	if s.config != cfg {
		t.Error("scanner.config should be the provided config")
	}
}

func TestScanDir(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"Teleport.cs":          "public class Teleport {}\n",
		"Kits.cs":              "public class Kits {}\n",
		"plugins/Backpacks.cs": "public class Backpacks {}\n",
		"plugins/notes.md":     "# notes\n",
		"data/config.json":     "{}\n",
	}

	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file %s: %v", name, err)
		}
	}

	s := NewScanner(nil)
	result, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	if len(result) != 3 {
		t.Errorf("ScanDir() found %d files, want 3", len(result))
	}

	found := make(map[string]bool)
	for _, f := range result {
		rel, _ := filepath.Rel(tmpDir, f)
		found[filepath.ToSlash(rel)] = true
	}

	for _, name := range []string{"Teleport.cs", "Kits.cs", "plugins/Backpacks.cs"} {
		if !found[name] {
			t.Errorf("File %s was not found", name)
		}
	}
}

func TestScanDirExcludesDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	// Build artifacts live in directories the default config excludes
	excludedDirs := []string{"obj", "bin", ".git"}
	for _, dir := range excludedDirs {
		path := filepath.Join(tmpDir, dir, "Generated.cs")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("public class Generated {}\n"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "Teleport.cs"), []byte("public class Teleport {}\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	s := NewScanner(nil)
	result, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	// Should only find Teleport.cs
	if len(result) != 1 {
		t.Errorf("ScanDir() found %d files, want 1 (excluded dirs should be skipped)", len(result))
		for _, f := range result {
			t.Logf("  Found: %s", f)
		}
	}
}

func TestScanDirExcludesPatterns(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		"Teleport.cs",
		"Main.Designer.cs", // Excluded by default pattern
		"Model.generated.cs",
	}

	for _, name := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("public class X {}\n"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	s := NewScanner(nil)
	result, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	if len(result) != 1 {
		t.Errorf("ScanDir() found %d files, want 1", len(result))
		for _, f := range result {
			t.Logf("  Found: %s", f)
		}
	}
	if len(result) == 1 && filepath.Base(result[0]) != "Teleport.cs" {
		t.Errorf("ScanDir() found %s, want Teleport.cs", result[0])
	}
}

func TestScanDirHonorsGitignore(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatalf("Failed to create .git: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".gitignore"), []byte("legacy/\n"), 0644); err != nil {
		t.Fatalf("Failed to create .gitignore: %v", err)
	}

	for _, name := range []string{"Teleport.cs", "legacy/OldTeleport.cs"} {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("public class X {}\n"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	s := NewScanner(nil)
	result, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(result) != 1 || filepath.Base(result[0]) != "Teleport.cs" {
		t.Errorf("ScanDir() = %v, want only Teleport.cs", result)
	}

	// With gitignore handling disabled the legacy file comes back
	cfg := config.DefaultConfig()
	cfg.Gitignore = false
	result, err = NewScanner(cfg).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("ScanDir() found %d files with gitignore disabled, want 2", len(result))
	}
}

func TestScanDirSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	root := t.TempDir()

	target := filepath.Join(outside, "Hidden.cs")
	if err := os.WriteFile(target, []byte("public class Hidden {}\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(root, "Escape.cs")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "Teleport.cs"), []byte("public class Teleport {}\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	s := NewScanner(nil)
	result, err := s.ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	if len(result) != 1 || filepath.Base(result[0]) != "Teleport.cs" {
		t.Errorf("ScanDir() = %v, want the symlink outside root skipped", result)
	}
}

func TestScanFile(t *testing.T) {
	tmpDir := t.TempDir()

	pluginPath := filepath.Join(tmpDir, "Teleport.cs")
	if err := os.WriteFile(pluginPath, []byte("public class Teleport {}\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	designerPath := filepath.Join(tmpDir, "Main.Designer.cs")
	if err := os.WriteFile(designerPath, []byte("public class Main {}\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	s := NewScanner(nil)

	ok, err := s.ScanFile(pluginPath)
	if err != nil {
		t.Fatalf("ScanFile() error: %v", err)
	}
	if !ok {
		t.Error("ScanFile() should accept a plugin source file")
	}

	ok, err = s.ScanFile(designerPath)
	if err != nil {
		t.Fatalf("ScanFile() error: %v", err)
	}
	if ok {
		t.Error("ScanFile() should reject an excluded file")
	}

	ok, err = s.ScanFile(tmpDir)
	if err != nil {
		t.Fatalf("ScanFile() error: %v", err)
	}
	if ok {
		t.Error("ScanFile() should reject a directory")
	}

	if _, err := s.ScanFile(filepath.Join(tmpDir, "missing.cs")); err == nil {
		t.Error("ScanFile() on a missing file should error")
	}
}

func TestFilterBySize(t *testing.T) {
	tmpDir := t.TempDir()

	small := filepath.Join(tmpDir, "Small.cs")
	if err := os.WriteFile(small, []byte("class S {}"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	big := filepath.Join(tmpDir, "Big.cs")
	if err := os.WriteFile(big, make([]byte, 2048), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	filtered, skipped := FilterBySize([]string{small, big}, 1024)
	if len(filtered) != 1 || skipped != 1 {
		t.Errorf("FilterBySize() = %v (skipped %d), want only the small file", filtered, skipped)
	}

	filtered, skipped = FilterBySize([]string{small, big}, 0)
	if len(filtered) != 2 || skipped != 0 {
		t.Errorf("FilterBySize() with no limit = %v (skipped %d), want both", filtered, skipped)
	}

	filtered, skipped = FilterBySize([]string{filepath.Join(tmpDir, "missing.cs")}, 1024)
	if len(filtered) != 0 || skipped != 1 {
		t.Errorf("FilterBySize() = %v (skipped %d), want missing file counted as skipped", filtered, skipped)
	}
}
