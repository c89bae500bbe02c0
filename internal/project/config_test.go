package project

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestConfigExists(t *testing.T) {
	tempDir := t.TempDir()

	// Initially, config should not exist
	if ConfigExists(tempDir) {
		t.Error("ConfigExists should return false when config doesn't exist")
	}

	dir := filepath.Join(tempDir, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create %s dir: %v", Dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(`{"goals": ["ship it"]}`), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if !ConfigExists(tempDir) {
		t.Error("ConfigExists should return true when config exists")
	}
}

func TestLoadConfig_NotExists(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Errorf("LoadConfig should not error when file doesn't exist: %v", err)
	}
	if cfg != nil {
		t.Error("LoadConfig should return nil when file doesn't exist")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	cfg := &ProjectConfig{
		Goals:            []string{"keep the changelog current"},
		DisabledCommands: []string{"write_file"},
		NotesFile:        "NOTES.md",
	}
	if err := SaveConfig(tempDir, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, Dir)); os.IsNotExist(err) {
		t.Errorf("%s directory should be created", Dir)
	}

	loaded, err := LoadConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadConfig returned nil")
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("Expected %+v, got %+v", cfg, loaded)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(`{goals`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(tempDir); err == nil {
		t.Error("LoadConfig should fail on invalid JSON")
	}
}

func TestLoadRules(t *testing.T) {
	tempDir := t.TempDir()

	rules, err := LoadRules(tempDir)
	if err != nil {
		t.Fatalf("LoadRules should not error when file doesn't exist: %v", err)
	}
	if rules != nil {
		t.Errorf("Expected no rules, got %v", rules)
	}

	dir := filepath.Join(tempDir, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "# house rules\nNever delete files.\n\n- Ask before spending money\n  Keep answers short  \n"
	if err := os.WriteFile(filepath.Join(dir, RulesFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err = LoadRules(tempDir)
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	want := []string{"Never delete files.", "Ask before spending money", "Keep answers short"}
	if !reflect.DeepEqual(want, rules) {
		t.Errorf("Expected %v, got %v", want, rules)
	}
}
