package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boardsweep/boardsweep/internal/config"
)

func TestInitCommand_BasicConfigCreation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "boardsweep.yaml")

	// Run the init command with args
	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	// Verify content
	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	// Check for expected sections
	contentStr := string(content)
	expectedSections := []string{
		"source:",
		"azure_devops:",
		"github:",
		"audit:",
		"swag:",
		"trains:",
		"output:",
		"performance:",
	}

	for _, section := range expectedSections {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing expected section: %s", section)
		}
	}
}

func TestInitCommand_ForceOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "boardsweep.yaml")

	// Create an existing file
	existingContent := []byte("existing: true\n")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	// Try to create without force - should fail
	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected error when file exists without --force")
	}

	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}

	// Now try with force - should succeed
	cmd = initCmd()
	cmd.SetArgs([]string{"--config", configPath, "--force"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}

	// Verify file was overwritten (should have the audit section now)
	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	if !strings.Contains(string(content), "audit:") {
		t.Error("Config file was not overwritten with new content")
	}
}

func TestInitCommand_MinimalConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "boardsweep.yaml")

	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath, "--minimal"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init --minimal failed: %v", err)
	}

	// Verify file was created
	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	// Minimal config should still contain the essential sections
	contentStr := string(content)

	if !strings.Contains(contentStr, "source:") {
		t.Error("Minimal config missing source section")
	}

	if !strings.Contains(contentStr, "title_min_length:") {
		t.Error("Minimal config missing title_min_length")
	}

	if !strings.Contains(contentStr, "tolerance:") {
		t.Error("Minimal config missing tolerance")
	}

	// Minimal config should say so
	if !strings.Contains(contentStr, "minimal") {
		t.Error("Minimal config should indicate it's minimal")
	}
}

func TestInitCommand_CustomOutputPath(t *testing.T) {
	tmpDir := t.TempDir()

	// Test custom filename
	customPath := filepath.Join(tmpDir, "custom-config.yaml")

	cmd := initCmd()
	cmd.SetArgs([]string{"--config", customPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init with custom path failed: %v", err)
	}

	// Verify file was created at custom path
	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created at custom path")
	}
}

func TestInitCommand_InvalidDirectory(t *testing.T) {
	// Try to create config in non-existent directory
	cmd := initCmd()
	cmd.SetArgs([]string{"--config", "/nonexistent/directory/boardsweep.yaml"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected error when directory doesn't exist")
	}

	if !strings.Contains(err.Error(), "directory does not exist") {
		t.Errorf("Expected 'directory does not exist' error, got: %v", err)
	}
}

func TestInitCommand_FullConfigSize(t *testing.T) {
	tmpDir := t.TempDir()

	// Create full config
	fullPath := filepath.Join(tmpDir, "full.yaml")
	cmd := initCmd()
	cmd.SetArgs([]string{"--config", fullPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	fullContent, _ := os.ReadFile(fullPath)

	// Create minimal config
	minimalPath := filepath.Join(tmpDir, "minimal.yaml")
	cmd = initCmd()
	cmd.SetArgs([]string{"--config", minimalPath, "--minimal"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init --minimal failed: %v", err)
	}

	minimalContent, _ := os.ReadFile(minimalPath)

	// Full config should be larger than minimal
	if len(fullContent) <= len(minimalContent) {
		t.Error("Full config should be larger than minimal config")
	}
}

func TestGetFullConfigTemplate(t *testing.T) {
	tests := []struct {
		tracker    config.TrackerType
		strictness config.Strictness
		wantKind   string
		wantTitle  string
		wantGate   string
		wantTol    string
	}{
		{
			tracker:    config.TrackerTypeAzureDevOps,
			strictness: config.StrictnessStandard,
			wantKind:   "kind: azdo",
			wantTitle:  "title_min_length: 8",
			wantGate:   "min_health_score: 100",
			wantTol:    "tolerance: 0.1",
		},
		{
			tracker:    config.TrackerTypeSnapshot,
			strictness: config.StrictnessRelaxed,
			wantKind:   "kind: snapshot",
			wantTitle:  "title_min_length: 5",
			wantGate:   "min_health_score: 0",
			wantTol:    "tolerance: 0.5",
		},
		{
			tracker:    config.TrackerTypeGitHub,
			strictness: config.StrictnessStrict,
			wantKind:   "kind: github",
			wantTitle:  "title_min_length: 12",
			wantGate:   "min_health_score: 100",
			wantTol:    "tolerance: 0.05",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.tracker)+"_"+string(tt.strictness), func(t *testing.T) {
			template := config.GetFullConfigTemplate(tt.tracker, tt.strictness)

			if !strings.Contains(template, tt.wantKind) {
				t.Errorf("Template missing expected source kind: %s", tt.wantKind)
			}

			if !strings.Contains(template, tt.wantTitle) {
				t.Errorf("Template missing expected title_min_length: %s", tt.wantTitle)
			}

			if !strings.Contains(template, tt.wantGate) {
				t.Errorf("Template missing expected min_health_score: %s", tt.wantGate)
			}

			if !strings.Contains(template, tt.wantTol) {
				t.Errorf("Template missing expected tolerance: %s", tt.wantTol)
			}
		})
	}
}

func TestGetMinimalConfigTemplate(t *testing.T) {
	template := config.GetMinimalConfigTemplate()

	// Check essential sections exist
	requiredSections := []string{
		"source:",
		"azure_devops:",
		"audit:",
		"swag:",
		"title_min_length:",
		"min_health_score:",
		"tolerance:",
	}

	for _, section := range requiredSections {
		if !strings.Contains(template, section) {
			t.Errorf("Minimal template missing required section: %s", section)
		}
	}

	// Verify it's smaller than full template
	fullTemplate := config.GetFullConfigTemplate(config.TrackerTypeAzureDevOps, config.StrictnessStandard)
	if len(template) >= len(fullTemplate) {
		t.Error("Minimal template should be smaller than full template")
	}
}

func TestTrackerPresets(t *testing.T) {
	presets := config.GetTrackerPresets()

	// Verify all tracker types have presets
	trackerTypes := []config.TrackerType{
		config.TrackerTypeAzureDevOps,
		config.TrackerTypeGitHub,
		config.TrackerTypeSnapshot,
	}

	for _, tt := range trackerTypes {
		preset, ok := presets[tt]
		if !ok {
			t.Errorf("Missing preset for tracker type: %s", tt)
			continue
		}

		if preset.Kind != string(tt) {
			t.Errorf("Tracker %s preset has kind %q", tt, preset.Kind)
		}
	}

	// Only the snapshot preset points at a backlog file
	if presets[config.TrackerTypeSnapshot].SnapshotPath != "backlog.yaml" {
		t.Errorf("Snapshot preset should default to backlog.yaml, got %q",
			presets[config.TrackerTypeSnapshot].SnapshotPath)
	}
	if presets[config.TrackerTypeAzureDevOps].SnapshotPath != "" {
		t.Error("Azure DevOps preset should not set a snapshot path")
	}
}

func TestStrictnessPresets(t *testing.T) {
	presets := config.GetStrictnessPresets()

	// Verify all strictness levels have presets
	strictnessLevels := []config.Strictness{
		config.StrictnessRelaxed,
		config.StrictnessStandard,
		config.StrictnessStrict,
	}

	for _, s := range strictnessLevels {
		preset, ok := presets[s]
		if !ok {
			t.Errorf("Missing preset for strictness: %s", s)
			continue
		}

		if preset.TitleMinLength <= 0 {
			t.Errorf("Strictness %s has invalid titleMinLength: %d", s, preset.TitleMinLength)
		}

		if preset.Tolerance <= 0 {
			t.Errorf("Strictness %s has invalid tolerance: %g", s, preset.Tolerance)
		}
	}

	// Verify strictness ordering (relaxed < standard < strict requirements)
	relaxed := presets[config.StrictnessRelaxed]
	standard := presets[config.StrictnessStandard]
	strict := presets[config.StrictnessStrict]

	if relaxed.TitleMinLength >= standard.TitleMinLength {
		t.Error("Relaxed should require shorter titles than standard")
	}

	if standard.TitleMinLength >= strict.TitleMinLength {
		t.Error("Standard should require shorter titles than strict")
	}

	if relaxed.Tolerance <= strict.Tolerance {
		t.Error("Relaxed should tolerate more estimate drift than strict")
	}

	// Relaxed runs without a health gate
	if relaxed.MinHealthScore != 0 {
		t.Errorf("Relaxed should disable the health gate, got %g", relaxed.MinHealthScore)
	}

	// Strict enforces a perfect backlog
	if strict.MinHealthScore != 100 {
		t.Errorf("Strict should gate at 100, got %g", strict.MinHealthScore)
	}
}

func TestConfigTemplateHasComments(t *testing.T) {
	template := config.GetFullConfigTemplate(config.TrackerTypeAzureDevOps, config.StrictnessStandard)

	// YAML templates should have comments
	if !strings.Contains(template, "#") {
		t.Error("Full template should contain YAML comments")
	}

	// Check for documentation sections
	expectedComments := []string{
		"BACKLOG SOURCE",
		"AZURE DEVOPS",
		"GITHUB PROJECTS",
		"BACKLOG HYGIENE CHECKS",
		"ESTIMATE RECONCILIATION",
		"RELEASE TRAINS",
		"OUTPUT SETTINGS",
		"PERFORMANCE",
		"github.com/boardsweep/boardsweep",
	}

	for _, comment := range expectedComments {
		if !strings.Contains(template, comment) {
			t.Errorf("Template missing expected comment/section: %s", comment)
		}
	}
}

func TestConfigTemplateKeepsTokensOut(t *testing.T) {
	template := config.GetFullConfigTemplate(config.TrackerTypeAzureDevOps, config.StrictnessStandard)

	// Credentials are named via environment variables, never inlined
	if !strings.Contains(template, "pat_env:") {
		t.Error("Template should point at the PAT environment variable")
	}
	if !strings.Contains(template, "token_env:") {
		t.Error("Template should point at the token environment variable")
	}
}

func TestInitCmd_FlagsExist(t *testing.T) {
	cmd := initCmd()

	// Check that all expected flags exist
	expectedFlags := []string{"config", "force", "minimal", "interactive"}
	for _, flagName := range expectedFlags {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}

	// Check short flags
	shortFlags := map[string]string{
		"c": "config",
		"f": "force",
		"i": "interactive",
	}

	for short, long := range shortFlags {
		flag := cmd.Flags().ShorthandLookup(short)
		if flag == nil {
			t.Errorf("Missing short flag -%s for --%s", short, long)
		}
	}
}

func TestInitCmd_DefaultConfigPath(t *testing.T) {
	cmd := initCmd()

	// Verify default config path
	configFlag := cmd.Flags().Lookup("config")
	if configFlag == nil {
		t.Fatal("config flag not found")
	}

	if configFlag.DefValue != "boardsweep.yaml" {
		t.Errorf("Expected default config path to be 'boardsweep.yaml', got '%s'", configFlag.DefValue)
	}
}
