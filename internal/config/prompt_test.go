package config

import (
	"os"
	"path/filepath"
	"testing"
)

func resetActivePrompt(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		activePrompt.Store(DefaultSystemPrompt)
	})
}

func TestLoadSystemPromptDefault(t *testing.T) {
	resetActivePrompt(t)

	cfg := &Config{}
	if err := cfg.loadSystemPrompt(); err != nil {
		t.Fatalf("loadSystemPrompt failed: %v", err)
	}

	if cfg.AI.SystemPrompt != DefaultSystemPrompt {
		t.Error("expected built-in default prompt when nothing is configured")
	}
	if ActiveSystemPrompt() != DefaultSystemPrompt {
		t.Error("active prompt should match the default")
	}
}

func TestLoadSystemPromptInline(t *testing.T) {
	resetActivePrompt(t)

	cfg := &Config{AI: AIConfig{SystemPrompt: "inline prompt"}}
	if err := cfg.loadSystemPrompt(); err != nil {
		t.Fatalf("loadSystemPrompt failed: %v", err)
	}

	if ActiveSystemPrompt() != "inline prompt" {
		t.Errorf("active prompt = %q, want inline value", ActiveSystemPrompt())
	}
}

func TestLoadSystemPromptFromFile(t *testing.T) {
	resetActivePrompt(t)

	tempDir := t.TempDir()
	promptFile := filepath.Join(tempDir, "system.md")
	content := "Prompt loaded from file"

	if err := os.WriteFile(promptFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create test prompt file: %v", err)
	}

	// File takes precedence over the inline value.
	cfg := &Config{AI: AIConfig{
		SystemPrompt:     "inline prompt",
		SystemPromptFile: promptFile,
	}}
	if err := cfg.loadSystemPrompt(); err != nil {
		t.Fatalf("loadSystemPrompt failed: %v", err)
	}

	if cfg.AI.SystemPrompt != content {
		t.Errorf("SystemPrompt = %q, want file content", cfg.AI.SystemPrompt)
	}
	if ActiveSystemPrompt() != content {
		t.Errorf("active prompt = %q, want file content", ActiveSystemPrompt())
	}
}

func TestLoadSystemPromptFileErrors(t *testing.T) {
	resetActivePrompt(t)

	tempDir := t.TempDir()

	cfg := &Config{AI: AIConfig{SystemPromptFile: filepath.Join(tempDir, "missing.md")}}
	if err := cfg.loadSystemPrompt(); err == nil {
		t.Error("expected error for non-existent prompt file")
	}

	emptyFile := filepath.Join(tempDir, "empty.md")
	if err := os.WriteFile(emptyFile, []byte("  \n"), 0600); err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}

	cfg = &Config{AI: AIConfig{SystemPromptFile: emptyFile}}
	if err := cfg.loadSystemPrompt(); err == nil {
		t.Error("expected error for blank prompt file")
	}
}

func TestSetActiveSystemPromptIgnoresBlank(t *testing.T) {
	resetActivePrompt(t)

	setActiveSystemPrompt("a real prompt")
	setActiveSystemPrompt("   ")

	if ActiveSystemPrompt() != "a real prompt" {
		t.Error("blank prompt should not replace the active one")
	}
}
