package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modextract.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Training.ChunkSize != 512 || cfg.Training.Stride != 128 {
		t.Fatalf("training = %+v", cfg.Training)
	}
	if cfg.Inference.MaxTokens != 510 || cfg.Inference.Overlap != 50 {
		t.Fatalf("inference = %+v", cfg.Inference)
	}
	table, err := cfg.LabelTable()
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 57 {
		t.Fatalf("label count = %d", table.Len())
	}
}

func TestLoadOverlay(t *testing.T) {
	path := writeYAML(t, `
inference:
  overlap: 32
  batch_size: 4
categories: [NAME, CODE]
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Inference.Overlap != 32 || cfg.Inference.BatchSize != 4 {
		t.Fatalf("inference = %+v", cfg.Inference)
	}
	if cfg.Inference.MaxTokens != 510 {
		t.Fatal("unset keys must keep their defaults")
	}
	if cfg.LabelSet() != "NAME,CODE" {
		t.Fatalf("label set = %q", cfg.LabelSet())
	}
	if len(CurrentDefaults.Categories) != 28 {
		t.Fatal("overlay must not modify the defaults")
	}
}

func TestLoadRejectsBadGeometry(t *testing.T) {
	cases := map[string]string{
		"overlap":    "inference:\n  overlap: 510\n",
		"stride":     "training:\n  stride: 510\n",
		"context":    "inference:\n  max_tokens: 600\n",
		"categories": "categories: [NAME, NAME]\n",
		"level":      "log_level: loud\n",
	}
	for name, body := range cases {
		if _, err := Load(writeYAML(t, body)); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestCheckCompatibility(t *testing.T) {
	cfg := CurrentDefaults
	state := DBState{
		ClassifierID:      cfg.ClassifierModel.ID,
		ClassifierVersion: cfg.ClassifierModel.Version,
		TokenizerID:       cfg.TokenizerModel.ID,
		LabelSet:          cfg.LabelSet(),
	}
	if status, issues := CheckCompatibility(state, cfg); status != StatusCompatible || len(issues) != 0 {
		t.Fatalf("status %s, issues %v", status, issues)
	}

	older := state
	older.ClassifierVersion = "0.9"
	if status, _ := CheckCompatibility(older, cfg); status != StatusUpdateAvailable {
		t.Fatalf("retrained classifier: %s", status)
	}

	relabeled := older
	relabeled.LabelSet = "NAME,CODE"
	status, issues := CheckCompatibility(relabeled, cfg)
	if status != StatusIncompatible || len(issues) != 2 {
		t.Fatalf("status %s, issues %v", status, issues)
	}
}
