package config

import (
	"fmt"
)

type MigrationStatus string

const (
	StatusCompatible      MigrationStatus = "compatible"
	StatusUpdateAvailable MigrationStatus = "update_available" // Optional (classifier retrained)
	StatusIncompatible    MigrationStatus = "incompatible"     // Mandatory (label set changed)
)

// DBState represents the config we read from the SQLite table
type DBState struct {
	ClassifierID      string
	ClassifierVersion string
	TokenizerID       string
	LabelSet          string
}

// CheckCompatibility compares the DB's state against the running config
func CheckCompatibility(db DBState, cfg SystemConfig) (MigrationStatus, []string) {
	var issues []string
	status := StatusCompatible

	// 1. CRITICAL CHECK: label set
	// Stored fields are keyed by category; a different label set means
	// results are no longer comparable.
	if db.LabelSet != cfg.LabelSet() {
		status = StatusIncompatible
		issues = append(issues, fmt.Sprintf(
			"Label Set Mismatch: DB has %d categories, App uses %d",
			countCategories(db.LabelSet), len(cfg.Categories),
		))
	}

	// 2. CRITICAL CHECK: tokenizer
	// Token ids mean nothing under another vocabulary.
	if db.TokenizerID != cfg.TokenizerModel.ID {
		status = StatusIncompatible
		issues = append(issues, fmt.Sprintf(
			"Tokenizer Mismatch: DB has %s, App requires %s",
			db.TokenizerID, cfg.TokenizerModel.ID,
		))
	}

	// 3. NON-CRITICAL CHECK: classifier
	// Old extractions stay valid, a re-run may improve them.
	if db.ClassifierID != cfg.ClassifierModel.ID ||
		db.ClassifierVersion != cfg.ClassifierModel.Version {

		if status == StatusCompatible {
			status = StatusUpdateAvailable
		}
		issues = append(issues, fmt.Sprintf(
			"Classifier Update: DB uses %s (%s), App uses %s (%s)",
			db.ClassifierID, db.ClassifierVersion,
			cfg.ClassifierModel.ID, cfg.ClassifierModel.Version,
		))
	}

	return status, issues
}

func countCategories(set string) int {
	if set == "" {
		return 0
	}
	n := 1
	for _, r := range set {
		if r == ',' {
			n++
		}
	}
	return n
}
