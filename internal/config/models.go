package config

import (
	"github.com/GonzoDMX/modextract/internal/labels"
	"github.com/GonzoDMX/modextract/internal/pipeline"
	"github.com/GonzoDMX/modextract/internal/reconcile"
)

// ModelType distinguishes the two external model roles
type ModelType string

const (
	TypeTokenizer  ModelType = "tokenizer"
	TypeClassifier ModelType = "token_classifier"
)

// ModelCard defines the exact specifications of a model
type ModelCard struct {
	ID            string    `yaml:"id" json:"id"`           // e.g. "bert-base-multilingual-cased"
	Version       string    `yaml:"version" json:"version"` // e.g. "v1.0" or a commit hash
	Type          ModelType `yaml:"type" json:"type"`
	ContextLength int       `yaml:"context_length" json:"context_length"` // incl. structural markers
}

// TrainingConfig drives the dataset chunker
type TrainingConfig struct {
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"` // C, incl. markers
	Stride    int `yaml:"stride" json:"stride"`         // S
}

// InferenceConfig drives the windower and classifier batching
type InferenceConfig struct {
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"` // M, excl. markers
	Overlap   int `yaml:"overlap" json:"overlap"`       // O
	BatchSize int `yaml:"batch_size" json:"batch_size"` // windows per classifier call, 0 = all
}

// WorkerConfig locates the python worker scripts
type WorkerConfig struct {
	Python           string `yaml:"python" json:"python"` // empty = auto-detect .venv
	TokenizerScript  string `yaml:"tokenizer_script" json:"tokenizer_script"`
	ClassifierScript string `yaml:"classifier_script" json:"classifier_script"`
	Count            int    `yaml:"count" json:"count"`
}

// ServerConfig holds HTTP and storage settings
type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	DataDir   string `yaml:"data_dir" json:"data_dir"` // empty = ~/.modextract
	DefaultDB string `yaml:"default_db" json:"default_db"`
}

// SystemConfig represents the "Gold Standard" for this version of the App
type SystemConfig struct {
	AppVersion      string               `yaml:"-" json:"app_version"`
	TokenizerModel  ModelCard            `yaml:"tokenizer_model" json:"tokenizer_model"`
	ClassifierModel ModelCard            `yaml:"classifier_model" json:"classifier_model"`
	Training        TrainingConfig       `yaml:"training" json:"training"`
	Inference       InferenceConfig      `yaml:"inference" json:"inference"`
	Markers         pipeline.Markers     `yaml:"markers" json:"markers"`
	Vocabulary      reconcile.Vocabulary `yaml:"vocabulary" json:"vocabulary"`
	Categories      []string             `yaml:"categories" json:"categories"` // label id order
	Workers         WorkerConfig         `yaml:"workers" json:"workers"`
	Server          ServerConfig         `yaml:"server" json:"server"`
	LogLevel        string               `yaml:"log_level" json:"log_level"`
}

// CurrentDefaults defines the configuration for THIS version of the binary.
// When you update the app, you change these values here.
var CurrentDefaults = SystemConfig{
	AppVersion: "0.1.0",

	TokenizerModel: ModelCard{
		ID:            "bert-base-multilingual-cased",
		Version:       "1.0",
		Type:          TypeTokenizer,
		ContextLength: 512,
	},

	ClassifierModel: ModelCard{
		ID:            "modextract/handbook-ner",
		Version:       "1.0", // Increment when retrained on new data
		Type:          TypeClassifier,
		ContextLength: 512,
	},

	Training: TrainingConfig{
		ChunkSize: 512,
		Stride:    128,
	},

	Inference: InferenceConfig{
		MaxTokens: 510,
		Overlap:   50,
		BatchSize: 16,
	},

	Markers:    pipeline.BertMarkers,
	Vocabulary: reconcile.WordPiece,
	Categories: labels.HandbookCategories,

	Workers: WorkerConfig{
		TokenizerScript:  "workers/tokenizer.py",
		ClassifierScript: "workers/classifier.py",
		Count:            1,
	},

	Server: ServerConfig{
		Addr:      ":8080",
		DefaultDB: "default",
	},

	LogLevel: "info",
}
