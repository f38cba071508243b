package models

// ==========================================
// 1. TOKENIZER WORKER
// ==========================================

type WorkerTokenizeRequest struct {
	// Batched: one entry per page
	Texts []string `json:"texts"`

	// Structural markers are added by the windower, never by the tokenizer
	AddSpecialTokens bool `json:"add_special_tokens"`
}

type WorkerTokenizeResponse struct {
	// Parallel to Texts
	InputIDs [][]int    `json:"input_ids"`
	Tokens   [][]string `json:"tokens"`
	Error    string     `json:"error,omitempty"`
}

// ==========================================
// 2. CLASSIFIER WORKER (token classification)
// ==========================================

type WorkerClassifyRequest struct {
	InputIDs      [][]int `json:"input_ids"`
	AttentionMask [][]int `json:"attention_mask"`
}

// WorkerWindowPrediction is aligned with the window's non-padding tokens,
// structural markers included.
type WorkerWindowPrediction struct {
	TokenIDs    []int     `json:"token_ids,omitempty"`
	Tokens      []string  `json:"tokens"`
	LabelIDs    []int     `json:"label_ids"`
	Confidences []float64 `json:"confidences"`
}

type WorkerClassifyResponse struct {
	Windows []WorkerWindowPrediction `json:"windows"` // one per input row
	Error   string                   `json:"error,omitempty"`
}
