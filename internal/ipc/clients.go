package ipc

import (
	"context"
	"errors"
	"fmt"

	"github.com/GonzoDMX/modextract/internal/models"
	"github.com/GonzoDMX/modextract/internal/pipeline"
	"github.com/GonzoDMX/modextract/internal/reconcile"
)

// ErrWorker wraps an error reported by the worker itself.
var ErrWorker = errors.New("worker error")

// Encoding is the tokenizer output for one text.
type Encoding struct {
	IDs    []int
	Tokens []string
}

// TokenizerClient talks to the tokenizer worker.
type TokenizerClient struct {
	w Worker
}

func NewTokenizerClient(w Worker) *TokenizerClient { return &TokenizerClient{w: w} }

// Tokenize encodes texts without structural markers.
func (c *TokenizerClient) Tokenize(ctx context.Context, texts []string) ([]Encoding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	var resp models.WorkerTokenizeResponse
	req := models.WorkerTokenizeRequest{Texts: texts, AddSpecialTokens: false}
	if err := c.w.Process(req, &resp); err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("tokenize: %w: %s", ErrWorker, resp.Error)
	}
	if len(resp.InputIDs) != len(texts) {
		return nil, &pipeline.ShapeError{Stage: "tokenize", Page: -1, Window: -1, Field: "input_ids", Got: len(resp.InputIDs), Want: len(texts)}
	}
	if len(resp.Tokens) != 0 && len(resp.Tokens) != len(texts) {
		return nil, &pipeline.ShapeError{Stage: "tokenize", Page: -1, Window: -1, Field: "tokens", Got: len(resp.Tokens), Want: len(texts)}
	}

	out := make([]Encoding, len(texts))
	for i := range texts {
		out[i].IDs = resp.InputIDs[i]
		if len(resp.Tokens) > 0 {
			out[i].Tokens = resp.Tokens[i]
			if len(out[i].Tokens) != len(out[i].IDs) {
				return nil, &pipeline.ShapeError{Stage: "tokenize", Page: -1, Window: i, Field: "tokens", Got: len(out[i].Tokens), Want: len(out[i].IDs)}
			}
		}
	}
	return out, nil
}

// ClassifierClient talks to the token-classification worker.
type ClassifierClient struct {
	w Worker
}

func NewClassifierClient(w Worker) *ClassifierClient { return &ClassifierClient{w: w} }

// Classify runs one padded batch and returns one raw window per row, in
// row order.
func (c *ClassifierClient) Classify(ctx context.Context, batch pipeline.Batch) ([]reconcile.RawWindow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if batch.Len() == 0 {
		return nil, nil
	}

	var resp models.WorkerClassifyResponse
	req := models.WorkerClassifyRequest{InputIDs: batch.InputIDs, AttentionMask: batch.AttentionMask}
	if err := c.w.Process(req, &resp); err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("classify: %w: %s", ErrWorker, resp.Error)
	}
	if len(resp.Windows) != batch.Len() {
		return nil, &pipeline.ShapeError{Stage: "classify", Page: -1, Window: -1, Field: "windows", Got: len(resp.Windows), Want: batch.Len()}
	}

	out := make([]reconcile.RawWindow, len(resp.Windows))
	for i, w := range resp.Windows {
		out[i] = reconcile.RawWindow{
			TokenIDs:    w.TokenIDs,
			Tokens:      w.Tokens,
			LabelIDs:    w.LabelIDs,
			Confidences: w.Confidences,
		}
	}
	return out, nil
}
