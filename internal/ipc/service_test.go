package ipc

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/GonzoDMX/modextract/internal/models"
	"github.com/GonzoDMX/modextract/internal/pipeline"
)

// funcWorker answers requests from a function.
type funcWorker func(req, resp any) error

func (f funcWorker) Process(req, resp any) error { return f(req, resp) }

func TestServiceRoundTripsLines(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	svc, err := StartService("echo", "cat")
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	for _, text := range []string{"Modulname", "Leistungspunkte"} {
		var resp models.WorkerTokenizeRequest
		if err := svc.Process(models.WorkerTokenizeRequest{Texts: []string{text}}, &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Texts) != 1 || resp.Texts[0] != text {
			t.Fatalf("echo = %+v", resp)
		}
	}

	svc.Close()
	if err := svc.Process(struct{}{}, &struct{}{}); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestPoolRoundRobin(t *testing.T) {
	var hits [3]int
	var workers []Worker
	for i := range hits {
		i := i
		workers = append(workers, funcWorker(func(req, resp any) error {
			hits[i]++
			return nil
		}))
	}
	pool := NewPool(workers...)
	for i := 0; i < 9; i++ {
		if err := pool.Process(nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	for i, h := range hits {
		if h != 3 {
			t.Fatalf("worker %d got %d requests", i, h)
		}
	}

	if err := NewPool().Process(nil, nil); err == nil {
		t.Fatal("empty pool must fail")
	}
}

func TestTokenizerClient(t *testing.T) {
	w := funcWorker(func(req, resp any) error {
		r := req.(models.WorkerTokenizeRequest)
		if r.AddSpecialTokens {
			t.Error("markers must not be added by the tokenizer")
		}
		out := resp.(*models.WorkerTokenizeResponse)
		for range r.Texts {
			out.InputIDs = append(out.InputIDs, []int{7, 8})
			out.Tokens = append(out.Tokens, []string{"Mod", "##ul"})
		}
		return nil
	})
	enc, err := NewTokenizerClient(w).Tokenize(context.Background(), []string{"Modul", "Modul"})
	if err != nil {
		t.Fatal(err)
	}
	if len(enc) != 2 || enc[1].Tokens[1] != "##ul" {
		t.Fatalf("enc = %+v", enc)
	}
}

func TestTokenizerClientErrors(t *testing.T) {
	failing := funcWorker(func(req, resp any) error {
		resp.(*models.WorkerTokenizeResponse).Error = "model not loaded"
		return nil
	})
	if _, err := NewTokenizerClient(failing).Tokenize(context.Background(), []string{"x"}); !errors.Is(err, ErrWorker) {
		t.Fatalf("expected ErrWorker, got %v", err)
	}

	short := funcWorker(func(req, resp any) error { return nil })
	if _, err := NewTokenizerClient(short).Tokenize(context.Background(), []string{"x"}); !errors.Is(err, pipeline.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewTokenizerClient(short).Tokenize(ctx, []string{"x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClassifierClient(t *testing.T) {
	win, _ := pipeline.NewWindower(510, 50, pipeline.BertMarkers)
	batch := win.Prepare([]pipeline.PageTokens{{Page: 1, IDs: []int{7, 8}}, {Page: 2, IDs: []int{9}}})

	w := funcWorker(func(req, resp any) error {
		r := req.(models.WorkerClassifyRequest)
		out := resp.(*models.WorkerClassifyResponse)
		for range r.InputIDs {
			out.Windows = append(out.Windows, models.WorkerWindowPrediction{
				Tokens: []string{"[CLS]", "a", "[SEP]"}, LabelIDs: []int{0, 1, 0}, Confidences: []float64{1, 0.5, 1},
			})
		}
		return nil
	})
	raws, err := NewClassifierClient(w).Classify(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(raws) != 2 || raws[0].LabelIDs[1] != 1 {
		t.Fatalf("raws = %+v", raws)
	}

	dropped := funcWorker(func(req, resp any) error {
		resp.(*models.WorkerClassifyResponse).Windows = make([]models.WorkerWindowPrediction, 1)
		return nil
	})
	if _, err := NewClassifierClient(dropped).Classify(context.Background(), batch); !errors.Is(err, pipeline.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}
