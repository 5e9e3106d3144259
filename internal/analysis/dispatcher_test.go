package analysis_test

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/analysis"
	"github.com/sai-suraj143/Intelli-Prep/internal/capture"
	"github.com/sai-suraj143/Intelli-Prep/internal/models"
)

func testBuffer() capture.Buffer {
	return capture.Buffer{
		ID:       uuid.New(),
		MimeType: "audio/webm",
		Data:     []byte("fake-audio"),
		Duration: 12 * time.Second,
	}
}

func newDispatcher(endpoint string) *analysis.Dispatcher {
	return analysis.NewDispatcher(endpoint, time.Second, zap.NewNop(),
		analysis.WithSimDelay(0),
		analysis.WithRand(rand.New(rand.NewSource(1))))
}

func TestAnalyzeRemoteNormalizesScale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("bad multipart request: %v", err)
		}
		if _, _, err := r.FormFile("audio"); err != nil {
			t.Errorf("missing audio part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcript":"the hash map","score":85,"filler_count":2,"keywords_found":["hash"],"feedback":"Good use of technical terms."}`))
	}))
	defer srv.Close()

	d := newDispatcher(srv.URL)
	ans := d.Analyze(context.Background(), testBuffer(), "How does a hash map work?")

	if ans.Score != 8.5 {
		t.Fatalf("expected evaluator score 85 to normalize to 8.5, got %v", ans.Score)
	}
	if ans.FillerCount != 2 {
		t.Fatalf("expected 2 fillers, got %d", ans.FillerCount)
	}
	if ans.Transcript != "the hash map" {
		t.Fatalf("unexpected transcript: %q", ans.Transcript)
	}
	if ans.ConfidenceLabel != models.ConfidenceHigh {
		t.Fatalf("expected High confidence for 8.5, got %s", ans.ConfidenceLabel)
	}
	if ans.DurationSeconds != 12 {
		t.Fatalf("expected buffer duration, got %v", ans.DurationSeconds)
	}
}

func TestAnalyzeAcceptsCamelCaseFillerCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transcript":"t","score":50,"fillerCount":4,"feedback":"f"}`))
	}))
	defer srv.Close()

	ans := newDispatcher(srv.URL).Analyze(context.Background(), testBuffer(), "q")
	if ans.FillerCount != 4 {
		t.Fatalf("expected camelCase filler count to be read, got %d", ans.FillerCount)
	}
	if ans.Score != 5 {
		t.Fatalf("expected score 5, got %v", ans.Score)
	}
}

func TestAnalyzeFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "AI Engine Failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ans := newDispatcher(srv.URL).Analyze(context.Background(), testBuffer(), "q")
	assertSimulated(t, ans)
}

func TestAnalyzeFallsBackOnMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	ans := newDispatcher(srv.URL).Analyze(context.Background(), testBuffer(), "q")
	assertSimulated(t, ans)
}

func TestAnalyzeFallsBackOnMissingScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transcript":"t","feedback":"f"}`))
	}))
	defer srv.Close()

	ans := newDispatcher(srv.URL).Analyze(context.Background(), testBuffer(), "q")
	assertSimulated(t, ans)
}

func TestAnalyzeFallsBackOnUnreachableEvaluator(t *testing.T) {
	ans := newDispatcher("http://127.0.0.1:1/api/analyze").Analyze(context.Background(), testBuffer(), "q")
	assertSimulated(t, ans)
}

func TestSimulatedScorerShape(t *testing.T) {
	d := newDispatcher("") // remote path disabled
	for i := 0; i < 50; i++ {
		ans := d.Analyze(context.Background(), testBuffer(), "q")
		if ans.Score < 1 || ans.Score > models.ScoreCeiling {
			t.Fatalf("simulated score out of range: %v", ans.Score)
		}
		if ans.FillerCount < 0 || ans.FillerCount > 7 {
			t.Fatalf("simulated filler count out of range: %d", ans.FillerCount)
		}
		if ans.Transcript == "" || ans.FeedbackText == "" {
			t.Fatal("simulated answer must carry transcript and feedback")
		}
		if ans.ConfidenceLabel != models.ConfidenceForScore(ans.Score) {
			t.Fatalf("confidence label does not match score %v: %s", ans.Score, ans.ConfidenceLabel)
		}
	}
}

func TestAnalyzeIsSafeForConcurrentSessions(t *testing.T) {
	// One dispatcher is shared by every user's session; ending answers
	// in parallel must not corrupt the fallback scorer.
	d := newDispatcher("")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				ans := d.Analyze(context.Background(), testBuffer(), "q")
				if ans.Score < 1 || ans.Score > models.ScoreCeiling {
					t.Errorf("concurrent simulated score out of range: %v", ans.Score)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func assertSimulated(t *testing.T, ans models.Answer) {
	t.Helper()
	if ans.Transcript == "" || ans.FeedbackText == "" {
		t.Fatalf("fallback answer incomplete: %+v", ans)
	}
	if ans.Score < 1 || ans.Score > models.ScoreCeiling {
		t.Fatalf("fallback score out of range: %v", ans.Score)
	}
}
