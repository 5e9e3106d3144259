package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/capture"
	"github.com/sai-suraj143/Intelli-Prep/internal/models"
)

// Dispatcher turns a finished audio buffer into a scored Answer. It
// first tries the remote evaluator; any rejection (network error,
// non-2xx status, malformed payload, timeout) falls back to the local
// simulated scorer. Analyze never fails: callers cannot distinguish a
// remote-scored answer from a simulated one by type, only by content.
type Dispatcher struct {
	log      *zap.Logger
	client   *http.Client
	endpoint string
	simDelay time.Duration

	// One dispatcher serves every session concurrently and *rand.Rand
	// is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Dispatcher)

// WithSimDelay sets the artificial delay of the simulated scorer.
func WithSimDelay(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.simDelay = d }
}

// WithRand overrides the random source of the simulated scorer.
func WithRand(r *rand.Rand) Option {
	return func(dp *Dispatcher) { dp.rng = r }
}

// NewDispatcher builds a dispatcher against the given evaluator
// endpoint. An empty endpoint disables the remote path entirely.
func NewDispatcher(endpoint string, timeout time.Duration, log *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:      log,
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		simDelay: 2 * time.Second,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Analyze(ctx context.Context, buf capture.Buffer, questionText string) models.Answer {
	if d.endpoint != "" {
		ans, err := d.analyzeRemote(ctx, buf, questionText)
		if err == nil {
			return ans
		}
		d.log.Warn("remote analysis failed, falling back to local scorer",
			zap.String("audio_ref", buf.ID.String()),
			zap.Error(err))
	}
	return d.simulate(ctx, buf, questionText)
}

// remotePayload matches the evaluator response. Older evaluator
// revisions used camelCase for the filler count, so both spellings are
// accepted.
type remotePayload struct {
	Transcript       string   `json:"transcript"`
	Score            *float64 `json:"score"`
	FillerCount      *int     `json:"filler_count"`
	FillerCountCamel *int     `json:"fillerCount"`
	KeywordsFound    []string `json:"keywords_found"`
	Feedback         string   `json:"feedback"`
}

func (d *Dispatcher) analyzeRemote(ctx context.Context, buf capture.Buffer, questionText string) (models.Answer, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio", buf.ID.String()+".webm")
	if err != nil {
		return models.Answer{}, err
	}
	if _, err := fw.Write(buf.Data); err != nil {
		return models.Answer{}, err
	}
	if err := mw.WriteField("question", questionText); err != nil {
		return models.Answer{}, err
	}
	if err := mw.Close(); err != nil {
		return models.Answer{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, &body)
	if err != nil {
		return models.Answer{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return models.Answer{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Answer{}, fmt.Errorf("evaluator returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Answer{}, err
	}
	var payload remotePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.Answer{}, fmt.Errorf("malformed evaluator response: %w", err)
	}
	if payload.Score == nil {
		return models.Answer{}, fmt.Errorf("malformed evaluator response: missing score")
	}

	// The evaluator scores on 0–100; the canonical scale is 0–10.
	score := *payload.Score / 10
	if score < 0 {
		score = 0
	}
	if score > models.ScoreCeiling {
		score = models.ScoreCeiling
	}

	fillers := 0
	switch {
	case payload.FillerCount != nil:
		fillers = *payload.FillerCount
	case payload.FillerCountCamel != nil:
		fillers = *payload.FillerCountCamel
	}
	if fillers < 0 {
		fillers = 0
	}

	return models.Answer{
		QuestionText:    questionText,
		Transcript:      payload.Transcript,
		FeedbackText:    payload.Feedback,
		Score:           score,
		FillerCount:     fillers,
		KeywordsFound:   payload.KeywordsFound,
		ConfidenceLabel: models.ConfidenceForScore(score),
		DurationSeconds: durationSeconds(buf),
		AudioReference:  buf.ID.String(),
	}, nil
}

const simulatedTranscript = "This is a simulated transcript of the user's answer. " +
	"It contains technical terms like Big O Notation and Recursion."

// simulate shapes a plausible Answer locally so the pipeline never
// blocks on evaluator availability.
func (d *Dispatcher) simulate(ctx context.Context, buf capture.Buffer, questionText string) models.Answer {
	if d.simDelay > 0 {
		timer := time.NewTimer(d.simDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	d.rngMu.Lock()
	fillers := d.rng.Intn(8)
	penalty := d.rng.Intn(2)
	d.rngMu.Unlock()

	score := models.ScoreCeiling - float64(fillers) - float64(penalty)
	if score < 1 {
		score = 1
	}

	feedback := "Excellent clear delivery. You explained the concepts well with good pacing."
	if fillers > 3 {
		feedback = "Your answer was correct but contained too many filler words. " +
			"Try to pause instead of saying 'um' or 'uh'."
	}

	return models.Answer{
		QuestionText:    questionText,
		Transcript:      simulatedTranscript,
		FeedbackText:    feedback,
		Score:           score,
		FillerCount:     fillers,
		ConfidenceLabel: models.ConfidenceForScore(score),
		DurationSeconds: durationSeconds(buf),
		AudioReference:  buf.ID.String(),
	}
}

func durationSeconds(buf capture.Buffer) float64 {
	if buf.Duration > 0 {
		return buf.Duration.Seconds()
	}
	// Recordings fed as a single uploaded blob carry no wall-clock
	// duration; mirror the 30s placeholder the evaluator assumes.
	return 30
}
