package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sai-suraj143/Intelli-Prep/internal/capture"
	"github.com/sai-suraj143/Intelli-Prep/internal/models"
	"github.com/sai-suraj143/Intelli-Prep/internal/topics"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Phase string

const (
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseProcessing     Phase = "processing"
)

var (
	ErrSessionFinished = errors.New("session: already completed or cancelled")
	ErrNotAwaiting     = errors.New("session: not awaiting an answer")
	ErrNotRecording    = errors.New("session: no answer recording in progress")
)

// Analyzer scores a finished recording against its question. It never
// fails; the dispatcher guarantees a result in both the remote and the
// simulated path.
type Analyzer interface {
	Analyze(ctx context.Context, buf capture.Buffer, questionText string) models.Answer
}

// Events receives the host-facing notifications the orchestrator emits.
type Events interface {
	AnswerRecorded(ans models.Answer)
	SessionCompleted(res models.SessionResult)
	SessionCancelled()
	CaptureError(err error)
}

// NopEvents discards every event.
type NopEvents struct{}

func (NopEvents) AnswerRecorded(models.Answer)          {}
func (NopEvents) SessionCompleted(models.SessionResult) {}
func (NopEvents) SessionCancelled()                     {}
func (NopEvents) CaptureError(error)                    {}

// Orchestrator runs one session through a topic's question list. It
// owns the capture controller, accumulates answers in question order
// and hands off an immutable SessionResult on completion. The answers
// slice always has exactly currentIndex entries; skipped questions are
// recorded as tagged answers so the invariant holds.
type Orchestrator struct {
	log      *zap.Logger
	capture  *capture.Controller
	analyzer Analyzer
	events   Events

	mu        sync.Mutex
	topic     topics.Topic
	answers   []models.Answer
	index     int
	startedAt time.Time
	status    Status
	phase     Phase
	pending   <-chan capture.Buffer
}

func New(topic topics.Topic, device capture.Device, analyzer Analyzer, events Events, log *zap.Logger) *Orchestrator {
	if events == nil {
		events = NopEvents{}
	}
	return &Orchestrator{
		log:       log,
		capture:   capture.NewController(device, log),
		analyzer:  analyzer,
		events:    events,
		topic:     topic,
		startedAt: time.Now(),
		status:    StatusActive,
		phase:     PhaseAwaitingAnswer,
	}
}

func (o *Orchestrator) Status() Status  { o.mu.Lock(); defer o.mu.Unlock(); return o.status }
func (o *Orchestrator) Phase() Phase    { o.mu.Lock(); defer o.mu.Unlock(); return o.phase }
func (o *Orchestrator) TopicID() string { return o.topic.ID }

// CurrentQuestion returns the question awaiting an answer, along with
// its zero-based index and the total question count.
func (o *Orchestrator) CurrentQuestion() (string, int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.index >= len(o.topic.Questions) {
		return "", o.index, len(o.topic.Questions)
	}
	return o.topic.Questions[o.index], o.index, len(o.topic.Questions)
}

// BeginAnswer acquires the microphone and opens a recording for the
// current question. Permission denial is user-visible but non-fatal:
// the session stays in AwaitingAnswer and the error is surfaced.
func (o *Orchestrator) BeginAnswer(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusActive {
		return ErrSessionFinished
	}
	if o.phase != PhaseAwaitingAnswer {
		return ErrNotAwaiting
	}
	if o.capture.Capturing() {
		// Exactly one open capture at a time; a second begin before
		// the first ends is ignored.
		return nil
	}
	if err := o.capture.Acquire(ctx); err != nil {
		if errors.Is(err, capture.ErrPermissionDenied) {
			o.events.CaptureError(err)
			o.log.Warn("microphone permission denied", zap.String("topic", o.topic.ID))
		}
		return err
	}
	pending, err := o.capture.Start()
	if err != nil {
		o.capture.Release()
		return err
	}
	o.pending = pending
	return nil
}

// WriteAudio appends a recorded chunk to the open answer recording.
func (o *Orchestrator) WriteAudio(p []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusActive || !o.capture.Capturing() {
		return ErrNotRecording
	}
	return o.capture.Write(p)
}

// EndAnswer stops the recording, analyzes it and appends the resulting
// Answer. Along with the answer it returns the SessionResult when this
// was the final question, nil otherwise. Analysis always resolves, so
// the Processing phase cannot wedge the session.
func (o *Orchestrator) EndAnswer(ctx context.Context) (models.Answer, *models.SessionResult, error) {
	o.mu.Lock()
	if o.status != StatusActive {
		o.mu.Unlock()
		return models.Answer{}, nil, ErrSessionFinished
	}
	if !o.capture.Capturing() {
		o.mu.Unlock()
		return models.Answer{}, nil, ErrNotRecording
	}
	pending := o.pending
	o.pending = nil
	o.phase = PhaseProcessing
	question := o.topic.Questions[o.index]
	if err := o.capture.Stop(); err != nil {
		// The device is released regardless; keep going with
		// whatever buffer was delivered.
		o.log.Warn("capture stop reported error", zap.Error(err))
	}
	o.mu.Unlock()

	buf := <-pending
	ans := o.analyzer.Analyze(ctx, buf, question)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusActive {
		// Cancelled while processing: the answer is discarded and no
		// result is produced.
		return models.Answer{}, nil, ErrSessionFinished
	}
	res, err := o.recordLocked(ans)
	return ans, res, err
}

// Skip advances past the current question without scoring it. The
// skipped question is recorded as a tagged Answer excluded from
// aggregation, preserving len(answers) == currentIndex. The recorded
// answer is returned along with the result of a final-question skip.
func (o *Orchestrator) Skip() (models.Answer, *models.SessionResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusActive {
		return models.Answer{}, nil, ErrSessionFinished
	}
	if o.phase != PhaseAwaitingAnswer || o.capture.Capturing() {
		return models.Answer{}, nil, ErrNotAwaiting
	}
	ans := models.Answer{
		QuestionText: o.topic.Questions[o.index],
		Skipped:      true,
	}
	res, err := o.recordLocked(ans)
	return ans, res, err
}

// Cancel tears the session down from any non-terminal state, forcing
// capture release and discarding accumulated answers. No persistence
// side effect follows.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusActive {
		return ErrSessionFinished
	}
	o.capture.Release()
	o.pending = nil
	o.answers = nil
	o.status = StatusCancelled
	o.events.SessionCancelled()
	return nil
}

// recordLocked appends an answer, advances the index and completes the
// session after the final question. Callers hold o.mu.
func (o *Orchestrator) recordLocked(ans models.Answer) (*models.SessionResult, error) {
	o.answers = append(o.answers, ans)
	o.index++
	o.events.AnswerRecorded(ans)

	if o.index < len(o.topic.Questions) {
		o.phase = PhaseAwaitingAnswer
		return nil, nil
	}

	res := models.SessionResult{
		TopicID:              o.topic.ID,
		CompletedAt:          time.Now(),
		OverallScore:         overallScore(o.answers),
		Answers:              append([]models.Answer(nil), o.answers...),
		TotalDurationSeconds: time.Since(o.startedAt).Seconds(),
	}
	o.status = StatusCompleted
	o.events.SessionCompleted(res)
	return &res, nil
}

// overallScore is the mean score of the scored answers; skipped ones do
// not count. A session with nothing scored yields zero.
func overallScore(answers []models.Answer) float64 {
	sum, n := 0.0, 0
	for _, a := range answers {
		if a.Skipped {
			continue
		}
		sum += a.Score
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
