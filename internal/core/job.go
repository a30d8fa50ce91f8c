// Package core provides the job runner and request types for Cmprssr.
// This package must NOT import any adapter-specific code (Wails, CLI flags).
// It should be fully testable without UI.
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"Cmprssr/pkg/codec"
)

// JobState represents the lifecycle state of the runner's current job
type JobState string

const (
	JobIdle      JobState = "idle"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

var (
	// ErrJobRunning is returned by Submit while another job is in flight
	ErrJobRunning = errors.New("a job is already running")
	// ErrNilSink is returned by Submit when no sink is supplied
	ErrNilSink = errors.New("a notify sink is required")
)

// Gateway performs the blocking codec transform. *codec.Gateway satisfies it.
type Gateway interface {
	Compress(ctx context.Context, sourcePath string, c codec.Codec, destinationFolder string) (string, error)
	Decompress(ctx context.Context, sourcePath string, c codec.Codec, destinationFolder string) (string, error)
}

// JobOutcome is the single terminal notification for a job.
type JobOutcome struct {
	JobID      string `json:"jobId"`
	Succeeded  bool   `json:"succeeded"`
	Message    string `json:"message"`
	OutputPath string `json:"outputPath,omitempty"`
	Kind       string `json:"kind,omitempty"` // "io" or "codec" on failure
}

// NotifySink receives exactly one JobOutcome per submitted job.
// Notify is called from the job goroutine.
type NotifySink interface {
	Notify(outcome JobOutcome)
}

// NotifyFunc adapts a function to a NotifySink
type NotifyFunc func(outcome JobOutcome)

func (f NotifyFunc) Notify(outcome JobOutcome) {
	f(outcome)
}

// ChanSink delivers the outcome into a channel. The channel must have
// room for the outcome or a reader waiting on it.
type ChanSink chan JobOutcome

func (c ChanSink) Notify(outcome JobOutcome) {
	c <- outcome
}

// JobError contains error information when a job fails
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JobSnapshot is the authoritative state of a job at a point in time.
// The UI should derive all state from this snapshot.
type JobSnapshot struct {
	JobID      string            `json:"jobId"`
	Seq        int64             `json:"seq"` // Monotonically increasing sequence number
	State      JobState          `json:"state"`
	Params     map[string]string `json:"params,omitempty"`
	Message    string            `json:"message"`
	OutputPath string            `json:"outputPath,omitempty"`
	Error      *JobError         `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// JobUpdateEvent is emitted when job state changes.
type JobUpdateEvent struct {
	JobID      string            `json:"jobId"`
	Seq        int64             `json:"seq"`
	State      JobState          `json:"state"`
	Params     map[string]string `json:"params,omitempty"`
	Message    string            `json:"message"`
	OutputPath string            `json:"outputPath,omitempty"`
	Error      *JobError         `json:"error,omitempty"`
}

// JobEventEmitter is the interface adapters implement to observe state changes.
// These events are informational; the outcome itself goes to the NotifySink.
type JobEventEmitter interface {
	EmitJobUpdate(event JobUpdateEvent)
}

// MultiEmitter broadcasts events to multiple emitters
type MultiEmitter struct {
	mu       sync.Mutex
	emitters []JobEventEmitter
}

// Add adds an emitter to the multi-emitter
func (m *MultiEmitter) Add(emitter JobEventEmitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitters = append(m.emitters, emitter)
}

// EmitJobUpdate broadcasts the event to all registered emitters
func (m *MultiEmitter) EmitJobUpdate(event JobUpdateEvent) {
	m.mu.Lock()
	emitters := make([]JobEventEmitter, len(m.emitters))
	copy(emitters, m.emitters)
	m.mu.Unlock()

	for _, e := range emitters {
		if e != nil {
			e.EmitJobUpdate(event)
		}
	}
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithEmitter sets the initial event emitter
func WithEmitter(emitter JobEventEmitter) RunnerOption {
	return func(r *Runner) {
		r.emitter = emitter
	}
}

// WithContext sets the context passed to the gateway
func WithContext(ctx context.Context) RunnerOption {
	return func(r *Runner) {
		r.ctx = ctx
	}
}

// Runner executes one gateway call at a time on a background goroutine
// and reports its outcome exactly once.
type Runner struct {
	mu      sync.Mutex
	ctx     context.Context
	gateway Gateway
	logger  *log.Logger
	emitter JobEventEmitter
	seq     int64
	current *JobSnapshot // in-flight job, or the most recent one
	busy    bool
	wg      sync.WaitGroup
}

// NewRunner creates a new Runner
func NewRunner(gateway Gateway, logger *log.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = log.New(os.Stderr, "[Cmprssr] ", log.LstdFlags|log.Lshortfile)
	}
	r := &Runner{
		ctx:     context.Background(),
		gateway: gateway,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetContext replaces the context handed to future jobs
func (r *Runner) SetContext(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
}

// AddEmitter adds an additional emitter. Events will be sent to all registered emitters.
func (r *Runner) AddEmitter(emitter JobEventEmitter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emitter == nil {
		r.emitter = emitter
		return
	}

	if multi, ok := r.emitter.(*MultiEmitter); ok {
		multi.Add(emitter)
	} else {
		r.emitter = &MultiEmitter{emitters: []JobEventEmitter{r.emitter, emitter}}
	}
}

// Submit validates req and starts it on a new goroutine. It never blocks
// on I/O. An invalid request, a nil sink or a job already in flight is
// reported here and nothing is started. Otherwise sink receives exactly
// one JobOutcome.
func (r *Runner) Submit(req JobRequest, sink NotifySink) (string, error) {
	if err := req.Validate(); err != nil {
		r.logger.Printf("[Runner] Submit: rejected: %v", err)
		return "", err
	}
	if sink == nil {
		return "", ErrNilSink
	}

	r.mu.Lock()
	if r.busy {
		active := r.current.JobID
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrJobRunning, active)
	}

	jobID := fmt.Sprintf("%s-%s", req.Operation, uuid.NewString())
	now := time.Now()
	r.current = &JobSnapshot{
		JobID:     jobID,
		State:     JobRunning,
		Params:    req.params(),
		Message:   runningMessage(req.Operation),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.busy = true
	ctx := r.ctx
	r.wg.Add(1)
	r.mu.Unlock()

	r.logger.Printf("[Runner] Submit: started job id=%s codec=%s src=%s dest=%s", jobID, req.Codec, req.SourcePath, req.DestinationFolder)
	r.emitUpdate()

	go r.run(ctx, jobID, req, sink)
	return jobID, nil
}

func (r *Runner) run(ctx context.Context, jobID string, req JobRequest, sink NotifySink) {
	defer r.wg.Done()
	defer r.release()

	outcome := r.execute(ctx, jobID, req)
	r.finish(outcome)
	r.deliver(sink, outcome)
}

// execute calls the gateway and converts any failure, including a panic,
// into a failed outcome.
func (r *Runner) execute(ctx context.Context, jobID string, req JobRequest) (outcome JobOutcome) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Printf("[Runner] execute: job id=%s panicked: %v", jobID, p)
			outcome = JobOutcome{JobID: jobID, Message: fmt.Sprintf("internal error: %v", p)}
		}
	}()

	var outputPath string
	var err error
	if req.Operation == codec.OpCompress {
		outputPath, err = r.gateway.Compress(ctx, req.SourcePath, req.Codec, req.DestinationFolder)
	} else {
		outputPath, err = r.gateway.Decompress(ctx, req.SourcePath, req.Codec, req.DestinationFolder)
	}

	if err != nil {
		outcome = JobOutcome{JobID: jobID, Message: err.Error()}
		var ce *codec.Error
		if errors.As(err, &ce) {
			outcome.Kind = ce.Kind.String()
		}
		return outcome
	}

	return JobOutcome{
		JobID:      jobID,
		Succeeded:  true,
		Message:    completeMessage(req.Operation),
		OutputPath: outputPath,
	}
}

// finish moves the snapshot to its terminal state
func (r *Runner) finish(outcome JobOutcome) {
	r.mu.Lock()
	snapshot := r.current
	snapshot.Message = outcome.Message
	snapshot.UpdatedAt = time.Now()
	if outcome.Succeeded {
		snapshot.State = JobCompleted
		snapshot.OutputPath = outcome.OutputPath
	} else {
		snapshot.State = JobFailed
		snapshot.Error = &JobError{Code: outcome.Kind, Message: outcome.Message}
	}
	r.mu.Unlock()

	r.logger.Printf("[Runner] finish: job id=%s state=%s message=%q", outcome.JobID, snapshot.State, outcome.Message)
	r.emitUpdate()
}

func (r *Runner) deliver(sink NotifySink, outcome JobOutcome) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Printf("[Runner] deliver: sink panicked for job id=%s: %v", outcome.JobID, p)
		}
	}()
	sink.Notify(outcome)
}

// release frees the in-flight slot once the sink has returned
func (r *Runner) release() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

// emitUpdate sends the current job state to the emitter
func (r *Runner) emitUpdate() {
	r.mu.Lock()
	snapshot := r.current
	if snapshot == nil {
		r.mu.Unlock()
		return
	}

	r.seq++
	snapshot.Seq = r.seq

	event := JobUpdateEvent{
		JobID:      snapshot.JobID,
		Seq:        snapshot.Seq,
		State:      snapshot.State,
		Params:     snapshot.Params,
		Message:    snapshot.Message,
		OutputPath: snapshot.OutputPath,
		Error:      snapshot.Error,
	}

	emitter := r.emitter
	r.mu.Unlock()

	if emitter != nil {
		emitter.EmitJobUpdate(event)
	}
}

// State returns the state of the in-flight or most recent job
func (r *Runner) State() JobState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return JobIdle
	}
	return r.current.State
}

// Busy reports whether a job occupies the in-flight slot
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// LastJob returns a copy of the in-flight or most recent job, or nil
func (r *Runner) LastJob() *JobSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}

	// Return a copy to prevent race conditions
	copySnapshot := *r.current
	return &copySnapshot
}

// Wait blocks until no job is in flight
func (r *Runner) Wait() {
	r.wg.Wait()
}

func runningMessage(op codec.Op) string {
	if op == codec.OpCompress {
		return "Compressing..."
	}
	return "Decompressing..."
}

func completeMessage(op codec.Op) string {
	if op == codec.OpCompress {
		return "Compression Complete!"
	}
	return "Decompression Complete!"
}
