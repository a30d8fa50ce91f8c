package services

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"Cmprssr/internal/core"
	"Cmprssr/pkg/codec"
)

const (
	// EventJobUpdate carries core.JobUpdateEvent on every state change
	EventJobUpdate = "job:update"
	// EventJobOutcome carries the single core.JobOutcome of a job
	EventJobOutcome = "job:outcome"
)

// emitFunc matches runtime.EventsEmit; tests replace it because the
// Wails runtime aborts on a context it did not create.
type emitFunc func(ctx context.Context, eventName string, data ...interface{})

// WailsEmitter forwards runner state changes to the frontend
type WailsEmitter struct {
	ctx  context.Context
	emit emitFunc
}

// NewWailsEmitter creates a new WailsEmitter
func NewWailsEmitter(ctx context.Context) *WailsEmitter {
	return &WailsEmitter{ctx: ctx, emit: runtime.EventsEmit}
}

// SetContext sets the Wails runtime context
func (e *WailsEmitter) SetContext(ctx context.Context) {
	e.ctx = ctx
}

func (e *WailsEmitter) EmitJobUpdate(event core.JobUpdateEvent) {
	if e.ctx == nil {
		return
	}
	e.emit(e.ctx, EventJobUpdate, event)
}

// StartRequest is the frontend's view of a job request
type StartRequest struct {
	SourcePath        string `json:"sourcePath"`
	Mode              string `json:"mode"`  // "compress" or "decompress"
	Codec             string `json:"codec"` // "gzip", "lzma" or "bz2"
	DestinationFolder string `json:"destinationFolder"`
}

// SourceSelection is returned by ChooseSource
type SourceSelection struct {
	Path  string `json:"path"`
	Codec string `json:"codec,omitempty"` // detected in decompress mode, may be empty
}

// CodecService handles compress and decompress jobs for the frontend
type CodecService struct {
	ctx    context.Context
	logger *log.Logger
	runner *core.Runner
	config *ConfigService
	emit   emitFunc
}

// NewCodecService creates a new CodecService
func NewCodecService(ctx context.Context, logger *log.Logger, runner *core.Runner) *CodecService {
	return &CodecService{
		ctx:    ctx,
		logger: logger,
		runner: runner,
		emit:   runtime.EventsEmit,
	}
}

// SetContext sets the Wails runtime context for the service
func (s *CodecService) SetContext(ctx context.Context) {
	s.ctx = ctx
}

// SetConfig sets the config service
func (s *CodecService) SetConfig(config *ConfigService) {
	s.config = config
}

// ChooseSource opens a file selection dialog. In decompress mode the codec
// is guessed from the file extension.
func (s *CodecService) ChooseSource(mode string) (SourceSelection, error) {
	path, err := runtime.OpenFileDialog(s.ctx, runtime.OpenDialogOptions{
		Title: "Select File",
	})
	if err != nil {
		return SourceSelection{}, err
	}

	selection := SourceSelection{Path: path}
	if op, _ := codec.ParseOp(mode); path != "" && op == codec.OpDecompress {
		selection.Codec = s.DetectCodec(path)
	}
	return selection, nil
}

// ChooseDestination opens a directory selection dialog
func (s *CodecService) ChooseDestination() (string, error) {
	path, err := runtime.OpenDirectoryDialog(s.ctx, runtime.OpenDialogOptions{
		Title: "Select Destination Folder",
	})
	if err != nil {
		return "", err
	}

	if s.config != nil && path != "" {
		if err := s.config.SetDestinationFolder(path); err != nil {
			s.logger.Printf("[CodecService] ChooseDestination: failed to save destination: %v", err)
		}
	}

	return path, nil
}

// GetDefaults returns the remembered mode, codec and destination the
// frontend presets on load. A remembered folder that no longer exists is
// dropped.
func (s *CodecService) GetDefaults() Config {
	defaults := Config{Mode: string(codec.OpCompress)}
	if s.config == nil {
		return defaults
	}

	cfg := s.config.GetConfig()
	if op, err := codec.ParseOp(cfg.Mode); err == nil {
		defaults.Mode = string(op)
	}
	if c, err := codec.ParseCodec(cfg.Codec); err == nil {
		defaults.Codec = string(c)
	}
	if cfg.DestinationFolder != "" {
		if info, err := os.Stat(cfg.DestinationFolder); err == nil && info.IsDir() {
			defaults.DestinationFolder = cfg.DestinationFolder
		} else {
			s.logger.Printf("[CodecService] GetDefaults: dropping missing destination %s", cfg.DestinationFolder)
		}
	}
	return defaults
}

// DetectCodec returns the codec implied by the path suffix, or ""
func (s *CodecService) DetectCodec(path string) string {
	c, ok := codec.DetectCodec(path)
	if !ok {
		return ""
	}
	return string(c)
}

// Start validates req and submits it. Validation errors are returned here
// carrying only the user-facing message; the result of the job arrives as
// a job:outcome event.
func (s *CodecService) Start(req StartRequest) (string, error) {
	s.logger.Printf("[CodecService] Start: src=%s mode=%s codec=%s dest=%s", req.SourcePath, req.Mode, req.Codec, req.DestinationFolder)

	jobReq, err := core.ParseRequest(req.SourcePath, req.Mode, req.Codec, req.DestinationFolder)
	if err != nil {
		s.logger.Printf("[CodecService] Start: %v", err)
		return "", userError(err)
	}

	jobID, err := s.runner.Submit(jobReq, core.NotifyFunc(s.onOutcome))
	if err != nil {
		s.logger.Printf("[CodecService] Start: %v", err)
		return "", userError(err)
	}

	if s.config != nil {
		if err := s.config.SetPreferences(string(jobReq.Operation), string(jobReq.Codec)); err != nil {
			s.logger.Printf("[CodecService] Start: failed to save preferences: %v", err)
		}
	}
	return jobID, nil
}

// GetStatus returns the in-flight or most recent job
func (s *CodecService) GetStatus() *core.JobSnapshot {
	return s.runner.LastJob()
}

// Codecs lists the codec names the frontend may offer
func (s *CodecService) Codecs() []string {
	names := make([]string, 0, len(codec.Codecs))
	for _, c := range codec.Codecs {
		names = append(names, string(c))
	}
	return names
}

// userError strips a PreconditionError down to its message for display
func userError(err error) error {
	var pe *core.PreconditionError
	if errors.As(err, &pe) {
		return errors.New(pe.Message)
	}
	return err
}

func (s *CodecService) onOutcome(outcome core.JobOutcome) {
	s.logger.Printf("[CodecService] onOutcome: job=%s succeeded=%v message=%q", outcome.JobID, outcome.Succeeded, outcome.Message)
	if s.ctx == nil {
		return
	}
	s.emit(s.ctx, EventJobOutcome, outcome)
}
