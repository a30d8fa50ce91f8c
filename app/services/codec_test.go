package services

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"Cmprssr/internal/core"
	"Cmprssr/pkg/codec"
)

// recordedEvent is one captured runtime.EventsEmit call
type recordedEvent struct {
	name string
	data interface{}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
	got    chan struct{}
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{got: make(chan struct{}, 16)}
}

func (r *eventRecorder) emit(ctx context.Context, name string, data ...interface{}) {
	r.mu.Lock()
	var payload interface{}
	if len(data) > 0 {
		payload = data[0]
	}
	r.events = append(r.events, recordedEvent{name: name, data: payload})
	r.mu.Unlock()
	r.got <- struct{}{}
}

func (r *eventRecorder) named(name string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

func newTestCodecService(t *testing.T) (*CodecService, *core.Runner, *eventRecorder) {
	t.Helper()
	logger := log.New(os.Stderr, "[Test] ", log.LstdFlags)
	ctx := context.Background()

	recorder := newEventRecorder()
	emitter := NewWailsEmitter(ctx)
	emitter.emit = recorder.emit

	runner := core.NewRunner(codec.NewGateway(logger), logger, core.WithEmitter(emitter))
	service := NewCodecService(ctx, logger, runner)
	service.emit = recorder.emit
	return service, runner, recorder
}

func TestCodecService_StartCompress(t *testing.T) {
	service, runner, recorder := newTestCodecService(t)

	srcDir, outDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "report.txt")
	data := bytes.Repeat([]byte("cmprssr "), 125)
	if err := os.WriteFile(src, data, 0644); err != nil {
		t.Fatal(err)
	}

	jobID, err := service.Start(StartRequest{SourcePath: src, Mode: "compress", Codec: "lzma", DestinationFolder: outDir})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	runner.Wait()

	outcomes := recorder.named(EventJobOutcome)
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome event, got %d", len(outcomes))
	}
	outcome := outcomes[0].data.(core.JobOutcome)
	if !outcome.Succeeded || outcome.JobID != jobID || outcome.OutputPath != filepath.Join(outDir, "report.txt.xz") {
		t.Errorf("unexpected outcome %+v", outcome)
	}
	if outcome.Message != "Compression Complete!" {
		t.Errorf("unexpected message %q", outcome.Message)
	}

	updates := recorder.named(EventJobUpdate)
	if len(updates) != 2 {
		t.Fatalf("expected 2 update events, got %d", len(updates))
	}
	if state := updates[1].data.(core.JobUpdateEvent).State; state != core.JobCompleted {
		t.Errorf("expected completed update, got %s", state)
	}

	if status := service.GetStatus(); status == nil || status.JobID != jobID {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestCodecService_StartFailureEmitsOutcome(t *testing.T) {
	service, runner, recorder := newTestCodecService(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "notes.bz2")
	os.WriteFile(src, []byte("plain text"), 0644)

	if _, err := service.Start(StartRequest{SourcePath: src, Mode: "decompress", Codec: "bz2", DestinationFolder: t.TempDir()}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	runner.Wait()

	outcomes := recorder.named(EventJobOutcome)
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome event, got %d", len(outcomes))
	}
	if outcome := outcomes[0].data.(core.JobOutcome); outcome.Succeeded || outcome.Kind != "codec" {
		t.Errorf("expected codec failure, got %+v", outcome)
	}
}

func TestCodecService_StartPreconditions(t *testing.T) {
	service, runner, recorder := newTestCodecService(t)

	tests := []struct {
		req     StartRequest
		message string
	}{
		{StartRequest{Mode: "compress", Codec: "gzip", DestinationFolder: "/out"}, "Please select a file."},
		{StartRequest{SourcePath: "/in/a", Mode: "compress", DestinationFolder: "/out"}, "Please select a method."},
		{StartRequest{SourcePath: "/in/a", Mode: "compress", Codec: "gzip"}, "Please select a destination folder."},
	}

	for _, tt := range tests {
		_, err := service.Start(tt.req)
		if err == nil {
			t.Errorf("expected rejection for %+v", tt.req)
			continue
		}
		// The frontend shows err verbatim
		if err.Error() != tt.message {
			t.Errorf("expected %q, got %q", tt.message, err.Error())
		}
	}

	runner.Wait()
	select {
	case <-recorder.got:
		t.Error("no events should be emitted for rejected requests")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCodecService_StartSavesPreferences(t *testing.T) {
	service, runner, _ := newTestCodecService(t)
	config, err := NewConfigServiceAt(t.TempDir(), log.New(os.Stderr, "[Test] ", 0))
	if err != nil {
		t.Fatal(err)
	}
	service.SetConfig(config)

	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	os.WriteFile(src, []byte("abc"), 0644)

	if _, err := service.Start(StartRequest{SourcePath: src, Mode: "compress", Codec: "gz", DestinationFolder: dir}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	runner.Wait()

	if cfg := config.GetConfig(); cfg.Mode != "compress" || cfg.Codec != "gzip" {
		t.Errorf("preferences not saved: %+v", cfg)
	}
}

func TestCodecService_GetDefaults(t *testing.T) {
	configDir, destDir := t.TempDir(), t.TempDir()
	logger := log.New(os.Stderr, "[Test] ", 0)

	saved, err := NewConfigServiceAt(configDir, logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := saved.SetDestinationFolder(destDir); err != nil {
		t.Fatal(err)
	}
	if err := saved.SetPreferences("decompress", "bz2"); err != nil {
		t.Fatal(err)
	}

	// A fresh session reads the file back
	service, _, _ := newTestCodecService(t)
	if got := service.GetDefaults(); got != (Config{Mode: "compress"}) {
		t.Errorf("expected compress default without config, got %+v", got)
	}

	reloaded, err := NewConfigServiceAt(configDir, logger)
	if err != nil {
		t.Fatal(err)
	}
	service.SetConfig(reloaded)

	expected := Config{DestinationFolder: destDir, Mode: "decompress", Codec: "bz2"}
	if got := service.GetDefaults(); got != expected {
		t.Errorf("GetDefaults = %+v, expected %+v", got, expected)
	}
}

func TestCodecService_GetDefaultsDropsMissingFolder(t *testing.T) {
	service, _, _ := newTestCodecService(t)
	config, err := NewConfigServiceAt(t.TempDir(), log.New(os.Stderr, "[Test] ", 0))
	if err != nil {
		t.Fatal(err)
	}
	config.SetDestinationFolder(filepath.Join(t.TempDir(), "gone"))
	service.SetConfig(config)

	if got := service.GetDefaults(); got.DestinationFolder != "" {
		t.Errorf("expected missing folder to be dropped, got %q", got.DestinationFolder)
	}
}

func TestCodecService_StartSurvivesUnwritableConfig(t *testing.T) {
	service, runner, recorder := newTestCodecService(t)
	configDir := t.TempDir()
	config, err := NewConfigServiceAt(configDir, log.New(os.Stderr, "[Test] ", 0))
	if err != nil {
		t.Fatal(err)
	}
	// A directory in place of config.json makes every save fail
	if err := os.Mkdir(filepath.Join(configDir, "config.json"), 0755); err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	service.logger = log.New(&logs, "", 0)
	service.SetConfig(config)

	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	os.WriteFile(src, []byte("abc"), 0644)

	if _, err := service.Start(StartRequest{SourcePath: src, Mode: "compress", Codec: "lzma", DestinationFolder: dir}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	runner.Wait()
	<-recorder.got

	if !bytes.Contains(logs.Bytes(), []byte("[CodecService] Start: failed to save preferences")) {
		t.Errorf("save failure not logged: %q", logs.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "a.txt.xz")); err != nil {
		t.Errorf("job should still run: %v", err)
	}
}

func TestCodecService_DetectCodec(t *testing.T) {
	service, _, _ := newTestCodecService(t)

	tests := map[string]string{
		"/a/b.gz":  "gzip",
		"/a/b.xz":  "lzma",
		"/a/b.bz2": "bz2",
		"/a/b.txt": "",
	}
	for path, expected := range tests {
		if got := service.DetectCodec(path); got != expected {
			t.Errorf("DetectCodec(%q) = %q, expected %q", path, got, expected)
		}
	}

	if codecs := service.Codecs(); len(codecs) != 3 || codecs[0] != "gzip" {
		t.Errorf("unexpected codec list %v", codecs)
	}
}

func TestWailsEmitter_NilContext(t *testing.T) {
	emitter := &WailsEmitter{emit: func(context.Context, string, ...interface{}) {
		t.Error("emit should not be called without a context")
	}}
	emitter.EmitJobUpdate(core.JobUpdateEvent{JobID: "x"})
}
