package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"Cmprssr/internal/core"
)

// Reporter observes one CLI job: state changes, the outcome, and errors
// raised before the job could start.
type Reporter interface {
	core.JobEventEmitter
	core.NotifySink
	ReportStart(req core.JobRequest)
	ReportError(err error)
}

// ConsoleReporter outputs human-readable progress to the terminal
type ConsoleReporter struct {
	out    io.Writer
	errOut io.Writer
}

func NewConsoleReporter(out, errOut io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out, errOut: errOut}
}

func (r *ConsoleReporter) ReportStart(req core.JobRequest) {
	fmt.Fprintf(r.out, "Cmprssr - %s (%s)\n", req.Operation, req.Codec)
	fmt.Fprintf(r.out, "Source: %s\n", req.SourcePath)
	fmt.Fprintf(r.out, "Dest: %s\n", req.DestinationFolder)
}

func (r *ConsoleReporter) EmitJobUpdate(event core.JobUpdateEvent) {
	if event.State == core.JobRunning {
		fmt.Fprintf(r.out, "%s\n", event.Message)
	}
}

func (r *ConsoleReporter) Notify(outcome core.JobOutcome) {
	if outcome.Succeeded {
		fmt.Fprintf(r.out, "%s\n", outcome.Message)
		fmt.Fprintf(r.out, "Output: %s\n", outcome.OutputPath)
		return
	}
	fmt.Fprintf(r.errOut, "Error: %s\n", outcome.Message)
}

func (r *ConsoleReporter) ReportError(err error) {
	fmt.Fprintf(r.errOut, "Error: %v\n", err)
}

// JSONEvent is the structured event format for machine-readable output
type JSONEvent struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// JSONErrorData contains error information in structured form
type JSONErrorData struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// JSONReporter outputs machine-readable JSON lines for scripting/automation
type JSONReporter struct {
	encoder *json.Encoder
}

func NewJSONReporter(out io.Writer) *JSONReporter {
	return &JSONReporter{
		encoder: json.NewEncoder(out),
	}
}

func (r *JSONReporter) emit(eventType string, data interface{}) {
	event := JSONEvent{
		Type:      eventType,
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Data:      data,
	}
	r.encoder.Encode(event)
}

func (r *JSONReporter) ReportStart(req core.JobRequest) {
	r.emit("start", req)
}

func (r *JSONReporter) EmitJobUpdate(event core.JobUpdateEvent) {
	r.emit("update", event)
}

func (r *JSONReporter) Notify(outcome core.JobOutcome) {
	r.emit("complete", outcome)
}

func (r *JSONReporter) ReportError(err error) {
	data := JSONErrorData{Message: err.Error()}
	if pe, ok := err.(*core.PreconditionError); ok {
		data.Field = pe.Field
		data.Message = pe.Message
	}
	r.emit("error", data)
}
