package core

import (
	"fmt"
	"strings"

	"Cmprssr/pkg/codec"
)

// JobRequest describes one compress-or-decompress job.
// All four fields are required; see Validate.
type JobRequest struct {
	SourcePath        string      `json:"sourcePath"`
	Operation         codec.Op    `json:"operation"`
	Codec             codec.Codec `json:"codec"`
	DestinationFolder string      `json:"destinationFolder"`
}

// PreconditionError reports a JobRequest that cannot be submitted.
// It is returned synchronously by Runner.Submit and never through a sink.
type PreconditionError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("invalid job request (%s): %s", e.Field, e.Message)
}

// Validate checks that every field is populated and recognised.
// Whether the paths exist is left to the gateway.
func (r JobRequest) Validate() error {
	if strings.TrimSpace(r.SourcePath) == "" {
		return &PreconditionError{Field: "sourcePath", Message: "Please select a file."}
	}
	if r.Operation != codec.OpCompress && r.Operation != codec.OpDecompress {
		return &PreconditionError{Field: "operation", Message: "Please select a mode."}
	}
	if !r.Codec.Valid() {
		return &PreconditionError{Field: "codec", Message: "Please select a method."}
	}
	if strings.TrimSpace(r.DestinationFolder) == "" {
		return &PreconditionError{Field: "destinationFolder", Message: "Please select a destination folder."}
	}
	return nil
}

// ParseRequest builds a JobRequest from driver input strings.
// Unknown mode or codec names become a PreconditionError on that field.
func ParseRequest(sourcePath, mode, codecName, destinationFolder string) (JobRequest, error) {
	req := JobRequest{
		SourcePath:        sourcePath,
		DestinationFolder: destinationFolder,
	}

	if mode != "" {
		op, err := codec.ParseOp(mode)
		if err != nil {
			return req, &PreconditionError{Field: "operation", Message: err.Error()}
		}
		req.Operation = op
	}

	if codecName != "" {
		c, err := codec.ParseCodec(codecName)
		if err != nil {
			return req, &PreconditionError{Field: "codec", Message: err.Error()}
		}
		req.Codec = c
	}

	return req, req.Validate()
}

func (r JobRequest) params() map[string]string {
	return map[string]string{
		"sourcePath":        r.SourcePath,
		"operation":         string(r.Operation),
		"codec":             string(r.Codec),
		"destinationFolder": r.DestinationFolder,
	}
}
