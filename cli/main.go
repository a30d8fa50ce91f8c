package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"Cmprssr/internal/core"
	"Cmprssr/pkg/codec"
)

const (
	exitOK      = 0
	exitFailure = 1 // IOFailure or CodecFailure
	exitUsage   = 2 // bad flags or PreconditionError
)

type options struct {
	sourcePath string
	destPath   string
	mode       string
	codecName  string
	jsonOutput bool
	verbose    bool
}

func parseArgs(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("cmprssr-cli", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.sourcePath, "source", "", "File to compress or decompress")
	fs.StringVar(&opts.destPath, "dest", "", "Destination folder")
	fs.StringVar(&opts.mode, "mode", "compress", "Mode: 'compress' or 'decompress'")
	fs.StringVar(&opts.codecName, "codec", "", "Codec: 'gzip', 'lzma' or 'bz2' (detected from the extension when decompressing)")
	fs.BoolVar(&opts.jsonOutput, "json", false, "Output machine-readable JSON (one event per line)")
	fs.BoolVar(&opts.verbose, "v", false, "Log diagnostics to stderr")
	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: cmprssr-cli -mode <compress|decompress> -codec <gzip|lzma|bz2> -source <file> -dest <dir> [-json]\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	// Codec autodetection is a convenience for decompress only.
	if op, _ := codec.ParseOp(opts.mode); opts.codecName == "" && op == codec.OpDecompress {
		if c, ok := codec.DetectCodec(opts.sourcePath); ok {
			opts.codecName = string(c)
		}
	}
	return opts, nil
}

func main() {
	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes one job and returns the process exit code
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	opts, err := parseArgs(args, errOut)
	if err != nil {
		return exitUsage
	}

	var reporter Reporter
	if opts.jsonOutput {
		reporter = NewJSONReporter(out)
	} else {
		reporter = NewConsoleReporter(out, errOut)
	}

	logOut := io.Discard
	if opts.verbose {
		logOut = errOut
	}
	logger := log.New(logOut, "[Cmprssr] ", log.LstdFlags|log.Lshortfile)

	req, err := core.ParseRequest(opts.sourcePath, opts.mode, opts.codecName, opts.destPath)
	if err != nil {
		reporter.ReportError(err)
		return exitUsage
	}

	runner := core.NewRunner(codec.NewGateway(logger), logger, core.WithContext(ctx), core.WithEmitter(reporter))
	outcomes := make(core.ChanSink, 1)

	reporter.ReportStart(req)
	if _, err := runner.Submit(req, outcomes); err != nil {
		reporter.ReportError(err)
		var pe *core.PreconditionError
		if errors.As(err, &pe) {
			return exitUsage
		}
		return exitFailure
	}

	outcome := <-outcomes
	runner.Wait()
	reporter.Notify(outcome)

	if !outcome.Succeeded {
		return exitFailure
	}
	return exitOK
}
