package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/core/ports"
)

const helpText = `Commands:
  upload <path>   reconcile an invoice file (runs in the background)
  report          show the tenant risk report
  pdf             download the tenant risk report as PDF
  xlsx <path>     write the current results to a spreadsheet
  state           print the session phase
  help            show this help
  quit            wait for running uploads and exit`

// Shell is the interactive front end of one reconciliation session. Each line
// read from the input is one command.
type Shell struct {
	session ports.UploadSession
	pdf     ports.ReportExporter
	reports ports.ReportViewer
	results ports.ResultsExporter

	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger

	readFile   func(path string) ([]byte, error)
	createFile func(path string) (io.WriteCloser, error)

	uploads sync.WaitGroup
}

type Options struct {
	Out    io.Writer
	Logger *slog.Logger
	// ReadFile and CreateFile default to the local filesystem.
	ReadFile   func(path string) ([]byte, error)
	CreateFile func(path string) (io.WriteCloser, error)
}

func NewShell(
	session ports.UploadSession,
	pdf ports.ReportExporter,
	reports ports.ReportViewer,
	results ports.ResultsExporter,
	opts Options,
) *Shell {
	s := &Shell{
		session:    session,
		pdf:        pdf,
		reports:    reports,
		results:    results,
		out:        opts.Out,
		logger:     opts.Logger,
		readFile:   opts.ReadFile,
		createFile: opts.CreateFile,
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.readFile == nil {
		s.readFile = os.ReadFile
	}
	if s.createFile == nil {
		s.createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }
	}
	return s
}

// Run reads commands until quit, EOF or ctx cancellation. Background uploads
// are awaited before it returns.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	defer s.uploads.Wait()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.printf("%s\n", helpText)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read commands: %w", err)
					}
				default:
				}
				return nil
			}
			if quit := s.dispatch(ctx, line); quit {
				return nil
			}
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	switch command {
	case "upload":
		if len(args) != 1 {
			s.printf("usage: upload <path>\n")
			return false
		}
		s.upload(ctx, args[0])
	case "report":
		s.logResult("report_json", s.reports.Show(ctx))
	case "pdf":
		s.logResult("report_pdf", s.pdf.Export(ctx))
	case "xlsx":
		if len(args) != 1 {
			s.printf("usage: xlsx <path>\n")
			return false
		}
		s.exportResults(ctx, args[0])
	case "state":
		state := s.session.State()
		switch state.Phase {
		case domain.PhaseUploading:
			s.printf("uploading %s\n", state.File)
		case domain.PhaseFailed:
			s.printf("failed: %s\n", state.Message)
		default:
			s.printf("%s\n", state.Phase)
		}
	case "help", "?":
		s.printf("%s\n", helpText)
	case "quit", "exit":
		return true
	default:
		s.printf("unknown command %q, type help\n", command)
	}
	return false
}

func (s *Shell) upload(ctx context.Context, path string) {
	data, err := s.readFile(path)
	if err != nil {
		s.printf("cannot read %s: %v\n", path, err)
		return
	}
	file := &domain.InvoiceFile{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	}

	s.uploads.Add(1)
	go func() {
		defer s.uploads.Done()
		err := s.session.Trigger(ctx, file)
		switch {
		case errors.Is(err, domain.ErrUploadInFlight):
			s.printf("An upload is already in progress.\n")
		case errors.Is(err, domain.ErrSuperseded):
			s.logger.Debug("upload_discarded", "file", file.Name)
		default:
			s.logResult("upload", err)
		}
	}()
}

func (s *Shell) exportResults(ctx context.Context, path string) {
	out, err := s.createFile(path)
	if err != nil {
		s.printf("cannot create %s: %v\n", path, err)
		return
	}
	err = s.results.Export(ctx, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	switch {
	case errors.Is(err, domain.ErrNoResults):
		s.printf("No results to export. Upload a file first.\n")
	case err != nil:
		s.printf("Export failed: %v\n", err)
	default:
		s.printf("Wrote results to %s\n", path)
	}
}

// logResult records command failures. The use cases already rendered them.
func (s *Shell) logResult(command string, err error) {
	if err != nil {
		s.logger.Debug("command_failed", "command", command, "error", err)
	}
}

func (s *Shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}
