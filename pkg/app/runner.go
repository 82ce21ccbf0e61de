package app

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"colorctl/pkg/command"
	"colorctl/pkg/sender"
	"colorctl/pkg/serial"
)

// Runner runs the interactive application and reports the session afterwards
type Runner struct {
	app  *Application
	opts Options
	out  io.Writer
}

// NewRunner creates a new application runner writing its summary to out
func NewRunner(opts Options, out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{opts: opts, out: out}
}

// Run starts the application and blocks until it's stopped.
// SIGINT and SIGTERM take the same shutdown path as backing out of the menu.
func (r *Runner) Run() error {
	app, err := NewApplication(r.opts)
	if err != nil {
		return err
	}
	r.app = app

	if err := app.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigChan:
			app.Interrupt()
		case <-done:
		}
	}()

	runErr := app.Run()
	app.Stop()

	r.printSessionSummary()
	return runErr
}

// App returns the application of the last Run
func (r *Runner) App() *Application {
	return r.app
}

// printSessionSummary prints a summary of the session
func (r *Runner) printSessionSummary() {
	if r.app == nil || r.app.Session() == nil {
		return
	}

	s := r.app.Session().Summary()

	fmt.Fprintf(r.out, "\n=== Session Summary ===\n")
	fmt.Fprintf(r.out, "Session: %s\n", s.ID)
	fmt.Fprintf(r.out, "Port: %s\n", s.Port)
	fmt.Fprintf(r.out, "Duration: %v\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.out, "Commands Sent: %d\n", s.CommandsSent)
	fmt.Fprintf(r.out, "Replies: %d\n", s.Replies)
	fmt.Fprintf(r.out, "Bytes Sent: %d\n", s.BytesSent)
	fmt.Fprintf(r.out, "Bytes Received: %d\n", s.BytesRecv)

	stats := r.app.History().Stats()
	fmt.Fprintf(r.out, "Responded: %d\n", stats.Responded)
	fmt.Fprintf(r.out, "No Response: %d\n", stats.NoResponse)
	if stats.Dropped > 0 {
		fmt.Fprintf(r.out, "Dropped From History: %d\n", stats.Dropped)
	}
	fmt.Fprintf(r.out, "Time Waiting: %v\n", stats.TotalElapsed.Round(time.Millisecond))
	if last, ok := r.app.History().Last(); ok {
		response := last.Response
		if response == "" {
			response = sender.NoResponseMessage
		}
		fmt.Fprintf(r.out, "Last Exchange: %s -> %s\n", last.Command, response)
	}
	fmt.Fprintf(r.out, "=======================\n")
}

// RunOnce opens the link, performs a single exchange without a UI and closes the link
func RunOnce(opts Options, cmd command.Command) (sender.Result, error) {
	if opts.Config == nil {
		return sender.Result{}, NewAppError(ErrorConfig, "no configuration", nil)
	}
	cfg := *opts.Config
	if err := cfg.Serial.Validate(); err != nil {
		return sender.Result{}, NewAppError(ErrorConfig, "invalid serial config", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	port := opts.Port
	if port == nil {
		var err error
		port, err = newPort(cfg)
		if err != nil {
			return sender.Result{}, NewAppError(ErrorSerial, "failed to create serial port", err)
		}
	}

	link := serial.NewLink(port, logger.Named("serial"))
	if err := link.Open(cfg.Serial); err != nil {
		return sender.Result{}, openError(cfg.Serial.Port, err)
	}
	defer func() { _ = link.Shutdown() }()

	s := sender.New(link, nil, logger.Named("sender"), opts.Sender)
	return s.Send(cmd), nil
}
