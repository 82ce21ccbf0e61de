// Package sender writes a command line to the peripheral and polls for its one-line reply
package sender

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"colorctl/pkg/command"
	"colorctl/pkg/history"
)

// Polling constants. A silent peripheral blocks the caller for about 2 s when the
// driver honours the read timeout. Drivers that round it up (tarm waits at least
// 100 ms per read) are cut off by the deadline instead, at
// DefaultMaxAttempts * (DefaultReadTimeout + DefaultPollDelay) = 4 s.
const (
	DefaultMaxAttempts = 200
	DefaultReadTimeout = 10 * time.Millisecond
	DefaultPollDelay   = 10 * time.Millisecond
	MaxResponseLength  = 200
)

// NoResponseMessage replaces an empty reply in the display text
const NoResponseMessage = "No response received from peripheral device"

// Transport is the part of the serial link the sender needs
type Transport interface {
	Write(data []byte) (int, error)
	ReadBytes(n int, timeout time.Duration) ([]byte, error)
}

// Options tune the polling loop; zero values take the defaults
type Options struct {
	MaxAttempts       int
	ReadTimeout       time.Duration
	PollDelay         time.Duration
	MaxResponseLength int
	// Deadline bounds one exchange in wall-clock time;
	// zero means MaxAttempts * (ReadTimeout + PollDelay)
	Deadline time.Duration

	// Sleep and Now are replaced in tests
	Sleep func(time.Duration)
	Now   func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.PollDelay <= 0 {
		o.PollDelay = DefaultPollDelay
	}
	if o.MaxResponseLength <= 0 {
		o.MaxResponseLength = MaxResponseLength
	}
	if o.Deadline <= 0 {
		o.Deadline = time.Duration(o.MaxAttempts) * (o.ReadTimeout + o.PollDelay)
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Result is the outcome of one exchange
type Result struct {
	Command command.Command
	// Response is the reply line without its terminator, possibly empty
	Response string
	// Responded is true when at least one byte arrived
	Responded bool
	Attempts  int
	Elapsed   time.Duration
	// Expired is true when the deadline ended the poll before the attempt budget
	Expired bool
}

// ResponseText is the reply, or NoResponseMessage when the reply is empty
func (r Result) ResponseText() string {
	if r.Response == "" {
		return NoResponseMessage
	}
	return r.Response
}

// DisplayText is the text shown in the output view
func (r Result) DisplayText() string {
	return FormatDisplay(r.Command, r.ResponseText())
}

// FormatDisplay renders the output view text for a command and its response
func FormatDisplay(cmd command.Command, response string) string {
	return "Command sent: " + cmd.String() + "\n\nResponse:\n" + response
}

// Sender performs synchronous command/response exchanges over a transport
type Sender struct {
	transport Transport
	recorder  history.Recorder
	logger    *zap.Logger
	opts      Options
}

// New creates a sender. recorder and logger may be nil.
func New(transport Transport, recorder history.Recorder, logger *zap.Logger, opts Options) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		transport: transport,
		recorder:  recorder,
		logger:    logger,
		opts:      opts.withDefaults(),
	}
}

// SendCommandAndRead sends cmd and returns the display text for the output view
func (s *Sender) SendCommandAndRead(cmd command.Command) string {
	return s.Send(cmd).DisplayText()
}

// Send writes cmd followed by a line feed, then polls one byte at a time for the reply.
// Polling stops at a LF or CR (not kept), at MaxResponseLength characters, or when the
// attempt budget or the deadline runs out. Transport errors are logged and treated like a silent line.
func (s *Sender) Send(cmd command.Command) Result {
	start := s.opts.Now()
	result := Result{Command: cmd}

	if _, err := s.transport.Write(cmd.Line()); err != nil {
		s.logger.Warn("write failed", zap.String("command", cmd.String()), zap.Error(err))
	}

	var (
		response  strings.Builder
		length    int
		readErrs  int
		lastErr   error
		completed bool
	)

	for result.Attempts < s.opts.MaxAttempts {
		data, err := s.transport.ReadBytes(1, s.opts.ReadTimeout)
		result.Attempts++
		if err != nil {
			readErrs++
			lastErr = err
		}

		for _, b := range data {
			result.Responded = true
			if b == '\n' || b == '\r' {
				completed = true
				break
			}
			response.WriteRune(rune(b))
			length++
			if length >= s.opts.MaxResponseLength {
				completed = true
				break
			}
		}

		if completed {
			break
		}
		s.opts.Sleep(s.opts.PollDelay)

		if s.opts.Now().Sub(start) >= s.opts.Deadline {
			result.Expired = result.Attempts < s.opts.MaxAttempts
			break
		}
	}

	result.Response = response.String()
	result.Elapsed = s.opts.Now().Sub(start)

	if result.Expired {
		s.logger.Warn("reply deadline reached",
			zap.String("command", cmd.String()),
			zap.Int("attempts", result.Attempts),
			zap.Duration("deadline", s.opts.Deadline))
	}

	if readErrs > 0 {
		s.logger.Warn("read errors while polling",
			zap.String("command", cmd.String()),
			zap.Int("errors", readErrs),
			zap.Error(lastErr))
	}

	s.logger.Info("exchange",
		zap.String("command", cmd.String()),
		zap.String("response", result.Response),
		zap.Bool("responded", result.Responded),
		zap.Int("attempts", result.Attempts),
		zap.Duration("elapsed", result.Elapsed))

	if s.recorder != nil {
		err := s.recorder.Record(history.Exchange{
			Timestamp: start,
			Command:   cmd.String(),
			Response:  result.Response,
			Responded: result.Responded,
			Elapsed:   result.Elapsed,
		})
		if err != nil {
			s.logger.Debug("history record rejected", zap.Error(err))
		}
	}

	return result
}
