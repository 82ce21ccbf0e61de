// Package app provides the main application controller
package app

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"colorctl/pkg/command"
	"colorctl/pkg/config"
	"colorctl/pkg/history"
	"colorctl/pkg/menu"
	"colorctl/pkg/nav"
	"colorctl/pkg/sender"
	"colorctl/pkg/serial"
	"colorctl/pkg/ui"
)

// Options carries the collaborators of an Application; nil fields get production defaults
type Options struct {
	Config *config.Config
	Logger *zap.Logger
	// Screen defaults to the terminal
	Screen tcell.Screen
	// Port defaults to the simulator or the configured driver
	Port   serial.SerialPort
	Sender sender.Options
}

// Application represents the main application controller.
// All screen updates and port I/O happen on the goroutine that calls Run.
type Application struct {
	screen     tcell.Screen
	link       *serial.Link
	sender     *sender.Sender
	history    *history.MemoryHistory
	controller *nav.Controller
	state      nav.State

	menu     *menu.Menu
	output   *ui.OutputView
	hexInput *ui.HexInputView

	session *Session
	config  config.Config
	logger  *zap.Logger

	screenReady bool
}

// shutdownRequest is the payload of the interrupt event posted by Interrupt
type shutdownRequest struct{}

// NewApplication creates a new application instance
func NewApplication(opts Options) (*Application, error) {
	if opts.Config == nil {
		return nil, NewAppError(ErrorConfig, "no configuration", nil)
	}
	cfg := *opts.Config

	if err := cfg.Validate(); err != nil {
		return nil, NewAppError(ErrorConfig, "invalid configuration", err)
	}

	presets, err := cfg.Presets()
	if err != nil {
		return nil, NewAppError(ErrorConfig, "invalid menu presets", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	port := opts.Port
	if port == nil {
		port, err = newPort(cfg)
		if err != nil {
			return nil, NewAppError(ErrorSerial, "failed to create serial port", err)
		}
	}

	screen := opts.Screen
	if screen == nil {
		screen, err = tcell.NewScreen()
		if err != nil {
			return nil, NewAppError(ErrorScreen, "failed to create screen", err)
		}
	}

	link := serial.NewLink(port, logger.Named("serial"))
	hist := history.NewMemoryHistory(cfg.History.MaxEntries)

	app := &Application{
		screen:     screen,
		link:       link,
		history:    hist,
		sender:     sender.New(link, hist, logger.Named("sender"), opts.Sender),
		controller: nav.NewController(presets),
		state:      nav.Initial(),
		menu:       menu.NewMenu(cfg.Variant().Title(), presets),
		output:     ui.NewOutputView("Response"),
		hexInput:   ui.NewHexInputView(),
		config:     cfg,
		logger:     logger,
	}

	return app, nil
}

// newPort picks the transport for the configuration
func newPort(cfg config.Config) (serial.SerialPort, error) {
	if cfg.Simulate {
		return serial.NewSimulator(command.IsKnown), nil
	}
	return serial.NewSerialPort(cfg.Serial.Driver)
}

// openError wraps a port open failure, keeping an existing SerialError as is
func openError(port string, err error) error {
	var serialErr *serial.SerialError
	if !errors.As(err, &serialErr) {
		err = serial.NewSerialError("open", port, err)
	}
	return NewAppError(ErrorSerial, "failed to open serial port", err)
}

// Start opens the serial link, then takes over the terminal and draws the menu
func (app *Application) Start() error {
	if err := app.link.Open(app.config.Serial); err != nil {
		return openError(app.config.Serial.Port, err)
	}

	if err := app.screen.Init(); err != nil {
		_ = app.link.Shutdown()
		return NewAppError(ErrorScreen, "failed to initialize screen", err)
	}
	app.screenReady = true

	// Use default terminal colors instead of forcing black background
	app.screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorReset).
		Foreground(tcell.ColorReset))
	app.screen.Clear()

	name := app.config.Serial.Port
	if app.config.Simulate {
		name = serial.SimulatorPortName
	}
	app.session = NewSession(name, app.config.Variant(), app.config.Serial)
	app.menu.SetFooter(fmt.Sprintf("%s %s  Esc: quit", name, app.config.Serial.Settings()))

	app.logger.Info("session started",
		zap.String("session", app.session.ID),
		zap.String("port", name),
		zap.String("variant", string(app.session.Variant)),
		zap.Bool("simulate", app.config.Simulate))

	app.render()
	return nil
}

// Run processes terminal events until the user backs out of the menu or Interrupt is called
func (app *Application) Run() error {
	if !app.screenReady {
		return fmt.Errorf("application is not started")
	}

	for app.state.Screen != nav.ScreenExited {
		ev := app.screen.PollEvent()
		if ev == nil {
			app.shutdown("screen closed")
			break
		}
		app.handleEvent(ev)
	}

	return nil
}

// Stop releases the terminal and closes the link if it is still open. Safe to call repeatedly.
func (app *Application) Stop() {
	if app.state.Screen != nav.ScreenExited {
		app.shutdown("stop")
	}

	if app.screenReady {
		app.screen.Fini()
		app.screenReady = false
	}
}

// Interrupt asks the event loop to shut down. Safe to call from any goroutine.
func (app *Application) Interrupt() {
	_ = app.screen.PostEvent(tcell.NewEventInterrupt(shutdownRequest{}))
}

// Dispatch runs one navigation event through the state machine and performs its effect
func (app *Application) Dispatch(ev nav.Event) {
	prev := app.state.Screen
	next, effect := app.controller.Update(app.state, ev)
	app.state = next

	if next.Screen == nav.ScreenHexInput && prev != nav.ScreenHexInput {
		app.hexInput.Reset()
	}

	switch e := effect.(type) {
	case nav.SendCommand:
		// show the pending text while the poll blocks
		app.render()
		result := app.sender.Send(e.Command)
		if app.session != nil {
			app.session.RecordExchange(result)
			app.session.UpdateStats(app.link.Stats())
		}
		app.state, _ = app.controller.Update(app.state, nav.ResponseReceived{Text: result.DisplayText()})
	case nav.Shutdown:
		app.shutdown("back from menu")
		return
	}

	app.render()
}

// handleEvent routes one tcell event
func (app *Application) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		app.handleKeyEvent(ev)
	case *tcell.EventResize:
		app.screen.Sync()
		app.render()
	case *tcell.EventInterrupt:
		if _, ok := ev.Data().(shutdownRequest); ok {
			app.shutdown("interrupt")
		}
	}
}

// handleKeyEvent hands the key to the view of the current screen
func (app *Application) handleKeyEvent(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		app.shutdown("ctrl-c")
		return
	}

	var (
		event nav.Event
		ok    bool
	)
	switch app.state.Screen {
	case nav.ScreenMenu:
		event, ok = app.menu.HandleKey(ev)
	case nav.ScreenOutput:
		event, ok = app.output.HandleKey(ev)
	case nav.ScreenHexInput:
		event, ok = app.hexInput.HandleKey(ev)
	}

	if ok {
		app.Dispatch(event)
		return
	}
	app.render()
}

// shutdown closes the link once and moves to the exited state
func (app *Application) shutdown(reason string) {
	app.state = nav.State{Screen: nav.ScreenExited}

	if err := app.link.Shutdown(); err != nil {
		app.logger.Warn("closing link", zap.Error(err))
	}

	if app.session != nil {
		app.session.UpdateStats(app.link.Stats())
		app.session.End()
		summary := app.session.Summary()
		app.logger.Info("session ended",
			zap.String("session", summary.ID),
			zap.String("reason", reason),
			zap.Int("commands", summary.CommandsSent),
			zap.Int("replies", summary.Replies),
			zap.Duration("duration", summary.Duration))
	}
}

// render draws the view for the current screen
func (app *Application) render() {
	if !app.screenReady {
		return
	}

	switch app.state.Screen {
	case nav.ScreenMenu:
		app.menu.Draw(app.screen)
	case nav.ScreenOutput:
		app.output.SetText(app.state.Output)
		app.output.Draw(app.screen)
	case nav.ScreenHexInput:
		app.hexInput.Draw(app.screen)
	}
}

// State returns the navigation state
func (app *Application) State() nav.State {
	return app.state
}

// Session returns the current session, nil before Start
func (app *Application) Session() *Session {
	return app.session
}

// History returns the exchanges of this run
func (app *Application) History() *history.MemoryHistory {
	return app.history
}

// LinkState returns the serial link lifecycle state
func (app *Application) LinkState() serial.ConnectionState {
	return app.link.State()
}
