package app

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colorctl/pkg/command"
	"colorctl/pkg/config"
	"colorctl/pkg/nav"
	"colorctl/pkg/sender"
	"colorctl/pkg/serial"
)

func testConfig(variant command.Variant) *config.Config {
	return &config.Config{
		Serial: serial.SerialConfig{
			Port:     "/dev/ttyTEST0",
			BaudRate: 115200,
			DataBits: 8,
			StopBits: 1,
			Parity:   "none",
			Timeout:  10 * time.Millisecond,
			Driver:   serial.DriverBugst,
		},
		Menu:    config.MenuConfig{Variant: string(variant)},
		Log:     config.LogConfig{Level: "info", Format: "json", Output: "none"},
		History: config.HistoryConfig{MaxEntries: 10},
	}
}

// echoPort answers every line with "OK <line>\n"
func echoPort() *serial.MockSerialPort {
	mock := serial.NewMockSerialPort()
	mock.OnWrite = func(m *serial.MockSerialPort, data []byte) {
		m.Feed([]byte("OK " + strings.TrimSpace(string(data)) + "\n"))
	}
	return mock
}

func noSleep() sender.Options {
	return sender.Options{Sleep: func(time.Duration) {}}
}

func startApp(t *testing.T, variant command.Variant, port serial.SerialPort) (*Application, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	app, err := NewApplication(Options{
		Config: testConfig(variant),
		Screen: screen,
		Port:   port,
		Sender: noSleep(),
	})
	require.NoError(t, err)
	require.NoError(t, app.Start())
	t.Cleanup(app.Stop)
	return app, screen
}

func press(app *Application, k tcell.Key) {
	app.handleEvent(tcell.NewEventKey(k, 0, tcell.ModNone))
}

func typeText(app *Application, text string) {
	for _, r := range text {
		app.handleEvent(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func screenContains(screen tcell.SimulationScreen, text string) bool {
	cells, width, height := screen.GetContents()
	for y := 0; y < height; y++ {
		var row strings.Builder
		for x := 0; x < width; x++ {
			if r := cells[y*width+x].Runes; len(r) > 0 {
				row.WriteRune(r[0])
			} else {
				row.WriteRune(' ')
			}
		}
		if strings.Contains(row.String(), text) {
			return true
		}
	}
	return false
}

func TestApplication_SendAndBack(t *testing.T) {
	mock := echoPort()
	app, screen := startApp(t, command.VariantA, mock)
	assert.True(t, screenContains(screen, "WHITE"))
	assert.Equal(t, serial.StateOpen, app.LinkState())

	press(app, tcell.KeyEnter)
	assert.Equal(t, nav.ScreenOutput, app.State().Screen)
	assert.Equal(t, "Command sent: WHITE\n\nResponse:\nOK WHITE", app.State().Output)
	assert.Equal(t, "WHITE\n", string(mock.Written()))
	assert.True(t, screenContains(screen, "OK WHITE"))

	press(app, tcell.KeyEscape)
	assert.Equal(t, nav.ScreenMenu, app.State().Screen)
	assert.Equal(t, 0, mock.CloseCalls, "back from output must not touch the port")

	press(app, tcell.KeyDown)
	press(app, tcell.KeyEnter)
	assert.Equal(t, "WHITE\nPINK\n", string(mock.Written()))
	press(app, tcell.KeyBackspace2)

	press(app, tcell.KeyEscape)
	assert.Equal(t, nav.ScreenExited, app.State().Screen)
	assert.Equal(t, 1, mock.CloseCalls)
	assert.Equal(t, serial.StateClosed, app.LinkState())

	// nothing after exit reaches the port
	app.Dispatch(nav.BackPressed{})
	app.Stop()
	app.Stop()
	assert.Equal(t, 1, mock.CloseCalls)

	assert.Equal(t, 2, app.History().Len())
	summary := app.Session().Summary()
	assert.Equal(t, 2, summary.CommandsSent)
	assert.Equal(t, 2, summary.Replies)
	assert.Equal(t, int64(len("WHITE\nPINK\n")), summary.BytesSent)
	assert.False(t, app.Session().IsActive)
}

func TestApplication_NoResponse(t *testing.T) {
	mock := serial.NewMockSerialPort()
	app, _ := startApp(t, command.VariantA, mock)

	press(app, tcell.KeyEnter)
	assert.Equal(t, "Command sent: WHITE\n\nResponse:\n"+sender.NoResponseMessage, app.State().Output)
	assert.Equal(t, sender.DefaultMaxAttempts, mock.ReadCalls)

	summary := app.Session().Summary()
	assert.Equal(t, 1, summary.CommandsSent)
	assert.Equal(t, 0, summary.Replies)
}

func TestApplication_HexInput(t *testing.T) {
	mock := echoPort()
	app, screen := startApp(t, command.VariantB, mock)

	hexIndex := len(command.VariantB.Presets()) - 1
	app.Dispatch(nav.Selected{Index: hexIndex})
	require.Equal(t, nav.ScreenHexInput, app.State().Screen)
	assert.True(t, screenContains(screen, "Custom Color"))

	typeText(app, "ff15d8")
	press(app, tcell.KeyEnter)
	assert.Equal(t, nav.ScreenOutput, app.State().Screen)
	assert.Equal(t, "FF15D8\n", string(mock.Written()))
	assert.Equal(t, "Command sent: FF15D8\n\nResponse:\nOK FF15D8", app.State().Output)

	// back to the menu, reopen: the entry starts empty
	press(app, tcell.KeyEscape)
	app.Dispatch(nav.Selected{Index: hexIndex})
	typeText(app, "zz")
	press(app, tcell.KeyEnter)
	assert.Equal(t, nav.ScreenOutput, app.State().Screen)
	assert.Contains(t, app.State().Output, `"zz"`)
	assert.Equal(t, "FF15D8\n", string(mock.Written()), "invalid entry is never sent")

	press(app, tcell.KeyEscape)
	app.Dispatch(nav.Selected{Index: hexIndex})
	typeText(app, "12345g")
	press(app, tcell.KeyEnter)
	assert.Contains(t, app.State().Output, `"12345g"`)
	assert.True(t, errors.Is(hexErr(t, "12345g"), command.ErrHexChars))

	// Esc in the entry goes back without sending
	press(app, tcell.KeyEscape)
	app.Dispatch(nav.Selected{Index: hexIndex})
	press(app, tcell.KeyEscape)
	assert.Equal(t, nav.ScreenMenu, app.State().Screen)
	assert.Equal(t, 0, mock.CloseCalls)
}

func hexErr(t *testing.T, text string) error {
	t.Helper()
	_, err := command.ValidateHex(text)
	require.Error(t, err)
	return err
}

func TestApplication_CtrlCShutsDown(t *testing.T) {
	mock := echoPort()
	app, _ := startApp(t, command.VariantA, mock)

	press(app, tcell.KeyCtrlC)
	assert.Equal(t, nav.ScreenExited, app.State().Screen)
	assert.Equal(t, 1, mock.CloseCalls)
}

func TestApplication_RunInterrupt(t *testing.T) {
	mock := echoPort()
	app, _ := startApp(t, command.VariantA, mock)

	app.Interrupt()
	require.NoError(t, app.Run())
	assert.Equal(t, nav.ScreenExited, app.State().Screen)
	assert.Equal(t, 1, mock.CloseCalls)
}

func TestApplication_RunKeys(t *testing.T) {
	mock := echoPort()
	app, screen := startApp(t, command.VariantA, mock)

	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	require.NoError(t, app.Run())
	assert.Equal(t, "WHITE\n", string(mock.Written()))
	assert.Equal(t, 1, mock.CloseCalls)
}

func TestApplication_RunBeforeStart(t *testing.T) {
	app, err := NewApplication(Options{
		Config: testConfig(command.VariantA),
		Screen: tcell.NewSimulationScreen("UTF-8"),
		Port:   echoPort(),
	})
	require.NoError(t, err)
	assert.Error(t, app.Run())
}

func TestApplication_OpenFailure(t *testing.T) {
	mock := serial.NewMockSerialPort()
	mock.OpenErr = fmt.Errorf("device busy")

	app, err := NewApplication(Options{
		Config: testConfig(command.VariantA),
		Screen: tcell.NewSimulationScreen("UTF-8"),
		Port:   mock,
	})
	require.NoError(t, err)

	err = app.Start()
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrorSerial, appErr.Type)

	var serialErr *serial.SerialError
	assert.True(t, errors.As(err, &serialErr))
	assert.Contains(t, err.Error(), "device busy")
	assert.Equal(t, 0, mock.CloseCalls)
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	_, err := NewApplication(Options{})
	assert.Error(t, err)

	cfg := testConfig(command.VariantA)
	cfg.Serial.BaudRate = 1234
	_, err = NewApplication(Options{Config: cfg, Screen: tcell.NewSimulationScreen("")})

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrorConfig, appErr.Type)
}

func TestNewApplication_SimulatorPort(t *testing.T) {
	cfg := testConfig(command.VariantB)
	cfg.Simulate = true

	screen := tcell.NewSimulationScreen("UTF-8")
	app, err := NewApplication(Options{Config: cfg, Screen: screen, Sender: noSleep()})
	require.NoError(t, err)
	require.NoError(t, app.Start())
	defer app.Stop()

	assert.Equal(t, serial.SimulatorPortName, app.Session().Name)

	app.Dispatch(nav.Selected{Index: 0})
	assert.Equal(t, "Command sent: ON\n\nResponse:\nOK ON", app.State().Output)
}

// scriptedScreen injects keys as soon as it is initialized
type scriptedScreen struct {
	tcell.SimulationScreen
	keys []tcell.Key
}

func (s *scriptedScreen) Init() error {
	if err := s.SimulationScreen.Init(); err != nil {
		return err
	}
	for _, k := range s.keys {
		s.InjectKey(k, 0, tcell.ModNone)
	}
	return nil
}

func TestRunner_Summary(t *testing.T) {
	mock := echoPort()
	screen := &scriptedScreen{
		SimulationScreen: tcell.NewSimulationScreen("UTF-8"),
		keys:             []tcell.Key{tcell.KeyEnter, tcell.KeyEscape, tcell.KeyEscape},
	}

	var out bytes.Buffer
	runner := NewRunner(Options{
		Config: testConfig(command.VariantA),
		Screen: screen,
		Port:   mock,
		Sender: noSleep(),
	}, &out)

	require.NoError(t, runner.Run())
	assert.Equal(t, 1, mock.CloseCalls)

	summary := out.String()
	assert.Contains(t, summary, "=== Session Summary ===")
	assert.Contains(t, summary, "Port: /dev/ttyTEST0")
	assert.Contains(t, summary, "Commands Sent: 1")
	assert.Contains(t, summary, "Replies: 1")
	assert.Contains(t, summary, "Bytes Sent: 6")
	assert.Contains(t, summary, "Session: "+runner.App().Session().ID)
	assert.Contains(t, summary, "Responded: 1")
	assert.Contains(t, summary, "No Response: 0")
	assert.Contains(t, summary, "Time Waiting: ")
	assert.Contains(t, summary, "Last Exchange: WHITE -> OK WHITE")
	assert.NotContains(t, summary, "Dropped From History")
}

func TestRunner_SummarySilentPeripheral(t *testing.T) {
	mock := serial.NewMockSerialPort()
	screen := &scriptedScreen{
		SimulationScreen: tcell.NewSimulationScreen("UTF-8"),
		keys:             []tcell.Key{tcell.KeyEnter, tcell.KeyEscape, tcell.KeyEscape},
	}

	cfg := testConfig(command.VariantA)
	cfg.Simulate = true

	var out bytes.Buffer
	runner := NewRunner(Options{
		Config: cfg,
		Screen: screen,
		Port:   mock,
		Sender: sender.Options{MaxAttempts: 3, Sleep: func(time.Duration) {}},
	}, &out)

	require.NoError(t, runner.Run())

	summary := out.String()
	assert.Contains(t, summary, "Port: simulator")
	assert.Contains(t, summary, "Responded: 0")
	assert.Contains(t, summary, "No Response: 1")
	assert.Contains(t, summary, "Last Exchange: WHITE -> "+sender.NoResponseMessage)
}

func TestRunner_StartFailure(t *testing.T) {
	mock := serial.NewMockSerialPort()
	mock.OpenErr = fmt.Errorf("no such device")

	var out bytes.Buffer
	runner := NewRunner(Options{
		Config: testConfig(command.VariantA),
		Screen: tcell.NewSimulationScreen("UTF-8"),
		Port:   mock,
	}, &out)

	assert.Error(t, runner.Run())
	assert.Empty(t, out.String())
}

func TestRunOnce(t *testing.T) {
	cfg := testConfig(command.VariantA)
	cfg.Simulate = true

	result, err := RunOnce(Options{Config: cfg, Sender: noSleep()}, command.Pink)
	require.NoError(t, err)
	assert.Equal(t, "OK PINK", result.Response)

	result, err = RunOnce(Options{Config: cfg, Sender: noSleep()}, "BLUE")
	require.NoError(t, err)
	assert.Equal(t, "ERR", result.Response)
}

func TestRunOnce_ClosesPort(t *testing.T) {
	mock := echoPort()
	result, err := RunOnce(Options{Config: testConfig(command.VariantB), Port: mock, Sender: noSleep()}, command.Off)
	require.NoError(t, err)
	assert.Equal(t, "Command sent: OFF\n\nResponse:\nOK OFF", result.DisplayText())
	assert.Equal(t, 1, mock.CloseCalls)

	failing := serial.NewMockSerialPort()
	failing.OpenErr = fmt.Errorf("busy")
	_, err = RunOnce(Options{Config: testConfig(command.VariantB), Port: failing}, command.Off)
	assert.Error(t, err)

	_, err = RunOnce(Options{}, command.Off)
	assert.Error(t, err)
}

func TestSession_SummaryUsesSessionName(t *testing.T) {
	cfg := serial.DefaultConfig()
	cfg.Port = "/dev/ttyUSB0"
	s := NewSession(serial.SimulatorPortName, command.VariantA, cfg)

	assert.Equal(t, serial.SimulatorPortName, s.Summary().Port)
}

func TestSession(t *testing.T) {
	s := NewSession("/dev/ttyUSB0", command.VariantB, serial.DefaultConfig())

	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)
	require.NoError(t, s.Validate())
	assert.True(t, s.IsActive)

	s.RecordExchange(sender.Result{Command: command.On, Responded: true})
	s.RecordExchange(sender.Result{Command: command.Off})
	s.UpdateStats(7, 3)

	summary := s.Summary()
	assert.Equal(t, 2, summary.CommandsSent)
	assert.Equal(t, 1, summary.Replies)
	assert.Equal(t, int64(7), summary.BytesSent)
	assert.Equal(t, int64(3), summary.BytesRecv)

	s.End()
	first := *s.EndTime
	s.End()
	assert.Equal(t, first, *s.EndTime, "end time is set once")
	assert.False(t, s.IsActive)
	assert.Equal(t, first.Sub(s.StartTime), s.Duration())
}

func TestSession_Validate(t *testing.T) {
	valid := func() *Session {
		return NewSession("port", command.VariantA, serial.DefaultConfig())
	}
	before := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		mutate  func(s *Session)
		wantErr bool
	}{
		{"valid session", func(s *Session) {}, false},
		{"bad ID", func(s *Session) { s.ID = "session_123" }, true},
		{"empty name", func(s *Session) { s.Name = "" }, true},
		{"zero start time", func(s *Session) { s.StartTime = time.Time{} }, true},
		{"end before start", func(s *Session) { s.EndTime = &before }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			if tt.wantErr {
				assert.Error(t, s.Validate())
			} else {
				assert.NoError(t, s.Validate())
			}
		})
	}
}

func TestAppError(t *testing.T) {
	cause := errors.New("boom")
	err := NewAppError(ErrorScreen, "failed to initialize screen", cause)

	assert.Equal(t, "[screen] failed to initialize screen: boom", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "[config] no configuration", NewAppError(ErrorConfig, "no configuration", nil).Error())

	assert.Equal(t, "config", ErrorConfig.String())
	assert.Equal(t, "serial", ErrorSerial.String())
	assert.Equal(t, "unknown", ErrorType(42).String())
}
