package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colorctl/pkg/command"
)

func knownForTest(cmd string) bool {
	return cmd == "WHITE" || cmd == "PINK"
}

func openSimulator(t *testing.T) (*Simulator, *[]time.Duration) {
	t.Helper()
	var slept []time.Duration
	sim := NewSimulator(knownForTest)
	sim.LineEnding = "\r\n"
	sim.Sleep = func(d time.Duration) { slept = append(slept, d) }
	require.NoError(t, sim.Open(DefaultConfig()))
	return sim, &slept
}

func drain(t *testing.T, sim *Simulator) string {
	t.Helper()
	var out []byte
	for {
		b, err := sim.ReadBytes(1, time.Millisecond)
		require.NoError(t, err)
		if len(b) == 0 {
			return string(out)
		}
		out = append(out, b...)
	}
}

func TestSimulator_Replies(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"known command", "WHITE\n", "OK WHITE\r\n"},
		{"lowercase and padding", "  pink \n", "OK PINK\r\n"},
		{"carriage return ends the line", "WHITE\r", "OK WHITE\r\n"},
		{"unknown command", "PURPLE\n", "ERR\r\n"},
		{"blank line is silent", "   \n", ""},
		{"crlf gives one reply", "PINK\r\n", "OK PINK\r\n"},
		{"two lines", "WHITE\nPINK\n", "OK WHITE\r\nOK PINK\r\n"},
		{"unterminated line waits", "WHITE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, _ := openSimulator(t)

			n, err := sim.Write([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)
			assert.Equal(t, tt.want, drain(t, sim))
		})
	}
}

func TestSimulator_AnswersBothVariants(t *testing.T) {
	sim := NewSimulator(command.IsKnown)
	sim.Sleep = func(time.Duration) {}
	require.NoError(t, sim.Open(DefaultConfig()))

	tests := []struct {
		input string
		want  string
	}{
		{"WHITE\n", "OK WHITE\n"},
		{"pink\n", "OK PINK\n"},
		{"ON\n", "OK ON\n"},
		{"off\n", "OK OFF\n"},
		{"FF15D8\n", "OK FF15D8\n"},
		{"ff15d8\n", "OK FF15D8\n"},
		{"FF15D\n", "ERR\n"},
		{"BLUE\n", "ERR\n"},
	}

	for _, tt := range tests {
		_, err := sim.Write([]byte(tt.input))
		require.NoError(t, err)
		assert.Equal(t, tt.want, drain(t, sim), "input %q", tt.input)
	}
}

func TestSimulator_LineSplitAcrossWrites(t *testing.T) {
	sim, _ := openSimulator(t)

	_, err := sim.Write([]byte("WH"))
	require.NoError(t, err)
	assert.Empty(t, drain(t, sim))

	_, err = sim.Write([]byte("ITE\n"))
	require.NoError(t, err)
	assert.Equal(t, "OK WHITE\r\n", drain(t, sim))
}

func TestSimulator_IdleReadWaitsTimeout(t *testing.T) {
	sim, slept := openSimulator(t)

	data, err := sim.ReadBytes(1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, *slept)
}

func TestSimulator_NilKnownRejectsEverything(t *testing.T) {
	sim := NewSimulator(nil)
	sim.Sleep = nil
	require.NoError(t, sim.Open(SerialConfig{}))

	_, err := sim.Write([]byte("WHITE\n"))
	require.NoError(t, err)
	assert.Equal(t, "ERR\n", drain(t, sim), "replies end in a bare LF by default")
	assert.Equal(t, SimulatorPortName, sim.GetConfig().Port)
}

func TestSimulator_Lifecycle(t *testing.T) {
	sim := NewSimulator(knownForTest)
	assert.False(t, sim.IsOpen())

	_, err := sim.Write([]byte("WHITE\n"))
	assert.Error(t, err)
	_, err = sim.ReadBytes(1, 0)
	assert.Error(t, err)
	assert.Error(t, sim.Close())

	require.NoError(t, sim.Open(DefaultConfig()))
	assert.True(t, sim.IsOpen())
	assert.Error(t, sim.Open(DefaultConfig()))

	_, err = sim.Write([]byte("PINK\n"))
	require.NoError(t, err)
	require.NoError(t, sim.Close())
	assert.False(t, sim.IsOpen())

	// pending replies do not survive a reopen
	require.NoError(t, sim.Open(DefaultConfig()))
	data, err := sim.ReadBytes(1, 0)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSimulator_ImplementsSerialPort(t *testing.T) {
	var _ SerialPort = NewSimulator(nil)
	var _ SerialPort = NewMockSerialPort()
	var _ SerialPort = NewCrossPlatformSerialPort()
}
