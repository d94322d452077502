package modem_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"i4.energy/across/cellgw/modem"
)

// scriptInit answers the start-up sequence of Open.
func scriptInit(tr *modem.TestTransport) *modem.TestTransport {
	return tr.
		Reply("AT", "OK\r\n").
		Reply("ATE0", "OK\r\n").
		Reply("AT+CMEE=1", "OK\r\n").
		Reply("AT+CPIN?", "+CPIN: READY\r\nOK\r\n")
}

func testConfig(t *testing.T, dialer modem.Dialer, configure ...func(*modem.ConfigBuilder)) modem.Config {
	t.Helper()
	builder := modem.NewConfigBuilder().
		WithDialer(dialer).
		WithATTimeout(time.Second).
		WithSIMPoll(modem.PollConfig{Interval: time.Millisecond, MaxRetries: 3}).
		WithAttachPoll(modem.PollConfig{Interval: time.Millisecond, MaxRetries: 3})
	for _, fn := range configure {
		fn(builder)
	}
	config, err := builder.Build()
	require.NoError(t, err)
	return config
}

// openModem opens a modem over a scripted transport. script adds replies
// beyond the start-up sequence.
func openModem(t *testing.T, script func(*modem.TestTransport), configure ...func(*modem.ConfigBuilder)) (*modem.Modem, *modem.TestTransport) {
	t.Helper()
	tr := scriptInit(modem.NewTestTransport())
	if script != nil {
		script(tr)
	}
	dialer := &modem.TestDialer{New: func() *modem.TestTransport { return tr }}

	m, err := modem.New(testConfig(t, dialer, configure...))
	require.NoError(t, err)
	require.NoError(t, m.Open(context.Background()))
	t.Cleanup(func() {
		m.Close(context.Background())
	})
	return m, tr
}

// connectedSocket scripts creation and connection of socket 1 to
// 93.184.216.34:443.
func connectedSocket(tr *modem.TestTransport) {
	tr.Reply("AT+SQNSCFG=1,1,300,90,600,50", "OK\r\n").
		Reply("AT+SQNSCFGEXT=1,1,1,0,0,1", "OK\r\n").
		Reply(`AT+SQNSD=1,0,443,"93.184.216.34",0,0,1`, "OK\r\n")
}
