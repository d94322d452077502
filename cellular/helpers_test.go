package cellular_test

import (
	"context"
	"net/netip"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"i4.energy/across/cellgw/cellular"
)

var testAddr = netip.MustParseAddr("93.184.216.34")

// recorder is an Observer that keeps every event for later assertions.
type recorder struct {
	mu       sync.Mutex
	attempts []error
	resets   []cellular.ErrorCode
	handled  []cellular.Decision
	closed   map[int]bool
	delays   []time.Duration
}

func newRecorder() *recorder {
	return &recorder{closed: make(map[int]bool)}
}

func (r *recorder) ConnectAttempt(_ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, err)
}

func (r *recorder) HardwareReset(cause cellular.ErrorCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, cause)
}

func (r *recorder) ErrorHandled(_ cellular.Operation, _ cellular.ErrorCode, _ cellular.ErrorClass, d cellular.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = append(r.handled, d)
}

func (r *recorder) SocketClosed(socket int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed[socket] = ok
}

func (r *recorder) delay(_ context.Context, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
}

type fixture struct {
	driver *cellular.MockDriver
	link   *cellular.Link
	events *recorder
}

// newFixture builds a link over a mock driver. configure may adjust the
// builder before Build.
func newFixture(t *testing.T, configure ...func(*cellular.ConfigBuilder)) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	driver := cellular.NewMockDriver(ctrl)
	events := newRecorder()

	builder := cellular.NewConfigBuilder().
		WithObserver(events).
		WithDelay(events.delay)
	for _, fn := range configure {
		fn(builder)
	}
	config, err := builder.Build()
	require.NoError(t, err)

	link, err := cellular.New(driver, config)
	require.NoError(t, err)
	return &fixture{driver: driver, link: link, events: events}
}

// connected runs a successful attach so that tests start from LevelAttached.
func (f *fixture) connected(t *testing.T) *fixture {
	t.Helper()
	gomock.InOrder(expectConnect(f.driver)...)
	require.NoError(t, f.link.ConnectToNetwork(context.Background()))
	return f
}

// openSocket opens socket number n to example.com:443.
func (f *fixture) openSocket(t *testing.T, n int) *cellular.Socket {
	t.Helper()
	gomock.InOrder(
		f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(n, nil),
		f.driver.EXPECT().DNSQuery(gomock.Any(), "example.com", cellular.IPv4).Return(testAddr, nil),
		f.driver.EXPECT().ConnectSocket(gomock.Any(), n, testAddr, uint16(443)).Return(nil),
	)
	s, err := f.link.OpenTCP(context.Background(), "example.com", 443, time.Second, 2*time.Second)
	require.NoError(t, err)
	return s
}

func expectConnect(d *cellular.MockDriver) []any {
	return []any{
		d.EXPECT().Open(gomock.Any()).Return(nil),
		d.EXPECT().SetOperator(gomock.Any(), cellular.DefaultOperator).Return(nil),
		d.EXPECT().SetBands(gomock.Any(), cellular.DefaultBands).Return(nil),
		d.EXPECT().Attach(gomock.Any(), "").Return(nil),
	}
}

func expectAttachFailure(d *cellular.MockDriver, err error) []any {
	return []any{
		d.EXPECT().Open(gomock.Any()).Return(nil),
		d.EXPECT().SetOperator(gomock.Any(), cellular.DefaultOperator).Return(nil),
		d.EXPECT().SetBands(gomock.Any(), cellular.DefaultBands).Return(nil),
		d.EXPECT().Attach(gomock.Any(), "").Return(err),
	}
}

func expectReset(d *cellular.MockDriver) []any {
	return []any{
		d.EXPECT().HardwareReset(gomock.Any()).Return(nil),
		d.EXPECT().Close(gomock.Any()).Return(nil),
	}
}

// expectResetAndReconnect is the escalation path: reset, close, attach.
func expectResetAndReconnect(d *cellular.MockDriver) []any {
	return slices.Concat(expectReset(d), expectConnect(d))
}
