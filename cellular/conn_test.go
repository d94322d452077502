package cellular_test

import (
	"context"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"i4.energy/across/cellgw/cellular"
)

func TestConn(t *testing.T) {
	t.Run("Dial wraps an open socket", func(t *testing.T) {
		f := newFixture(t).connected(t)
		gomock.InOrder(
			f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(1, nil),
			f.driver.EXPECT().DNSQuery(gomock.Any(), "example.com", cellular.IPv4).Return(testAddr, nil),
			f.driver.EXPECT().ConnectSocket(gomock.Any(), 1, testAddr, uint16(80)).Return(nil),
		)

		conn, err := f.link.Dial(context.Background(), "example.com", 80, time.Second, time.Second)
		require.NoError(t, err)
		assert.Equal(t, 1, conn.Socket().Number())
		assert.Equal(t, &net.TCPAddr{IP: testAddr.AsSlice(), Port: 80}, conn.RemoteAddr())
	})

	t.Run("Read retries absorbed errors", func(t *testing.T) {
		f := newFixture(t).connected(t)
		conn := cellular.NewConn(f.link, f.openSocket(t, 1))
		gomock.InOrder(
			f.driver.EXPECT().Receive(gomock.Any(), 1, gomock.Any(), gomock.Any()).Return(0, cellular.ErrOtherATCommandRunning),
			f.driver.EXPECT().Receive(gomock.Any(), 1, gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ int, p []byte, _ time.Duration) (int, error) {
					return copy(p, "hello"), nil
				}),
		)

		buf := make([]byte, 16)
		n, err := conn.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(buf[:n]))
	})

	t.Run("Read reports the deadline", func(t *testing.T) {
		f := newFixture(t).connected(t)
		conn := cellular.NewConn(f.link, f.openSocket(t, 1))
		f.driver.EXPECT().Receive(gomock.Any(), 1, gomock.Any(), gomock.Any()).Return(0, nil).MinTimes(1)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(-time.Second)))

		_, err := conn.Read(make([]byte, 8))
		assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	})

	t.Run("Read returns driver errors", func(t *testing.T) {
		f := newFixture(t).connected(t)
		conn := cellular.NewConn(f.link, f.openSocket(t, 1))
		f.driver.EXPECT().Receive(gomock.Any(), 1, gomock.Any(), gomock.Any()).Return(0, cellular.ErrParameter)

		_, err := conn.Read(make([]byte, 8))
		assert.ErrorIs(t, err, cellular.ErrParameter)
	})

	t.Run("Write loops until everything is sent", func(t *testing.T) {
		f := newFixture(t).connected(t)
		conn := cellular.NewConn(f.link, f.openSocket(t, 1))
		gomock.InOrder(
			f.driver.EXPECT().Send(gomock.Any(), 1, []byte("ping"), gomock.Any()).Return(2, nil),
			f.driver.EXPECT().Send(gomock.Any(), 1, []byte("ng"), gomock.Any()).Return(0, cellular.ErrNotConnect),
			f.driver.EXPECT().Send(gomock.Any(), 1, []byte("ng"), gomock.Any()).Return(2, nil),
		)

		n, err := conn.Write([]byte("ping"))
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("Write reports the deadline", func(t *testing.T) {
		f := newFixture(t).connected(t)
		conn := cellular.NewConn(f.link, f.openSocket(t, 1))
		require.NoError(t, conn.SetDeadline(time.Now().Add(-time.Second)))

		n, err := conn.Write([]byte("ping"))
		assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
		assert.Zero(t, n)
	})

	t.Run("Write keeps the deadline out of the driver", func(t *testing.T) {
		f := newFixture(t).connected(t)
		conn := cellular.NewConn(f.link, f.openSocket(t, 1))
		f.driver.EXPECT().Send(gomock.Any(), 1, gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ int, _ []byte, _ time.Duration) (int, error) {
				_, ok := ctx.Deadline()
				assert.False(t, ok)
				return 0, nil
			}).MinTimes(1)
		require.NoError(t, conn.SetWriteDeadline(time.Now().Add(120*time.Millisecond)))

		n, err := conn.Write([]byte("ping"))
		assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
		assert.Zero(t, n)
		assert.Empty(t, f.events.resets)
	})

	t.Run("Read maps an expired deadline", func(t *testing.T) {
		f := newFixture(t).connected(t)
		conn := cellular.NewConn(f.link, f.openSocket(t, 1))
		f.driver.EXPECT().Receive(gomock.Any(), 1, gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ int, _ []byte, _ time.Duration) (int, error) {
				<-ctx.Done()
				return 0, fmt.Errorf("receive: %w", ctx.Err())
			})
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(20*time.Millisecond)))

		_, err := conn.Read(make([]byte, 8))
		assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
		assert.Empty(t, f.events.resets)
	})

	t.Run("Close is idempotent", func(t *testing.T) {
		f := newFixture(t).connected(t)
		conn := cellular.NewConn(f.link, f.openSocket(t, 1))
		f.driver.EXPECT().CloseSocket(gomock.Any(), 1).Return(nil)

		assert.NoError(t, conn.Close())
		assert.NoError(t, conn.Close())
	})
}
