package cellular_test

import (
	"context"
	"errors"
	"net/netip"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"i4.energy/across/cellgw/cellular"
)

func TestOpenTCP(t *testing.T) {
	ctx := context.Background()

	t.Run("Connects and records the socket", func(t *testing.T) {
		f := newFixture(t).connected(t)

		s := f.openSocket(t, 1)
		assert.Equal(t, 1, s.Number())
		assert.Equal(t, "example.com", s.Host())
		assert.Equal(t, netip.AddrPortFrom(testAddr, 443), s.RemoteAddr())
		assert.Equal(t, []int{1}, f.link.Status().Sockets)
	})

	t.Run("No socket created is normalized", func(t *testing.T) {
		f := newFixture(t).connected(t)
		f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(0, nil)

		s, err := f.link.OpenTCP(ctx, "example.com", 443, time.Second, time.Second)
		assert.Equal(t, cellular.ErrNoSocketCreation, err)
		assert.Nil(t, s)
		assert.Empty(t, f.events.resets)
	})

	t.Run("Module communication error on create forces a reset", func(t *testing.T) {
		f := newFixture(t).connected(t)
		gomock.InOrder(slices.Concat(
			[]any{
				f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(0, cellular.ErrModuleCom),
			},
			expectResetAndReconnect(f.driver),
		)...)

		s, err := f.link.OpenTCP(ctx, "example.com", 443, time.Second, time.Second)
		assert.ErrorIs(t, err, cellular.ErrModuleCom)
		assert.Nil(t, s)
		assert.Equal(t, []cellular.ErrorCode{cellular.ErrModuleCom}, f.events.resets)
		assert.Equal(t, cellular.LevelAttached, f.link.Status().Level)
	})

	t.Run("Other create errors propagate without reset", func(t *testing.T) {
		f := newFixture(t).connected(t)
		f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(-1, cellular.ErrSocketCreateLimit)

		_, err := f.link.OpenTCP(ctx, "example.com", 443, time.Second, time.Second)
		assert.ErrorIs(t, err, cellular.ErrSocketCreateLimit)
		assert.Empty(t, f.events.resets)
	})

	t.Run("Allocation failure closes the created socket", func(t *testing.T) {
		f := newFixture(t, func(b *cellular.ConfigBuilder) {
			b.WithMaxSockets(1)
		}).connected(t)
		f.openSocket(t, 1)
		gomock.InOrder(
			f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(2, nil),
			f.driver.EXPECT().CloseSocket(gomock.Any(), 2).Return(nil),
		)

		s, err := f.link.OpenTCP(ctx, "example.com", 443, time.Second, time.Second)
		assert.Equal(t, cellular.ErrAllocationFailed, err)
		assert.Nil(t, s)
		assert.Equal(t, []int{1}, f.link.Status().Sockets)
		assert.True(t, f.events.closed[2])
	})

	t.Run("DNS failure closes the created socket", func(t *testing.T) {
		f := newFixture(t).connected(t)
		lookupErr := errors.New("no such host")
		gomock.InOrder(
			f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(3, nil),
			f.driver.EXPECT().DNSQuery(gomock.Any(), "nowhere.invalid", cellular.IPv4).Return(netip.Addr{}, lookupErr),
			f.driver.EXPECT().CloseSocket(gomock.Any(), 3).Return(nil),
		)

		s, err := f.link.OpenTCP(ctx, "nowhere.invalid", 443, time.Second, time.Second)
		assert.ErrorIs(t, err, lookupErr)
		assert.Nil(t, s)
		assert.Empty(t, f.link.Status().Sockets)
		assert.Empty(t, f.events.resets)
	})

	t.Run("DNS timeout resets the link and drops the socket", func(t *testing.T) {
		f := newFixture(t).connected(t)
		gomock.InOrder(slices.Concat(
			[]any{
				f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(1, nil),
				f.driver.EXPECT().DNSQuery(gomock.Any(), "example.com", cellular.IPv4).Return(netip.Addr{}, cellular.ErrModuleTimeout),
			},
			expectResetAndReconnect(f.driver),
		)...)

		_, err := f.link.OpenTCP(ctx, "example.com", 443, time.Second, time.Second)
		assert.ErrorIs(t, err, cellular.ErrModuleTimeout)
		assert.Empty(t, f.link.Status().Sockets)
		assert.Len(t, f.events.resets, 1)
	})

	t.Run("Connect failure closes the socket", func(t *testing.T) {
		f := newFixture(t).connected(t)
		gomock.InOrder(
			f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(1, nil),
			f.driver.EXPECT().DNSQuery(gomock.Any(), "example.com", cellular.IPv4).Return(testAddr, nil),
			f.driver.EXPECT().ConnectSocket(gomock.Any(), 1, testAddr, uint16(8883)).Return(cellular.ErrNotConnect),
			f.driver.EXPECT().CloseSocket(gomock.Any(), 1).Return(cellular.ErrNotOpen),
		)

		_, err := f.link.OpenTCP(ctx, "example.com", 8883, time.Second, time.Second)
		assert.ErrorIs(t, err, cellular.ErrNotConnect)
		assert.Empty(t, f.link.Status().Sockets)
		assert.True(t, f.events.closed[1])
	})

	t.Run("Connect communication error forces a reset", func(t *testing.T) {
		f := newFixture(t).connected(t)
		gomock.InOrder(slices.Concat(
			[]any{
				f.driver.EXPECT().CreateSocket(gomock.Any(), cellular.ProtocolTCP, cellular.IPv4).Return(1, nil),
				f.driver.EXPECT().DNSQuery(gomock.Any(), "example.com", cellular.IPv4).Return(testAddr, nil),
				f.driver.EXPECT().ConnectSocket(gomock.Any(), 1, testAddr, uint16(443)).Return(cellular.ErrModuleCom),
			},
			expectResetAndReconnect(f.driver),
		)...)

		_, err := f.link.OpenTCP(ctx, "example.com", 443, time.Second, time.Second)
		assert.ErrorIs(t, err, cellular.ErrModuleCom)
		assert.Equal(t, uint32(0), f.link.Status().Failures)
	})
}

func TestCloseSocket(t *testing.T) {
	ctx := context.Background()

	t.Run("Closing twice succeeds both times", func(t *testing.T) {
		f := newFixture(t).connected(t)
		s := f.openSocket(t, 1)
		f.driver.EXPECT().CloseSocket(gomock.Any(), 1).Return(nil).Times(1)

		assert.NoError(t, f.link.CloseSocket(ctx, s))
		assert.NoError(t, f.link.CloseSocket(ctx, s))
		assert.Empty(t, f.link.Status().Sockets)
	})

	t.Run("Terminal codes count as closed", func(t *testing.T) {
		for _, code := range []cellular.ErrorCode{cellular.ErrNotOpen, cellular.ErrSocketNotReady} {
			t.Run(code.Error(), func(t *testing.T) {
				f := newFixture(t).connected(t)
				s := f.openSocket(t, 2)
				f.driver.EXPECT().CloseSocket(gomock.Any(), 2).Return(code).Times(1)

				assert.NoError(t, f.link.CloseSocket(ctx, s))
				assert.True(t, f.events.closed[2])
			})
		}
	})

	t.Run("Retries are bounded and never fail the caller", func(t *testing.T) {
		f := newFixture(t, func(b *cellular.ConfigBuilder) {
			b.WithCloseSocketRetries(3)
		}).connected(t)
		s := f.openSocket(t, 1)
		f.driver.EXPECT().CloseSocket(gomock.Any(), 1).Return(cellular.ErrModuleCom).Times(3)

		assert.NoError(t, f.link.CloseSocket(ctx, s))
		assert.False(t, f.events.closed[1])
		assert.Empty(t, f.link.Status().Sockets)
	})

	t.Run("Succeeds on a later attempt", func(t *testing.T) {
		f := newFixture(t).connected(t)
		s := f.openSocket(t, 1)
		gomock.InOrder(
			f.driver.EXPECT().CloseSocket(gomock.Any(), 1).Return(cellular.ErrOtherATCommandRunning),
			f.driver.EXPECT().CloseSocket(gomock.Any(), 1).Return(nil),
		)

		assert.NoError(t, f.link.CloseSocket(ctx, s))
		assert.True(t, f.events.closed[1])
	})

	t.Run("Rejects nil and foreign sockets", func(t *testing.T) {
		f := newFixture(t).connected(t)
		other := newFixture(t).connected(t)
		s := other.openSocket(t, 1)

		assert.ErrorIs(t, f.link.CloseSocket(ctx, nil), cellular.ErrNilSocket)
		assert.ErrorIs(t, f.link.CloseSocket(ctx, s), cellular.ErrForeignSocket)
	})
}
