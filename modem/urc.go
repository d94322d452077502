package modem

import (
	"context"
	"strconv"
	"strings"

	"i4.energy/across/cellgw/at"
)

// watch applies socket URCs to the socket table until ctx is done.
func (m *Modem) watch(ctx context.Context, urcs <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case urc := <-urcs:
			m.handleURC(urc)
		}
	}
}

func (m *Modem) handleURC(urc string) {
	switch {
	case strings.HasPrefix(urc, at.UrcSocketRing):
		value, _ := at.Field(urc, at.UrcSocketRing)
		// +SQNSRING: <connId>,<recData>
		idField, amountField, _ := strings.Cut(value, ",")
		id, err := strconv.Atoi(strings.TrimSpace(idField))
		if err != nil {
			m.logger.Warn("Malformed URC", "urc", urc)
			return
		}
		amount, err := strconv.Atoi(strings.TrimSpace(amountField))
		if err != nil {
			amount = 1
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if s := m.sockets[id]; s != nil {
			s.pending = amount
			s.notify()
		}

	case strings.HasPrefix(urc, at.UrcSocketClosed):
		value, _ := at.Field(urc, at.UrcSocketClosed)
		id, err := strconv.Atoi(value)
		if err != nil {
			m.logger.Warn("Malformed URC", "urc", urc)
			return
		}
		m.logger.Info("Socket closed by peer", "socket", id)

		m.mu.Lock()
		defer m.mu.Unlock()
		if s := m.sockets[id]; s != nil {
			s.peerClosed = true
			s.notify()
		}

	case strings.HasPrefix(urc, at.UrcSysStart):
		m.logger.Warn("Module restarted")

		m.mu.Lock()
		defer m.mu.Unlock()
		for _, s := range m.sockets {
			s.peerClosed = true
			s.notify()
		}

	default:
		m.logger.Debug("Unhandled URC", "urc", urc)
	}
}
