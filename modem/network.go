package modem

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"i4.energy/across/cellgw/at"
	"i4.energy/across/cellgw/cellular"
)

// EPS registration states reported by +CEREG.
const (
	regHome    = "1"
	regDenied  = "3"
	regRoaming = "5"
)

// HardwareReset reboots the module with AT^RESET. Every socket is lost.
func (m *Modem) HardwareReset(ctx context.Context) error {
	m.logger.Warn("Resetting module")
	_, err := m.exec(ctx, at.CmdReset)

	m.mu.Lock()
	clear(m.sockets)
	m.mu.Unlock()

	return fail("hardware reset", err, cellular.ErrModuleCom)
}

// SetOperator selects the operator profile. It is remembered for SetBands.
func (m *Modem) SetOperator(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("set operator: %w", cellular.ErrParameter)
	}
	if _, err := m.exec(ctx, fmt.Sprintf(at.CmdSetOperator, name)); err != nil {
		return fail("set operator", err, cellular.ErrParameter)
	}

	m.mu.Lock()
	m.operator = name
	m.mu.Unlock()
	return nil
}

// SetBands programs the LTE-M band list, a comma separated list of band
// numbers such as "1,3,8,20,28".
func (m *Modem) SetBands(ctx context.Context, bands string) error {
	bands, err := normalizeBands(bands)
	if err != nil {
		return fmt.Errorf("set bands: %w: %w", cellular.ErrParameter, err)
	}

	m.mu.Lock()
	operator := m.operator
	m.mu.Unlock()
	if operator == "" {
		operator = cellular.DefaultOperator
	}

	_, err = m.exec(ctx, fmt.Sprintf(at.CmdSetBands, operator, bands))
	return fail("set bands", err, cellular.ErrParameter)
}

func normalizeBands(bands string) (string, error) {
	fields := strings.Split(bands, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > 255 {
			return "", fmt.Errorf("invalid band %q", f)
		}
		out = append(out, strconv.Itoa(n))
	}
	return strings.Join(out, ","), nil
}

// Attach defines the PDP context for apn (when set), turns the radio on and
// waits for EPS registration. A registration that is denied or does not
// happen within Config.AttachPoll fails with cellular.ErrAPConnectFailed.
func (m *Modem) Attach(ctx context.Context, apn string) error {
	if apn != "" {
		if _, err := m.exec(ctx, fmt.Sprintf(at.CmdDefineContext, apn)); err != nil {
			return fail("define context", err, cellular.ErrParameter)
		}
	}
	if _, err := m.exec(ctx, at.CmdRadioOn); err != nil {
		return fail("radio on", err, cellular.ErrModuleCom)
	}

	err := poll(ctx, m.config.AttachPoll, func(ctx context.Context) (bool, error) {
		resp, err := m.exec(ctx, at.CmdRegistration)
		if err != nil {
			return false, err
		}
		stat, err := registrationState(resp)
		if err != nil {
			return false, err
		}
		m.logger.Debug("Registration state", "stat", stat)
		switch stat {
		case regHome, regRoaming:
			return true, nil
		case regDenied:
			return false, ErrRegistrationDenied
		}
		return false, nil
	})

	switch {
	case err == nil:
		m.logger.Info("Attached to network", "apn", apn)
		return nil
	case errors.Is(err, errGaveUp):
		return fmt.Errorf("attach: %w: %w", cellular.ErrAPConnectFailed, ErrNotRegistered)
	case errors.Is(err, ErrRegistrationDenied):
		return fmt.Errorf("attach: %w: %w", cellular.ErrAPConnectFailed, err)
	default:
		return fail("attach", err, cellular.ErrAPConnectFailed)
	}
}

// registrationState extracts <stat> from a "+CEREG: <n>,<stat>[,...]" response.
func registrationState(resp string) (string, error) {
	for line := range strings.SplitSeq(resp, "\n") {
		value, ok := at.Field(line, at.RespRegistration)
		if !ok {
			continue
		}
		fields := strings.Split(value, ",")
		if len(fields) < 2 {
			break
		}
		return strings.TrimSpace(fields[1]), nil
	}
	return "", fmt.Errorf("%w: %q", ErrMalformedResponse, resp)
}
