package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"i4.energy/across/cellgw/cellular"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// SimPIN is the SIM card PIN code
	SimPIN string
	// Trace logs every line exchanged with the modem
	Trace bool

	// APN is the access point name; empty keeps the module's context
	APN string
	// Bands is the comma separated LTE band list
	Bands string
	// Operator is the operator profile selected before attaching
	Operator string
	// CommErrorThreshold is the number of consecutive communication errors
	// absorbed before the module is reset
	CommErrorThreshold uint32
	// ReconnectAttempts bounds the attach attempts of one connect
	ReconnectAttempts int
	// CloseSocketRetries bounds the close commands sent for one socket
	CloseSocketRetries int
	// ResetSettleDelay is waited after a hardware reset before reopening
	ResetSettleDelay time.Duration

	// MQTTBroker is the broker URL for link events; empty disables publishing
	MQTTBroker string
	// MQTTTopic is the topic link events are published on
	MQTTTopic string
	// MQTTClientID identifies the gateway at the broker
	MQTTClientID string

	// ProbeTimeout bounds each socket operation of a probe request
	ProbeTimeout time.Duration
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.Bands = cellular.DefaultBands
		c.Operator = cellular.DefaultOperator
		c.CommErrorThreshold = 3
		c.ReconnectAttempts = 3
		c.CloseSocketRetries = 3
		c.ResetSettleDelay = 10 * time.Millisecond
		c.MQTTTopic = "cellgw/events"
		c.MQTTClientID = "cellgw"
		c.ProbeTimeout = 10 * time.Second
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if simPIN := os.Getenv("SIM_PIN"); simPIN != "" {
			c.SimPIN = simPIN
		}

		if trace := os.Getenv("MODEM_TRACE"); trace != "" {
			if t, err := strconv.ParseBool(trace); err == nil {
				c.Trace = t
			}
		}

		if apn := os.Getenv("APN"); apn != "" {
			c.APN = apn
		}

		if bands := os.Getenv("BANDS"); bands != "" {
			c.Bands = bands
		}

		if operator := os.Getenv("OPERATOR"); operator != "" {
			c.Operator = operator
		}

		if threshold := os.Getenv("COMM_ERROR_THRESHOLD"); threshold != "" {
			n, err := strconv.ParseUint(threshold, 10, 32)
			if err != nil {
				return fmt.Errorf("COMM_ERROR_THRESHOLD: %w", err)
			}
			c.CommErrorThreshold = uint32(n)
		}

		if attempts := os.Getenv("RECONNECT_ATTEMPTS"); attempts != "" {
			n, err := strconv.Atoi(attempts)
			if err != nil {
				return fmt.Errorf("RECONNECT_ATTEMPTS: %w", err)
			}
			c.ReconnectAttempts = n
		}

		if retries := os.Getenv("CLOSE_SOCKET_RETRIES"); retries != "" {
			n, err := strconv.Atoi(retries)
			if err != nil {
				return fmt.Errorf("CLOSE_SOCKET_RETRIES: %w", err)
			}
			c.CloseSocketRetries = n
		}

		if settle := os.Getenv("RESET_SETTLE_DELAY"); settle != "" {
			d, err := time.ParseDuration(settle)
			if err != nil {
				return fmt.Errorf("RESET_SETTLE_DELAY: %w", err)
			}
			c.ResetSettleDelay = d
		}

		if broker := os.Getenv("MQTT_BROKER"); broker != "" {
			c.MQTTBroker = broker
		}

		if topic := os.Getenv("MQTT_TOPIC"); topic != "" {
			c.MQTTTopic = topic
		}

		if id := os.Getenv("MQTT_CLIENT_ID"); id != "" {
			c.MQTTClientID = id
		}

		if timeout := os.Getenv("PROBE_TIMEOUT"); timeout != "" {
			d, err := time.ParseDuration(timeout)
			if err != nil {
				return fmt.Errorf("PROBE_TIMEOUT: %w", err)
			}
			c.ProbeTimeout = d
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *flag.Flag) {
			if err != nil {
				return
			}
			value := f.Value.String()
			switch f.Name {
			case "bind-address":
				c.BindAddress = value
			case "serial-port":
				c.SerialPort = value
			case "baud-rate":
				if b, perr := strconv.Atoi(value); perr == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = value
			case "sim-pin":
				c.SimPIN = value
			case "trace":
				c.Trace = value == "true"
			case "apn":
				c.APN = value
			case "bands":
				c.Bands = value
			case "operator":
				c.Operator = value
			case "comm-error-threshold":
				var n uint64
				if n, err = strconv.ParseUint(value, 10, 32); err == nil {
					c.CommErrorThreshold = uint32(n)
				}
			case "reconnect-attempts":
				c.ReconnectAttempts, err = strconv.Atoi(value)
			case "close-socket-retries":
				c.CloseSocketRetries, err = strconv.Atoi(value)
			case "reset-settle-delay":
				c.ResetSettleDelay, err = time.ParseDuration(value)
			case "mqtt-broker":
				c.MQTTBroker = value
			case "mqtt-topic":
				c.MQTTTopic = value
			case "mqtt-client-id":
				c.MQTTClientID = value
			case "probe-timeout":
				c.ProbeTimeout, err = time.ParseDuration(value)
			}
			if err != nil {
				err = fmt.Errorf("flag -%s: %w", f.Name, err)
			}
		})
		return err
	}
}
