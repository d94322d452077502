package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.bug.st/serial"
	"i4.energy/across/cellgw/cellular"
	"i4.energy/across/cellgw/metrics"
	"i4.energy/across/cellgw/modem"
	"i4.energy/across/cellgw/notify"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("sim-pin", "", "SIM card PIN code (if required)")
	flag.Bool("trace", false, "Log every line exchanged with the modem")
	flag.String("apn", "", "Access point name")
	flag.String("bands", cellular.DefaultBands, "Comma separated LTE bands")
	flag.String("operator", cellular.DefaultOperator, "Operator profile")
	flag.Uint("comm-error-threshold", 3, "Consecutive communication errors before a module reset")
	flag.Int("reconnect-attempts", 3, "Attach attempts per connect")
	flag.Int("close-socket-retries", 3, "Close commands sent per socket before giving up")
	flag.Duration("reset-settle-delay", 10*time.Millisecond, "Wait after a hardware reset before reopening the module")
	flag.String("mqtt-broker", "", "MQTT broker URL for link events (e.g. tcp://localhost:1883)")
	flag.String("mqtt-topic", "cellgw/events", "MQTT topic for link events")
	flag.String("mqtt-client-id", "cellgw", "MQTT client id")
	flag.Duration("probe-timeout", 10*time.Second, "Timeout of each socket operation of a probe")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	dialer := modem.SerialDialer{
		PortName: config.SerialPort,
		Mode: &serial.Mode{
			BaudRate: config.BaudRate,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		},
	}
	if config.Trace {
		dialer.Trace = slog.NewLogLogger(logger.With("component", "trace").Handler(), slog.LevelDebug)
	}

	modemConfig, err := modem.NewConfigBuilder().
		WithATTimeout(5 * time.Second).
		WithInitTimeout(30 * time.Second).
		WithSimPIN(config.SimPIN).
		WithDialer(dialer).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	m, err := modem.New(modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observers := cellular.Observers{metrics.NewCollector(registry)}

	var publisher *notify.Publisher
	if config.MQTTBroker != "" {
		publisher, err = notify.Connect(notify.Options{
			Broker:   config.MQTTBroker,
			ClientID: config.MQTTClientID,
			Topic:    config.MQTTTopic,
			QoS:      1,
		}, logger.With("component", "notify"))
		if err != nil {
			logger.Error("Failed to connect to MQTT broker", "broker", config.MQTTBroker, "error", err)
			os.Exit(1)
		}
		observers = append(observers, publisher)
	}

	linkConfig, err := cellular.NewConfigBuilder().
		WithAPN(config.APN).
		WithBands(config.Bands).
		WithOperator(config.Operator).
		WithCommErrorThreshold(config.CommErrorThreshold).
		WithReconnectAttempts(config.ReconnectAttempts).
		WithCloseSocketRetries(config.CloseSocketRetries).
		WithResetSettleDelay(config.ResetSettleDelay).
		WithLogger(logger.With("component", "link")).
		WithObserver(observers).
		Build()
	if err != nil {
		logger.Error("Failed to create link config", "error", err)
		os.Exit(1)
	}

	link, err := cellular.New(m, linkConfig)
	if err != nil {
		logger.Error("Failed to create link", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting cellular gateway", "serial_port", config.SerialPort, "bands", config.Bands)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	supervisor := NewSupervisor(link, logger.With("component", "supervisor"))
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:       logger.With("component", "server"),
			Link:         link,
			Connect:      supervisor.Trigger,
			Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ProbeTimeout: config.ProbeTimeout,
		},
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	stop()
	<-supervisorDone

	logger.Info("Shutting down cellular link")
	if err := link.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down link", "error", err)
	}

	if publisher != nil {
		publisher.Close()
	}
}
