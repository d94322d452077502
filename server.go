package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"i4.energy/across/cellgw/cellular"
)

// Server handles incoming HTTP requests for inspecting and exercising the
// cellular link
type Server struct {
	Logger *slog.Logger
	Link   *cellular.Link
	// Connect requests a connect round from the supervisor
	Connect func()
	// Metrics serves /metrics when set
	Metrics http.Handler
	// ProbeTimeout bounds each socket operation of a probe
	ProbeTimeout time.Duration
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /connect", s.handleConnect)
	mux.HandleFunc("POST /probe", s.handleProbe)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
		Code    int32  `json:"code,omitempty"`
	}
	resp := ErrorResponse{Message: err.Error()}
	var code cellular.ErrorCode
	if errors.As(err, &code) {
		resp.Code = int32(code)
	}
	s.sendJSON(w, resp, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to write response", "error", err)
	}
}

// linkStatus maps an error from the link to an HTTP status.
func linkStatus(err error) int {
	switch {
	case errors.Is(err, cellular.ErrLinkShutdown):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return http.StatusGatewayTimeout
	case cellular.CodeOf(err) != cellular.ErrUnknown:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Level     string `json:"level"`
	Operator  string `json:"operator"`
	Bands     string `json:"bands"`
	Failures  uint32 `json:"failures"`
	Resets    uint64 `json:"resets"`
	Sockets   []int  `json:"sockets"`
	LastError string `json:"last_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.Link.Status()
	resp := StatusResponse{
		Level:    status.Level.String(),
		Operator: status.Operator,
		Bands:    status.Bands,
		Failures: status.Failures,
		Resets:   status.Resets,
		Sockets:  status.Sockets,
	}
	if resp.Sockets == nil {
		resp.Sockets = []int{}
	}
	if status.LastError != nil {
		resp.LastError = status.LastError.Error()
	}
	s.sendJSON(w, resp, http.StatusOK)
}

// handleConnect hands the request to the supervisor and returns at once.
func (s *Server) handleConnect(w http.ResponseWriter, _ *http.Request) {
	if s.Connect == nil {
		s.sendError(w, errors.New("no supervisor configured"), http.StatusServiceUnavailable)
		return
	}
	s.Connect()
	s.Logger.Info("Connect requested")
	w.WriteHeader(http.StatusAccepted)
}

// ProbeRequest is the body of POST /probe.
type ProbeRequest struct {
	Host    string `json:"host"`
	Port    uint16 `json:"port"`
	Payload string `json:"payload"`
}

// ProbeResponse is the body of a successful probe.
type ProbeResponse struct {
	Socket   int    `json:"socket"`
	Remote   string `json:"remote"`
	Sent     int    `json:"sent"`
	Received []byte `json:"received"`
}

// handleProbe opens a TCP socket, sends the payload, waits for the first
// answer and closes the socket again. A peer that stays silent yields an
// empty answer, not an error.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var req ProbeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err, http.StatusBadRequest)
		return
	}
	if req.Host == "" || req.Port == 0 {
		s.sendError(w, errors.New("both 'host' and 'port' fields are required"), http.StatusBadRequest)
		return
	}

	timeout := s.ProbeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	conn, err := s.Link.Dial(r.Context(), req.Host, req.Port, timeout, timeout)
	if err != nil {
		s.Logger.Error("Probe failed to connect", "host", req.Host, "port", req.Port, "error", err)
		s.sendError(w, err, linkStatus(err))
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.Logger.Warn("Probe failed to close socket", "socket", conn.Socket().Number(), "error", err)
		}
	}()

	resp := ProbeResponse{
		Socket: conn.Socket().Number(),
		Remote: conn.RemoteAddr().String(),
	}

	if len(req.Payload) > 0 {
		conn.SetWriteDeadline(time.Now().Add(timeout))
		resp.Sent, err = conn.Write([]byte(req.Payload))
		if err != nil {
			s.Logger.Error("Probe send failed", "socket", resp.Socket, "sent", resp.Sent, "error", err)
			s.sendError(w, err, linkStatus(err))
			return
		}
	}

	buf := make([]byte, 1500)
	conn.SetReadDeadline(time.Now().Add(timeout))
	n, err := conn.Read(buf)
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
	case err != nil:
		s.Logger.Error("Probe receive failed", "socket", resp.Socket, "error", err)
		s.sendError(w, err, linkStatus(err))
		return
	default:
		resp.Received = buf[:n]
	}

	s.Logger.Info("Probe completed",
		"host", req.Host, "port", req.Port, "sent", resp.Sent, "received", len(resp.Received))
	s.sendJSON(w, resp, http.StatusOK)
}
