package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"i4.energy/across/headsetctl/at"
	"i4.energy/across/headsetctl/headset"
	"i4.energy/across/headsetctl/logger"
)

// Controller is the headset API the HTTP server and the shell drive.
// *headset.Session implements it.
type Controller interface {
	State() headset.State
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	QueryStatus(ctx context.Context) error
	SetANC(ctx context.Context, enabled bool) error
	SetTransparency(ctx context.Context, enabled bool) error
	ToggleANC(ctx context.Context) error
	ToggleTransparency(ctx context.Context) error
	AdjustVolume(ctx context.Context, direction headset.VolumeDirection, steps int) error
	SetDeviceName(ctx context.Context, name string) error
	ResetDeviceName(ctx context.Context) error
	BluetoothAddress(ctx context.Context) (string, error)
	Send(ctx context.Context, instruction string) (string, error)
}

var _ Controller = (*headset.Session)(nil)

// Server handles incoming HTTP requests for controlling the configured
// headset
type Server struct {
	Logger  logger.Logger
	Headset Controller
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /status/refresh", s.handleRefresh)
	mux.HandleFunc("POST /connect", s.handleConnect)
	mux.HandleFunc("POST /disconnect", s.handleDisconnect)
	mux.HandleFunc("POST /anc", s.handleMode(s.Headset.SetANC))
	mux.HandleFunc("POST /anc/toggle", s.handleToggle(s.Headset.ToggleANC))
	mux.HandleFunc("POST /transparency", s.handleMode(s.Headset.SetTransparency))
	mux.HandleFunc("POST /transparency/toggle", s.handleToggle(s.Headset.ToggleTransparency))
	mux.HandleFunc("POST /volume", s.handleVolume)
	mux.HandleFunc("POST /name", s.handleSetName)
	mux.HandleFunc("DELETE /name", s.handleResetName)
	mux.HandleFunc("GET /address", s.handleAddress)
	mux.HandleFunc("POST /at", s.handleAT)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Debug("Failed to write response", "error", err)
	}
}

// fail logs err and answers with the status its kind maps to.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("Request failed", "op", op, "error", err)
	} else {
		s.Logger.Warn("Request failed", "op", op, "error", err)
	}
	s.sendError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, headset.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, headset.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, headset.ErrNotConnected),
		errors.Is(err, headset.ErrAlreadyConnected),
		errors.Is(err, headset.ErrConnectAborted),
		errors.Is(err, headset.ErrExchangePending):
		return http.StatusConflict
	case errors.Is(err, headset.ErrExchangeTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, headset.ErrChannelOpenFailed),
		errors.Is(err, headset.ErrWriteFailed),
		errors.Is(err, headset.ErrResponseTooLong),
		errors.Is(err, headset.ErrCommandRejected):
		return http.StatusBadGateway
	case errors.Is(err, headset.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, s.Headset.State(), http.StatusOK)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Headset.QueryStatus(r.Context()); err != nil {
		s.fail(w, "refresh", err)
		return
	}
	s.sendJSON(w, s.Headset.State(), http.StatusOK)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.Headset.Connect(r.Context()); err != nil {
		s.fail(w, "connect", err)
		return
	}
	s.Logger.Info("Connected via API")
	s.sendJSON(w, s.Headset.State(), http.StatusOK)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.Headset.Disconnect(r.Context()); err != nil {
		s.fail(w, "disconnect", err)
		return
	}
	s.sendJSON(w, s.Headset.State(), http.StatusOK)
}

func (s *Server) handleMode(set func(context.Context, bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type ModeRequest struct {
			Enabled *bool `json:"enabled"`
		}

		var req ModeRequest
		if !s.decode(w, r, &req) {
			return
		}
		if req.Enabled == nil {
			s.sendError(w, "'enabled' field is required", http.StatusBadRequest)
			return
		}
		if err := set(r.Context(), *req.Enabled); err != nil {
			s.fail(w, r.URL.Path, err)
			return
		}
		s.sendJSON(w, s.Headset.State(), http.StatusOK)
	}
}

func (s *Server) handleToggle(toggle func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := toggle(r.Context()); err != nil {
			s.fail(w, r.URL.Path, err)
			return
		}
		s.sendJSON(w, s.Headset.State(), http.StatusOK)
	}
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	type VolumeRequest struct {
		Direction string `json:"direction"`
		Steps     int    `json:"steps"`
	}

	req := VolumeRequest{Steps: 1}
	if !s.decode(w, r, &req) {
		return
	}
	direction, err := headset.ParseVolumeDirection(req.Direction)
	if err != nil {
		s.fail(w, "volume", err)
		return
	}
	if err := s.Headset.AdjustVolume(r.Context(), direction, req.Steps); err != nil {
		s.fail(w, "volume", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetName(w http.ResponseWriter, r *http.Request) {
	type NameRequest struct {
		Name string `json:"name"`
	}

	var req NameRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.Headset.SetDeviceName(r.Context(), req.Name); err != nil {
		s.fail(w, "set name", err)
		return
	}
	s.Logger.Info("Device name changed", "name", req.Name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetName(w http.ResponseWriter, r *http.Request) {
	if err := s.Headset.ResetDeviceName(r.Context()); err != nil {
		s.fail(w, "reset name", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	addr, err := s.Headset.BluetoothAddress(r.Context())
	if err != nil {
		s.fail(w, "address", err)
		return
	}

	type AddressResponse struct {
		Address string `json:"address"`
	}
	s.sendJSON(w, AddressResponse{Address: addr}, http.StatusOK)
}

// handleAT passes a raw instruction through. An ERROR response is a
// successful exchange and is returned with ok=false.
func (s *Server) handleAT(w http.ResponseWriter, r *http.Request) {
	type ATRequest struct {
		Command string `json:"command"`
	}
	type ATResponse struct {
		Response string `json:"response"`
		OK       bool   `json:"ok"`
	}

	var req ATRequest
	if !s.decode(w, r, &req) {
		return
	}
	response, err := s.Headset.Send(r.Context(), req.Command)
	if err != nil {
		s.fail(w, "at", err)
		return
	}
	s.sendJSON(w, ATResponse{Response: response, OK: at.Succeeded(response)}, http.StatusOK)
}
