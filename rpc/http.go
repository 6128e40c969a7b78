package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autonchain/core"
	"autonchain/core/state"
	"autonchain/crypto"
	"autonchain/native/creator"
	"autonchain/native/sponsor"
	"autonchain/native/vault"
	"autonchain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeConflict       = -32010
	codeNotFound       = -32011
)

type Server struct {
	node      *core.Node
	logger    *slog.Logger
	authToken string
	metrics   *observability.RPCMetrics
}

func NewServer(node *core.Node) *Server {
	token := strings.TrimSpace(os.Getenv("AUTON_RPC_TOKEN"))
	return &Server{
		node:      node,
		logger:    slog.Default(),
		authToken: token,
		metrics:   observability.Metrics(),
	}
}

// SetLogger overrides the server logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
}

// Router assembles the HTTP surface: the JSON-RPC endpoint, the Prometheus
// scrape endpoint and a liveness probe.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/rpc", s.handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps sentinel errors from the engines onto JSON-RPC error
// codes and HTTP statuses.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, state.ErrRecordExists),
		errors.Is(err, sponsor.ErrAlreadySponsored):
		writeError(w, http.StatusConflict, id, codeConflict, err.Error(), nil)
	case errors.Is(err, creator.ErrUnauthorized),
		errors.Is(err, sponsor.ErrUnauthorized),
		errors.Is(err, vault.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, creator.ErrCreatorNotFound),
		errors.Is(err, creator.ErrContentNotFound),
		errors.Is(err, sponsor.ErrUserNotFound),
		errors.Is(err, vault.ErrNotInitialized):
		writeError(w, http.StatusNotFound, id, codeNotFound, err.Error(), nil)
	case errors.Is(err, creator.ErrInvalidUsername),
		errors.Is(err, creator.ErrContentTooLarge),
		errors.Is(err, vault.ErrInvalidFee),
		errors.Is(err, vault.ErrAmountTooLarge),
		errors.Is(err, sponsor.ErrAmountTooLarge),
		errors.Is(err, state.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func decodeBech32(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Bytes(), nil
}

func formatAddress(raw [20]byte) string {
	return crypto.NewAddress(raw).String()
}

func unmarshalSingleParam(req *RPCRequest, dest interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], dest)
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	started := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.dispatch(recorder, r, req)
	outcome := "ok"
	if recorder.status >= http.StatusBadRequest {
		outcome = "error"
	}
	s.metrics.Observe(req.Method, outcome, time.Since(started))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "auton_registerUsername":
		s.withAuth(w, r, req, s.handleRegisterUsername)
	case "auton_initializeCreator":
		s.withAuth(w, r, req, s.handleInitializeCreator)
	case "auton_addContent":
		s.withAuth(w, r, req, s.handleAddContent)
	case "auton_processPayment":
		s.withAuth(w, r, req, s.handleProcessPayment)
	case "auton_getCreator":
		s.handleGetCreator(w, r, req)
	case "auton_resolveUsername":
		s.handleResolveUsername(w, r, req)
	case "auton_hasAccess":
		s.handleHasAccess(w, r, req)
	case "auton_getBalance":
		s.handleGetBalance(w, r, req)
	case "sponsor_initializeUser":
		s.withAuth(w, r, req, s.handleInitializeSponsoredUser)
	case "sponsor_sponsorUser":
		s.withAuth(w, r, req, s.handleSponsorUser)
	case "vault_initialize":
		s.withAuth(w, r, req, s.handleInitializeVault)
	case "vault_updateAdmin":
		s.withAuth(w, r, req, s.handleUpdateVaultAdmin)
	case "vault_updateFeeBps":
		s.withAuth(w, r, req, s.handleUpdateVaultFeeBps)
	case "vault_updateSponsorshipAmount":
		s.withAuth(w, r, req, s.handleUpdateVaultSponsorshipAmount)
	case "vault_withdraw":
		s.withAuth(w, r, req, s.handleWithdrawFromVault)
	case "vault_info":
		s.handleVaultInfo(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

func (s *Server) withAuth(w http.ResponseWriter, r *http.Request, req *RPCRequest, next func(http.ResponseWriter, *http.Request, *RPCRequest)) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	next(w, r, req)
}
