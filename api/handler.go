package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rollkit/lightbridge/config"
	"github.com/rollkit/lightbridge/events"
	"github.com/rollkit/lightbridge/log"
	"github.com/rollkit/lightbridge/relay"
	"github.com/rollkit/lightbridge/rpc"
	"github.com/rollkit/lightbridge/types"
)

// Version is the response of /v2/version.
type Version struct {
	Version        string `json:"version"`
	NetworkVersion string `json:"network_version"`
}

type handler struct {
	backend Backend
	bus     *events.Bus
	cfg     config.Config
	metrics *relay.Metrics
	logger  log.Logger
	router  *mux.Router
}

// NewHandler returns the HTTP handler of the v2 API. bus may be nil, in
// which case websocket streaming is not available.
func NewHandler(backend Backend, bus *events.Bus, cfg config.Config, metrics *relay.Metrics, logger log.Logger) (http.Handler, error) {
	if metrics == nil {
		metrics = relay.NopMetrics()
	}
	h := &handler{
		backend: backend,
		bus:     bus,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		router:  mux.NewRouter(),
	}

	rpcHandler, err := getRPCHandler(backend)
	if err != nil {
		return nil, err
	}

	v2 := h.router.PathPrefix("/v2").Subrouter()
	v2.HandleFunc("/version", h.version).Methods(http.MethodGet)
	v2.HandleFunc("/status", h.status).Methods(http.MethodGet)
	v2.HandleFunc("/messages/{topic}", h.messages).Methods(http.MethodGet)
	if bus != nil {
		v2.HandleFunc("/ws", h.wsHandler).Methods(http.MethodGet)
	}
	h.router.Handle("/rpc", rpcHandler).Methods(http.MethodPost)
	if cfg.Prometheus {
		h.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	return h, nil
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *handler) version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, Version{
		Version:        config.Version,
		NetworkVersion: rpc.ExpectedNetworkVersion.String(),
	})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.backend.Status(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *handler) messages(w http.ResponseWriter, r *http.Request) {
	topic, err := types.ParseTopic(mux.Vars(r)["topic"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := h.backend.MessageList(r.Context(), topic)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *handler) writeError(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	var submitErr *types.Error
	if errors.As(err, &submitErr) {
		code = submitErr.Code
	}
	h.writeJSON(w, code, types.ErrorResponse{Message: err.Error()})
}

func (h *handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	// Prevents Internet Explorer from MIME-sniffing a response away
	// from the declared content-type
	w.Header().Set("x-content-type-options", "nosniff")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
