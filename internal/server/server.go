package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iwvelando/mortgage-planner/internal/affordability"
	"github.com/iwvelando/mortgage-planner/internal/config"
	"github.com/iwvelando/mortgage-planner/internal/household"
	"github.com/iwvelando/mortgage-planner/internal/snapshot"
	"github.com/iwvelando/mortgage-planner/internal/store"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
	"github.com/iwvelando/mortgage-planner/pkg/output"
	"github.com/iwvelando/mortgage-planner/pkg/tax"
	"github.com/iwvelando/mortgage-planner/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

type handler struct {
	logger        *zap.Logger
	repo          *store.Repository
	maxUploadSize int64
	version       string
}

type affordabilityRequest struct {
	Household   *snapshot.Record          `json:"household"`
	Preferences *config.PreferencesConfig `json:"preferences"`
}

type affordabilityResponse struct {
	Report      affordability.Report  `json:"report"`
	Preferences household.Preferences `json:"preferences"`
	Warnings    []string              `json:"warnings"`
	CSV         string                `json:"csv"`
	Duration    string                `json:"duration"`
}

type bracketsResponse struct {
	IsFirstHome bool          `json:"isFirstHome"`
	Brackets    []tax.Bracket `json:"brackets"`
	NextCeiling float64       `json:"nextCeiling"`
}

type bracketTableResponse struct {
	Brackets    []tax.Bracket `json:"brackets"`
	NextCeiling float64       `json:"nextCeiling"`
}

// NewHandler constructs the HTTP handler for the affordability API. The
// repository may be nil, in which case the state and preferences endpoints
// answer 503 and computations fall back to the default preferences.
func NewHandler(logger *zap.Logger, repo *store.Repository, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, repo: repo, maxUploadSize: maxUploadSize, version: trimmedVersion}

	r := mux.NewRouter()
	r.Use(h.requestID, h.logRequests)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.handleMethodNotAllowed)

	r.HandleFunc("/api/affordability", h.handleAffordability).Methods(http.MethodPost)
	r.HandleFunc("/api/affordability/upload", h.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/api/brackets", h.handleBrackets).Methods(http.MethodGet)
	r.HandleFunc("/api/state", h.handleGetState).Methods(http.MethodGet)
	r.HandleFunc("/api/state", h.handlePutState).Methods(http.MethodPut)
	r.HandleFunc("/api/state", h.handleResetState).Methods(http.MethodDelete)
	r.HandleFunc("/api/state/brackets/{index:[0-9]+}", h.handleSetBracket).Methods(http.MethodPut)
	r.HandleFunc("/api/state/brackets/{index:[0-9]+}", h.handleRemoveBracket).Methods(http.MethodDelete)
	r.HandleFunc("/api/preferences", h.handleGetPreferences).Methods(http.MethodGet)
	r.HandleFunc("/api/preferences", h.handlePutPreferences).Methods(http.MethodPut)
	r.HandleFunc("/api/version", h.handleVersion).Methods(http.MethodGet)

	return r
}

func (h *handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("request served",
			zap.String("op", "server.logRequests"),
			zap.String("request_id", r.Header.Get(RequestIDHeader)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) handleAffordability(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAffordability"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var req affordabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	var state household.State
	var warnings []string
	switch {
	case req.Household != nil:
		var migration snapshot.Migration
		state, migration = snapshot.Normalize(*req.Household)
		if migration.Changed() {
			warnings = append(warnings, "household record lacked optional fields; defaults were applied")
		}
	case h.repo != nil:
		stored, err := h.repo.LoadState(r.Context())
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
			return
		}
		state = stored
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing household", op)
		return
	}

	prefs, err := h.basePreferences(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	if req.Preferences != nil {
		prefs, err = req.Preferences.ApplyTo(prefs)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
	}

	h.compute(w, state, prefs, append(warnings, validation.ValidateState(state)...), start, op)
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing household file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read household file: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	prefs, err := h.basePreferences(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	prefs, err = cfg.Overrides.ApplyTo(prefs)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.compute(w, cfg.State(), prefs, cfg.ValidateConfiguration(), start, op)
}

func (h *handler) compute(w http.ResponseWriter, state household.State, prefs household.Preferences, warnings []string, start time.Time, op string) {
	report := affordability.Analyze(h.logger, state, prefs)

	var csvBuf bytes.Buffer
	if err := output.WriteCSV(&csvBuf, report); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	if warnings == nil {
		warnings = []string{}
	}
	elapsed := time.Since(start)
	response := affordabilityResponse{
		Report:      report,
		Preferences: prefs,
		Warnings:    warnings,
		CSV:         csvBuf.String(),
		Duration:    elapsed.String(),
	}

	h.logger.Info("affordability computed",
		zap.String("op", op),
		zap.Float64("recommended", report.RecommendedCapacity),
		zap.Bool("enough", report.HasEnoughBuyingPower),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) basePreferences(r *http.Request) (household.Preferences, error) {
	if h.repo == nil {
		return household.DefaultPreferences(), nil
	}
	return h.repo.LoadPreferences(r.Context())
}

func (h *handler) handleBrackets(w http.ResponseWriter, r *http.Request) {
	firstHome := true
	if raw := r.URL.Query().Get("firstHome"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid firstHome value %q", raw), "server.handleBrackets")
			return
		}
		firstHome = parsed
	}

	brackets := tax.DefaultBrackets(firstHome)
	h.writeJSON(w, http.StatusOK, bracketsResponse{
		IsFirstHome: firstHome,
		Brackets:    brackets,
		NextCeiling: tax.NextCeiling(brackets),
	})
}

func (h *handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetState"
	if !h.requireRepo(w, op) {
		return
	}

	state, err := h.repo.LoadState(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	record := snapshot.FromState(state)
	if r.URL.Query().Get("format") == "yaml" {
		data, err := yaml.Marshal(record)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode household: %v", err), op)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			h.logger.Error("failed to write YAML response", zap.String("op", op), zap.Error(err))
		}
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *handler) handlePutState(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePutState"
	if !h.requireRepo(w, op) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var record snapshot.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode household: %v", err), op)
		return
	}

	state, _ := snapshot.Normalize(record)
	if err := tax.Validate(state.PurchaseTaxPolicy.Brackets); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := h.repo.SaveState(r.Context(), state); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot.FromState(state))
}

func (h *handler) handleSetBracket(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSetBracket"
	if !h.requireRepo(w, op) {
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid bracket index: %v", err), op)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var bracket tax.Bracket
	if err := json.NewDecoder(r.Body).Decode(&bracket); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode bracket: %v", err), op)
		return
	}

	brackets, err := h.repo.SetBracket(r.Context(), index, bracket)
	h.respondBrackets(w, brackets, err, op)
}

func (h *handler) handleRemoveBracket(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRemoveBracket"
	if !h.requireRepo(w, op) {
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid bracket index: %v", err), op)
		return
	}

	brackets, err := h.repo.RemoveBracket(r.Context(), index)
	h.respondBrackets(w, brackets, err, op)
}

func (h *handler) respondBrackets(w http.ResponseWriter, brackets []tax.Bracket, err error, op string) {
	if err != nil {
		status := http.StatusInternalServerError
		if isBracketError(err) {
			status = http.StatusBadRequest
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}
	if brackets == nil {
		brackets = []tax.Bracket{}
	}
	h.writeJSON(w, http.StatusOK, bracketTableResponse{
		Brackets:    brackets,
		NextCeiling: tax.NextCeiling(brackets),
	})
}

// isBracketError reports whether err rejects a bracket edit rather than
// signalling a storage failure.
func isBracketError(err error) bool {
	for _, target := range []error{
		tax.ErrTooManyBrackets,
		tax.ErrNotAscending,
		tax.ErrRateOutOfRange,
		tax.ErrMissingSentinel,
		tax.ErrIndexOutOfRange,
		tax.ErrNonPositiveLimit,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (h *handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respondErrorWithOp(w, http.StatusMethodNotAllowed,
		fmt.Sprintf("method %s not allowed for %s", r.Method, r.URL.Path), "server.handleMethodNotAllowed")
}

func (h *handler) handleResetState(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleResetState"
	if !h.requireRepo(w, op) {
		return
	}

	if err := h.repo.Reset(r.Context()); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot.FromState(household.NewState()))
}

func (h *handler) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetPreferences"
	if !h.requireRepo(w, op) {
		return
	}

	prefs, err := h.repo.LoadPreferences(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, prefs)
}

func (h *handler) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePutPreferences"
	if !h.requireRepo(w, op) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var overrides config.PreferencesConfig
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode preferences: %v", err), op)
		return
	}

	current, err := h.repo.LoadPreferences(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	prefs, err := overrides.ApplyTo(current)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := h.repo.SavePreferences(r.Context(), prefs); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, prefs)
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) requireRepo(w http.ResponseWriter, op string) bool {
	if h.repo != nil {
		return true
	}
	h.respondErrorWithOp(w, http.StatusServiceUnavailable, "persistent store is not configured", op)
	return false
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
