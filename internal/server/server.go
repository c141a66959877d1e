package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/rental-forecast/internal/config"
	"github.com/iwvelando/rental-forecast/internal/forecast"
	"github.com/iwvelando/rental-forecast/internal/sweep"
	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/iwvelando/rental-forecast/pkg/loans"
	"github.com/iwvelando/rental-forecast/pkg/output"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	limits        Limits
}

type simulateOptions struct {
	Sweep bool
}

// NewHandler constructs the HTTP handler that serves the simulation API.
// Uploads requesting more work than limits allows are rejected.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, limits Limits) http.Handler {
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

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion, limits: limits}

	mux := http.NewServeMux()

	// Single run to the horizon (file upload)
	mux.HandleFunc("/api/simulate", h.handleSimulate)

	// Single run plus sensitivity sweep (file upload)
	mux.HandleFunc("/api/sweep", h.handleSweep)

	// Simulation endpoint for editor-driven updates
	mux.HandleFunc("/api/editor/simulate", h.handleSimulateEditor)

	// Config serialization endpoint for editor downloads
	mux.HandleFunc("/api/editor/export", h.handleConfigExport)

	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type simulateResponse struct {
	RunID      string                 `json:"runId"`
	StartDate  string                 `json:"startDate,omitempty"`
	Outcome    finance.Outcome        `json:"outcome"`
	Summaries  []finance.Summary      `json:"summaries"`
	Actions    []actionView           `json:"actions,omitempty"`
	CSV        string                 `json:"csv"`
	Sweep      *sweepView             `json:"sweep,omitempty"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

type actionView struct {
	finance.Action
	Description string `json:"description"`
}

type sweepView struct {
	*sweep.Result
	CSV string `json:"csv"`
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "server.handleSimulate", simulateOptions{})
}

func (h *handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "server.handleSweep", simulateOptions{Sweep: true})
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request, op string, opts simulateOptions) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
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
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
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
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	h.runSimulation(r.Context(), w, configBytes, configMap, start, op, opts)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleSimulateEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulateEditor"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid config payload: expected object", op)
			return
		}
		configPayload = cfgMap
	}

	options := simulateOptions{}
	if rawOptions, ok := payload["options"]; ok {
		optsMap, ok := rawOptions.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid options payload: expected object", op)
			return
		}
		if sweepVal, ok := optsMap["sweep"]; ok {
			options.Sweep = coerceBool(sweepVal)
		}
	}

	configBytes, err := yaml.Marshal(configPayload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse configuration: %v", err), op)
		return
	}

	h.runSimulation(r.Context(), w, configBytes, configMap, start, op, options)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// exportKeyOrder lists the top-level keys that lead an exported configuration.
var exportKeyOrder = []string{"logging", "output", "startDate", "parameters", "continuous", "sweep"}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range exportKeyOrder {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) runSimulation(ctx context.Context, w http.ResponseWriter, configBytes []byte, configMap map[string]interface{}, start time.Time, op string, opts simulateOptions) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if err := h.limits.CheckHorizon(cfg.Parameters); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	warnings := cfg.ValidateConfiguration()

	// An unparseable start date has already produced a warning; fall back to
	// month numbers.
	startDate, err := cfg.ResolvedStartDate(time.Now())
	if err != nil {
		startDate = ""
	}

	result, err := forecast.Simulate(ctx, h.logger, cfg.Parameters, startDate)
	if err != nil {
		var domainErr *loans.DomainError
		if errors.As(err, &domainErr) {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid parameters: %v", err), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute forecast: %v", err), op)
		return
	}

	var sweepResult *sweepView
	if opts.Sweep {
		if !cfg.Sweep.Enabled() {
			h.respondErrorWithOp(w, http.StatusBadRequest, "configuration has no sweep groups", op)
			return
		}
		sweepOpts := sweep.OptionsFromConfig(cfg)
		h.limits.Sweep.Apply(&sweepOpts)
		runner, err := sweep.NewRunner(h.logger, sweepOpts)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to initialize sweep: %v", err), op)
			return
		}
		swept, err := runner.Run(ctx)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, sweep.ErrBudgetExceeded) {
				status = http.StatusBadRequest
			}
			h.respondErrorWithOp(w, status, fmt.Sprintf("sweep execution failed: %v", err), op)
			return
		}
		sweepResult = &sweepView{Result: swept, CSV: output.SweepCsvString(swept)}
	}

	elapsed := time.Since(start)

	if configMap == nil {
		configMap = make(map[string]interface{})
	}

	response := simulateResponse{
		RunID:      result.RunID,
		StartDate:  result.StartDate,
		Outcome:    result.Outcome,
		Summaries:  result.Summaries,
		Actions:    buildActions(result.Actions),
		CSV:        output.CsvString(result),
		Sweep:      sweepResult,
		Warnings:   warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}

	h.logger.Info("simulation computed",
		zap.String("op", op),
		zap.String("runId", result.RunID),
		zap.Int("months", len(response.Summaries)),
		zap.Int("actions", len(response.Actions)),
		zap.Bool("sweep", sweepResult != nil),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func buildActions(actions []finance.Action) []actionView {
	if len(actions) == 0 {
		return nil
	}
	views := make([]actionView, len(actions))
	for i, action := range actions {
		views[i] = actionView{Action: action, Description: output.DescribeAction(action)}
	}
	return views
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
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

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false
		}
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		if parsed, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return parsed != 0
		}
	}
	return false
}
