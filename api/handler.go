package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "lease-analyzer/internal/errors"
	"lease-analyzer/internal/logging"
)

// handleAnalyze handles POST /api/lease-analysis
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req LeaseAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", "Invalid JSON body", http.StatusBadRequest)
		return
	}

	analysis, err := s.deps.Analyzer.Analyze(r.Context(), req.Terms())
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			s.writeValidationError(w, verr)
			return
		}
		logging.Error("lease analysis failed", zap.Error(err))
		s.writeError(w, "ANALYSIS_FAILED", "Failed to analyze lease", http.StatusInternalServerError)
		return
	}

	s.metrics.analyses.
		WithLabelValues(analysis.Quality.String(), analysis.VehicleValuation.Source.String()).
		Inc()
	s.writeJSON(w, NewLeaseAnalysisResponse(analysis), http.StatusOK)
}

func (s *Server) writeValidationError(w http.ResponseWriter, verr *apperrors.ValidationError) {
	resp := ErrorResponse{Message: "Invalid input data"}
	for _, f := range verr.Fields {
		resp.Errors = append(resp.Errors, FieldErrorEntry{Field: f.Field, Message: f.Message})
	}
	s.writeJSON(w, resp, http.StatusBadRequest)
}

// handleGetAnalysis handles GET /api/lease-analysis/{id}
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, "INVALID_ID", "Invalid analysis id", http.StatusBadRequest)
		return
	}

	analysis, err := s.deps.Analyses.Get(r.Context(), id)
	if apperrors.IsType(err, apperrors.TypeNotFound) {
		s.writeError(w, "NOT_FOUND", "Analysis not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("failed to load lease analysis", zap.Int64("id", id), zap.Error(err))
		s.writeError(w, "STORAGE_ERROR", "Failed to fetch analysis", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, NewLeaseAnalysisResponse(analysis), http.StatusOK)
}

// handleVehicleValue handles GET /api/vehicle-value/{vehicle}
func (s *Server) handleVehicleValue(w http.ResponseWriter, r *http.Request) {
	v, ok := s.deps.Valuator.Value(r.Context(), r.PathValue("vehicle"))
	if !ok {
		s.writeError(w, "NOT_FOUND", "Vehicle not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, newVehicleValueResponse(v), http.StatusOK)
}

// handleVehicleValues handles POST /api/vehicle-values
func (s *Server) handleVehicleValues(w http.ResponseWriter, r *http.Request) {
	var req VehicleValuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.Vehicles) == 0 {
		s.writeValidationError(w, &apperrors.ValidationError{Fields: []apperrors.FieldError{
			{Field: "vehicles", Message: "At least one vehicle is required"},
		}})
		return
	}
	if len(req.Vehicles) > s.deps.MaxBatch {
		s.writeValidationError(w, &apperrors.ValidationError{Fields: []apperrors.FieldError{
			{Field: "vehicles", Message: "At most " + strconv.Itoa(s.deps.MaxBatch) + " vehicles per request"},
		}})
		return
	}

	results := s.deps.Valuator.ValueMany(r.Context(), req.Vehicles)
	s.writeJSON(w, NewVehicleValuesResponse(results), http.StatusOK)
}

// handleCarModels handles GET /api/car-models
func (s *Server) handleCarModels(w http.ResponseWriter, r *http.Request) {
	models := []string{}
	if s.deps.Models != nil {
		models = s.deps.Models.Models()
	}
	s.writeJSON(w, models, http.StatusOK)
}

// handleStateTax handles GET /api/state-tax/{code}
func (s *Server) handleStateTax(w http.ResponseWriter, r *http.Request) {
	info, ok := s.deps.Taxes.Lookup(r.PathValue("code"))
	if !ok {
		s.writeError(w, "NOT_FOUND", "State not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, NewStateTaxResponse(info), http.StatusOK)
}

// handleStates handles GET /api/states
func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	all := s.deps.Taxes.All()
	out := make([]StateTaxResponse, 0, len(all))
	for _, info := range all {
		out = append(out, NewStateTaxResponse(info))
	}
	s.writeJSON(w, out, http.StatusOK)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.deps.Version,
		"time":    s.deps.Clock().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.deps.Version,
		"service":     "lease-analyzer",
		"api_version": "v1",
	}, http.StatusOK)
}
