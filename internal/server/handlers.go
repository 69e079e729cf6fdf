package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/eufmd/pprcost/internal/logging"
	"github.com/eufmd/pprcost/pkg/aggregate"
	"github.com/eufmd/pprcost/pkg/campaign"
	"github.com/eufmd/pprcost/pkg/cost"
	"github.com/eufmd/pprcost/pkg/episystem"
	"github.com/eufmd/pprcost/pkg/export"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
	"github.com/eufmd/pprcost/pkg/validation"
)

// RequestIDHeader carries the id of every request and response.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		s.log.V(logging.DEBUG).Info("request", "id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// evaluateRequest is the body of POST /api/evaluate. Scenario holds partial
// overrides merged onto the project scenario. Selection restricts the
// evaluation to some countries and subregions.
type evaluateRequest struct {
	Scenario         json.RawMessage    `json:"scenario,omitempty"`
	Source           string             `json:"source,omitempty"`
	Level            string             `json:"level,omitempty"`
	BySpecies        bool               `json:"by_species,omitempty"`
	Episystems       bool               `json:"episystems,omitempty"`
	WithinEpisystems bool               `json:"within_episystems,omitempty"`
	Selection        campaign.Selection `json:"selection,omitempty"`
}

type evaluateResponse struct {
	RequestID   string                              `json:"request_id"`
	Source      population.Source                   `json:"source"`
	Scenario    scenario.Config                     `json:"scenario"`
	Excluded    []string                            `json:"excluded_countries"`
	Total       cost.Result                         `json:"total"`
	Rows        map[aggregate.Level][]aggregate.Row `json:"rows"`
	Episystems  []aggregate.Row                     `json:"episystems,omitempty"`
	Overlaps    []campaign.Overlap                  `json:"episystem_overlaps,omitempty"`
	Warnings    []validation.Result                 `json:"warnings,omitempty"`
	Consistency string                              `json:"consistency"`
}

func (s *Server) handleScenario(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg)
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	report := validation.ValidateScenario(s.cfg)
	for _, src := range []population.Source{population.SourceNational, population.SourceSubregional} {
		records, err := s.data.Records(src)
		if err != nil {
			continue
		}
		kept, _ := population.Exclude(records, s.cfg.ExcludedCountries)
		report.Merge(validation.ValidateCoverage(s.cfg, population.Regions(kept), population.SpeciesOf(kept)))
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			s.badRequest(w, r, fmt.Errorf("decoding request: %w", err))
			return
		}
	}

	cfg, err := s.withOverrides(req.Scenario)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	src, err := population.ParseSource(req.Source)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var level aggregate.Level
	if req.Level != "" {
		var ok bool
		if level, ok = aggregate.ParseLevel(req.Level); !ok {
			s.badRequest(w, r, fmt.Errorf("unknown level %q", req.Level))
			return
		}
	}

	opts := s.campaignOptions(req.BySpecies, req.Episystems)
	if req.WithinEpisystems {
		opts = append(opts, campaign.WithinEpisystems(s.catalog))
	}
	if len(req.Selection) > 0 {
		opts = append(opts, campaign.Select(req.Selection))
	}
	out, err := s.evaluate(cfg, src, opts...)
	if err != nil {
		s.evaluationError(w, r, err)
		return
	}

	rows := out.Tables.Rows
	if level != "" {
		rows = map[aggregate.Level][]aggregate.Row{level: out.Tables.Level(level)}
	}
	s.log.Info("evaluated scenario", "request_id", requestID(r), "source", src,
		"records", len(out.Entries), "total_cost", out.Total().TotalCost.StringFixed(2))

	writeJSON(w, http.StatusOK, evaluateResponse{
		RequestID:   requestID(r),
		Source:      src,
		Scenario:    out.Scenario,
		Excluded:    out.Excluded,
		Total:       out.Total(),
		Rows:        rows,
		Episystems:  out.Episystems,
		Overlaps:    out.Overlaps,
		Warnings:    out.Warnings,
		Consistency: aggregate.CheckConsistency(out.Tables).Summary,
	})
}

// withOverrides merges a partial scenario onto the project scenario. Stability
// indexes in the overrides replace the project's entry for the same country
// under any spelling.
func (s *Server) withOverrides(raw json.RawMessage) (scenario.Config, error) {
	cfg := s.cfg.Clone()
	if len(raw) == 0 {
		return cfg, nil
	}
	base := cfg.PoliticalStability.IndexByCountry
	cfg.PoliticalStability.IndexByCountry = nil

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return scenario.Config{}, fmt.Errorf("decoding scenario overrides: %w", err)
	}
	cfg.PoliticalStability.IndexByCountry = scenario.MergeIndexes(cfg.PoliticalStability.IndexByCountry, base)
	return cfg, nil
}

func (s *Server) handleBands(w http.ResponseWriter, r *http.Request) {
	src, err := population.ParseSource(r.URL.Query().Get("source"))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	records, err := s.data.Records(src)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	bands, err := campaign.EvaluateBands(s.cfg, records)
	if err != nil {
		s.evaluationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": requestID(r),
		"source":     src,
		"bands":      bands,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	table := q.Get("table")
	if table == "" {
		table = string(aggregate.LevelCountry)
	}
	src, err := population.ParseSource(q.Get("source"))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	bySpecies, _ := strconv.ParseBool(q.Get("species"))

	var level aggregate.Level
	switch table {
	case "entities", string(episystem.Level):
	default:
		var ok bool
		if level, ok = aggregate.ParseLevel(table); !ok {
			s.badRequest(w, r, fmt.Errorf("unknown table %q", table))
			return
		}
	}

	out, err := s.evaluate(s.cfg, src, s.campaignOptions(bySpecies, table == string(episystem.Level))...)
	if err != nil {
		s.evaluationError(w, r, err)
		return
	}

	var buf bytes.Buffer
	switch {
	case table == "entities":
		err = export.WriteEntities(&buf, out.Entries)
	case table == string(episystem.Level):
		err = export.WriteRows(&buf, out.Episystems)
	default:
		err = export.WriteRows(&buf, out.Tables.Level(level))
	}
	if err != nil {
		s.log.Error(err, "writing export", "request_id", requestID(r))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="pprcost-%s-%s.csv"`, src, table))
	w.Write(buf.Bytes())
}

func (s *Server) campaignOptions(bySpecies, episystems bool) []campaign.Option {
	var opts []campaign.Option
	if bySpecies {
		opts = append(opts, campaign.BySpecies())
	}
	if episystems {
		opts = append(opts, campaign.WithEpisystems(s.catalog))
	}
	return opts
}

func (s *Server) evaluate(cfg scenario.Config, src population.Source, opts ...campaign.Option) (*campaign.Outcome, error) {
	records, err := s.data.Records(src)
	if err != nil {
		return nil, err
	}
	return campaign.Evaluate(cfg, records, opts...)
}

type errorResponse struct {
	RequestID  string                `json:"request_id"`
	Error      string                `json:"error"`
	Validation *validation.Report    `json:"validation,omitempty"`
	Record     *population.DataError `json:"record,omitempty"`
}

// evaluationError maps typed evaluation failures onto 422 responses.
func (s *Server) evaluationError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{RequestID: requestID(r), Error: err.Error()}
	var ce *validation.ConfigError
	var de *population.DataError
	switch {
	case errors.As(err, &ce):
		resp.Validation = ce.Report
	case errors.As(err, &de):
		resp.Record = de
	default:
		s.badRequest(w, r, err)
		return
	}
	s.log.Info("evaluation rejected", "request_id", resp.RequestID, "error", err.Error())
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.log.V(logging.DEBUG).Info("bad request", "request_id", requestID(r), "error", err.Error())
	writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: requestID(r), Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
