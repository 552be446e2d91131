package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/scrape"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Download sources.
const (
	SourceSaved   = "saved"
	SourceResults = "results"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeParams reads and checks a search request body.
func (s *Server) decodeParams(r *http.Request) (model.SearchParams, error) {
	var p model.SearchParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return p, eris.New("invalid request body")
	}
	p.Keyword = strings.TrimSpace(p.Keyword)
	p.Location = strings.TrimSpace(p.Location)
	if p.Keyword == "" {
		return p, eris.New("keyword is required")
	}
	if p.MaxResults < 0 {
		return p, eris.New("max_results must not be negative")
	}
	if s.cfg.MaxResultsLimit > 0 && p.MaxResults > s.cfg.MaxResultsLimit {
		return p, eris.Errorf("max_results must be at most %d", s.cfg.MaxResultsLimit)
	}
	return p, nil
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	params, err := s.decodeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	leads, err := s.scraper.Scrape(r.Context(), params)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}

	s.setCurrent(leads)
	if s.store != nil {
		if _, err := s.store.AddHistory(r.Context(), params, len(leads), ""); err != nil {
			zap.L().Warn("api: record history", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": leads,
		"count":   len(leads),
	})
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	params, err := s.decodeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := scrape.ResolvePlatform(params.Platform); err != nil {
		writeFailure(w, r, err)
		return
	}

	id, err := s.jobs.Submit(r.Context(), params)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"job_id": id,
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Poll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := s.store.ListHistory(r.Context(), limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if history == nil {
		history = []model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.store.ListLeads(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if leads == nil {
		leads = []model.SavedLead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (s *Server) handleSaveLead(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.store.SaveLead(r.Context(), lead)
	if errors.Is(err, store.ErrEmptyLeadID) {
		writeError(w, http.StatusBadRequest, "lead id is required")
		return
	}
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"lead":   saved,
	})
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.DeleteLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleDownload exports bookmarked leads, or the last synchronous scrape
// with ?source=results.
func (s *Server) handleDownload(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var leads []model.Lead
		switch src := r.URL.Query().Get("source"); src {
		case "", SourceSaved:
			saved, err := s.store.ListLeads(r.Context())
			if err != nil {
				writeFailure(w, r, err)
				return
			}
			leads = export.Leads(saved)
		case SourceResults:
			leads = s.currentResults()
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", src))
			return
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, format, leads); err != nil {
			writeFailure(w, r, err)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", export.Filename(format, s.nowFunc())))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			zap.L().Debug("api: write download", zap.Error(err))
		}
	}
}

func (s *Server) handleCostAnalysis(w http.ResponseWriter, r *http.Request) {
	var sizes []int
	if v := r.URL.Query().Get("sizes"); v != "" {
		for _, part := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid size %q", part))
				return
			}
			sizes = append(sizes, n)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   s.calc.Analysis(sizes),
	})
}
