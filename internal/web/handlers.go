package web

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"

	"github.com/premise-atlas/internal/adjudicate"
	"github.com/premise-atlas/internal/brand"
	"github.com/premise-atlas/internal/docstore"
	"github.com/premise-atlas/internal/facility"
	"github.com/premise-atlas/internal/source"
	"github.com/premise-atlas/internal/sweep"
	"github.com/premise-atlas/internal/truth"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorw("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, docstore.ErrNotFound) {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]interface{}{"ok": false, "error": err.Error()})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": msg})
}

// serveDoc reads a named document and returns it verbatim.
func (s *Server) serveDoc(w http.ResponseWriter, name string) {
	var doc json.RawMessage
	if err := s.store.Read(name, &doc); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (s *Server) handleTruthAddresses(w http.ResponseWriter, r *http.Request) {
	s.serveDoc(w, truth.AddressTruthDoc)
}

func (s *Server) handleTruthCities(w http.ResponseWriter, r *http.Request) {
	s.serveDoc(w, truth.CityTruthDoc)
}

func (s *Server) handleTruthTab(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var doc truth.CityDoc
	if err := s.store.Read(truth.CityTruthDoc, &doc); err != nil {
		s.writeError(w, err)
		return
	}
	rows := truth.FilterTab(name, doc.Rows, s.thresholds)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":   true,
		"tab":  name,
		"rows": rows,
		"counts": map[string]int{
			"rows":  len(rows),
			"total": len(doc.Rows),
		},
	})
}

func (s *Server) handleTruthBuild(w http.ResponseWriter, r *http.Request) {
	stats, err := truth.Build(s.store, brand.Load(s.store), s.thresholds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "stats": stats})
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	s.serveDoc(w, facility.DirectoryDoc)
}

type importRequest struct {
	Log  string       `json:"log"`
	Rows []source.Row `json:"rows"`
}

func (s *Server) handleFacilityPreview(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid import body")
		return
	}
	res, err := s.resolver.Preview(req.Rows)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "preview": res})
}

func (s *Server) handleFacilityCommit(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid import body")
		return
	}
	if req.Log == "" {
		s.writeBadRequest(w, "seed log name required")
		return
	}
	res, err := s.resolver.Commit(req.Log, req.Rows)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "commit": res})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	s.serveDoc(w, sweep.SweepDoc)
}

type sweepRunRequest struct {
	Scope []string `json:"scope,omitempty"`
}

func (s *Server) handleSweepRun(w http.ResponseWriter, r *http.Request) {
	var req sweepRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeBadRequest(w, "invalid sweep body")
			return
		}
	}
	doc, err := s.runner.Run(r.Context(), sweep.RunOptions{Scope: req.Scope})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"counts":   doc.Counts,
		"provider": doc.Provider,
	})
}

func (s *Server) handleAdjudications(w http.ResponseWriter, r *http.Request) {
	s.serveDoc(w, adjudicate.AdjudicationsDoc)
}

func (s *Server) handleAdjudicationUpsert(w http.ResponseWriter, r *http.Request) {
	var adj adjudicate.Adjudication
	if err := json.NewDecoder(r.Body).Decode(&adj); err != nil {
		s.writeBadRequest(w, "invalid adjudication body")
		return
	}
	if err := s.adjStore.Upsert(adj); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

type bulkAdjudicationRequest struct {
	Items []adjudicate.Adjudication `json:"items"`
}

func (s *Server) handleAdjudicationBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkAdjudicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid bulk adjudication body")
		return
	}
	changed, err := s.adjStore.BulkUpsert(req.Items)
	if err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "changed": changed})
}

func (s *Server) handleEffective(w http.ResponseWriter, r *http.Request) {
	s.serveDoc(w, adjudicate.EffectiveDoc)
}

func (s *Server) handleEffectiveBuild(w http.ResponseWriter, r *http.Request) {
	rows, err := adjudicate.BuildEffective(s.store, s.adjStore)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "rows": rows})
}
