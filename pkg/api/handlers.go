package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/buildinfo"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/pipeline"
	"github.com/matzehuels/stackwright/pkg/render"
	"github.com/matzehuels/stackwright/pkg/state"
)

// =============================================================================
// Service
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Reload(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"parts":       s.runner.PartNames(),
		"fingerprint": s.runner.Fingerprint(),
	})
}

// =============================================================================
// Parts
// =============================================================================

type partResponse struct {
	Name     string               `json:"name"`
	Variants []string             `json:"variants"`
	Fields   []assembly.FieldInfo `json:"fields"`
	Defaults assembly.Snapshot    `json:"defaults"`
}

func (s *Server) handleListParts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"parts": s.runner.PartNames()})
}

func (s *Server) handleGetPart(w http.ResponseWriter, r *http.Request) {
	a, err := s.runner.Build(pipeline.BuildOptions{Part: chi.URLParam(r, "part")})
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, _, err := s.runner.Inspect(r.Context(), a)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, partResponse{
		Name:     a.Config().Name,
		Variants: a.Variants(),
		Fields:   a.Fields(),
		Defaults: snap,
	})
}

// =============================================================================
// Instances
// =============================================================================

type createRequest struct {
	Part string `json:"part"`
	// Load names a persisted instance to restore.
	Load string `json:"load,omitempty"`
	// State is restored when given inline.
	State *state.State `json:"state,omitempty"`
}

type instanceResponse struct {
	ID       string             `json:"id"`
	Part     string             `json:"part"`
	Created  time.Time          `json:"created"`
	Snapshot *assembly.Snapshot `json:"snapshot,omitempty"`
}

func (inst *instance) response(withSnapshot bool) instanceResponse {
	resp := instanceResponse{ID: inst.id, Part: inst.part, Created: inst.created}
	if withSnapshot {
		snap := inst.a.Snapshot()
		resp.Snapshot = &snap
	}
	return resp
}

func (s *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	id := s.newID()
	var (
		a   *assembly.Assembly
		err error
	)
	switch {
	case req.Load != "":
		a, err = s.runner.Load(r.Context(), req.Part, req.Load)
	case req.State != nil:
		if err = req.State.Validate(); err == nil {
			a, err = s.runner.Build(pipeline.BuildOptions{Part: req.Part, State: req.State, Instance: id})
		}
	default:
		a, err = s.runner.Build(pipeline.BuildOptions{Part: req.Part, Instance: id})
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	inst := s.add(a, id)
	s.logger.Info("Created instance", "id", id, "part", inst.part)
	s.writeJSON(w, http.StatusCreated, inst.response(true))
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	insts := s.list()
	out := make([]instanceResponse, len(insts))
	for i, inst := range insts {
		out[i] = inst.response(false)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"instances": out})
}

// withInstance resolves {id} and runs fn under the instance lock.
func (s *Server) withInstance(w http.ResponseWriter, r *http.Request, fn func(inst *instance)) {
	inst, err := s.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	fn(inst)
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	s.withInstance(w, r, func(inst *instance) {
		s.writeJSON(w, http.StatusOK, inst.response(true))
	})
}

func (s *Server) handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.remove(id) {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no instance %q", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Fields
// =============================================================================

func (s *Server) handleGetFields(w http.ResponseWriter, r *http.Request) {
	s.withInstance(w, r, func(inst *instance) {
		s.writeJSON(w, http.StatusOK, map[string]any{"fields": inst.a.Fields()})
	})
}

type setFieldRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	f, err := assembly.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req setFieldRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.withInstance(w, r, func(inst *instance) {
		if err := inst.a.SetField(f, req.Value); err != nil {
			s.writeError(w, err)
			return
		}
		info, _ := inst.a.Field(f)
		s.writeJSON(w, http.StatusOK, map[string]any{"field": info, "snapshot": inst.a.Snapshot()})
	})
}

// handlePatchFields applies several edits in display order, so a variant
// change lands before a core model pick from that variant.
func (s *Server) handlePatchFields(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	edits := make(map[assembly.Field]string, len(req))
	for name, v := range req {
		f, err := assembly.ParseField(name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		edits[f] = v
	}
	s.withInstance(w, r, func(inst *instance) {
		for _, f := range assembly.AllFields {
			v, ok := edits[f]
			if !ok {
				continue
			}
			if err := inst.a.SetField(f, v); err != nil {
				s.writeError(w, err)
				return
			}
		}
		s.writeJSON(w, http.StatusOK, inst.response(true))
	})
}

// =============================================================================
// State and exports
// =============================================================================

var contentTypes = map[state.Format]string{
	state.FormatJSON:    "application/json",
	state.FormatYAML:    "application/yaml",
	state.FormatTOML:    "application/toml",
	state.FormatMsgpack: "application/msgpack",
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	format := state.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := state.ParseFormat(q)
		if err != nil {
			s.writeError(w, err)
			return
		}
		format = f
	}
	s.withInstance(w, r, func(inst *instance) {
		data, err := state.Marshal(inst.a.State(), format)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentTypes[format])
		w.Write(data)
	})
}

type saveRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.withInstance(w, r, func(inst *instance) {
		name := req.Name
		if name == "" {
			name = inst.id
		}
		if err := s.runner.Save(r.Context(), name, inst.a); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"part": inst.part, "name": name})
	})
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	cells := 0
	if q := r.URL.Query().Get("cells"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 8 || n > 1000 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidValue, "cells must be an integer in [8, 1000]"))
			return
		}
		cells = n
	}
	s.withInstance(w, r, func(inst *instance) {
		data, hit, err := s.runner.ExportSTL(r.Context(), inst.a, cells)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "model/stl")
		w.Header().Set("Content-Disposition", `attachment; filename="`+inst.part+`.stl"`)
		w.Header().Set("X-Cache", cacheHeader(hit))
		w.Write(data)
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := render.FormatSVG
	switch q.Get("format") {
	case "", "svg":
	case "dot":
		format = render.FormatDOT
	default:
		s.writeError(w, errors.New(errors.ErrCodeInvalidFormat, "unsupported graph format %q", q.Get("format")))
		return
	}
	opts := render.Options{
		Detailed:   q.Get("detailed") == "true",
		Horizontal: q.Get("rankdir") == "LR",
	}
	s.withInstance(w, r, func(inst *instance) {
		data, hit, err := s.runner.ExportGraph(r.Context(), inst.a, format, opts)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if format == render.FormatDOT {
			w.Header().Set("Content-Type", "text/vnd.graphviz")
		} else {
			w.Header().Set("Content-Type", "image/svg+xml")
		}
		w.Header().Set("X-Cache", cacheHeader(hit))
		w.Write(data)
	})
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
