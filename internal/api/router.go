// Package api serves an entity registry over the REST shape consumed by
// datasource.HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rebeliceyang/lazyadmin/internal/datasource"
	"github.com/rebeliceyang/lazyadmin/internal/entity"
	"github.com/rebeliceyang/lazyadmin/internal/models"
	"github.com/rs/zerolog"
)

type contextKey string

const entityKey contextKey = "entity"

// Handler serves one registry
type Handler struct {
	registry *entity.Registry
	log      zerolog.Logger
}

// NewRouter builds the routes:
//
//	GET    /                 entity names
//	GET    /{entity}         one page, see datasource.EncodePageQuery
//	POST   /{entity}         create
//	GET    /{entity}/{key}   fetch
//	PATCH  /{entity}/{key}   update
//	DELETE /{entity}/{key}   delete
//
// Operations the entity lacks answer 405.
func NewRouter(registry *entity.Registry, log zerolog.Logger) http.Handler {
	h := &Handler{
		registry: registry,
		log:      log.With().Str("component", "api").Logger(),
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/", h.handleEntities)
	r.Route("/{entity}", func(r chi.Router) {
		r.Use(h.resolveEntity)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{key}", h.handleGet)
		r.Patch("/{key}", h.handleUpdate)
		r.Delete("/{key}", h.handleDelete)
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}

func (h *Handler) resolveEntity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "entity")
		e, ok := h.registry.Get(name)
		if !ok {
			http.Error(w, "unknown entity "+name, http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withEntity(r.Context(), e)))
	})
}

func (h *Handler) handleEntities(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Names())
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	e := entityFrom(r.Context())
	req, err := datasource.DecodePageQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PageSize == 0 {
		req.PageSize = e.Size()
	}
	result, err := e.Ops.FetchPage(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if result.Data == nil {
		result.Data = []models.Item{}
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	e := entityFrom(r.Context())
	item, err := e.Ops.FetchItem(r.Context(), models.Key(chi.URLParam(r, "key")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	e := entityFrom(r.Context())
	if !e.Ops.CanCreate() {
		h.writeError(w, datasource.ErrUnsupported)
		return
	}
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}
	created, err := e.Ops.CreateItem(r.Context(), item)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	e := entityFrom(r.Context())
	if !e.Ops.CanUpdate() {
		h.writeError(w, datasource.ErrUnsupported)
		return
	}
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}
	updated, err := e.Ops.UpdateItem(r.Context(), models.Key(chi.URLParam(r, "key")), item)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	e := entityFrom(r.Context())
	if !e.Ops.CanDelete() {
		h.writeError(w, datasource.ErrUnsupported)
		return
	}
	if err := e.Ops.DeleteItem(r.Context(), models.Key(chi.URLParam(r, "key"))); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeItem(w http.ResponseWriter, r *http.Request) (models.Item, bool) {
	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return item, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, datasource.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, datasource.ErrUnsupported):
		status = http.StatusMethodNotAllowed
	}
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn().Err(err).Msg("Failed to write response")
	}
}
