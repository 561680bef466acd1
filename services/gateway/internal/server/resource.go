package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shelfhub/internal/util"
	"shelfhub/pkg/entity"
)

// resource serves /<collection> and /<collection>/{id} for one entity.
type resource[T entity.Keyed] struct {
	name   string
	svc    entity.Service[T]
	withID func(T, int64) T
}

func (h *resource[T]) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, r)
	}
}

func (h *resource[T]) handleItem(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		h.fail(w, r, entity.Invalid(h.name, "invalid id"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		methodNotAllowed(w, r)
	}
}

func (h *resource[T]) list(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	items, err := h.svc.List(r.Context())
	observe(h.name, "list", start, err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *resource[T]) get(w http.ResponseWriter, r *http.Request, id int64) {
	start := time.Now()
	v, err := h.svc.Get(r.Context(), id)
	observe(h.name, "get", start, err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	var in T
	if err := decodeBody(r, &in); err != nil {
		h.fail(w, r, entity.Invalid(h.name, "invalid request body"))
		return
	}
	start := time.Now()
	v, err := h.svc.Create(r.Context(), in)
	observe(h.name, "create", start, err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// update takes the identifier from the path; any id in the body is ignored.
func (h *resource[T]) update(w http.ResponseWriter, r *http.Request, id int64) {
	var in T
	if err := decodeBody(r, &in); err != nil {
		h.fail(w, r, entity.Invalid(h.name, "invalid request body"))
		return
	}
	start := time.Now()
	v, err := h.svc.Update(r.Context(), h.withID(in, id))
	observe(h.name, "update", start, err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *resource[T]) delete(w http.ResponseWriter, r *http.Request, id int64) {
	start := time.Now()
	err := h.svc.Delete(r.Context(), id)
	observe(h.name, "delete", start, err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps an entity error onto the REST conventions: plain-text 404,
// JSON 400 and JSON 500 with a stable message.
func (h *resource[T]) fail(w http.ResponseWriter, r *http.Request, err error) {
	prefix := strings.ToUpper(h.name)
	switch entity.KindOf(err) {
	case entity.KindNotFound:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, h.name+" not found.")
	case entity.KindInvalid:
		writeError(w, r, http.StatusBadRequest, prefix+"_INVALID_REQUEST", entity.PublicMessage(err))
	default:
		util.LoggerFromContext(r.Context()).Error("entity backend failure", "entity", h.name, "err", err)
		code := "SYSTEM_INTERNAL_ERROR"
		if errors.Is(err, entity.ErrAlreadyExists) {
			code = prefix + "_ALREADY_EXISTS"
		}
		writeError(w, r, http.StatusInternalServerError, code, entity.PublicMessage(err))
	}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}
