package books

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"governance-gateway/middleware/failure"
	"governance-gateway/middleware/normalize"
	"governance-gateway/middleware/ratelimit"
	"governance-gateway/middleware/ratelimit/domain"

	"github.com/go-chi/chi/v5"
)

const maxBody = 1 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Routes monta /books. Listagem é frequent (intensive com filtro de busca),
// leitura por id é frequent e mutações são secure. l nil desliga a quota.
func (h *Handler) Routes(r chi.Router, n *normalize.Normalizer, l *ratelimit.Limiter) {
	by := func(fn ratelimit.ClassFunc) func(http.Handler) http.Handler {
		if l == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return l.By(fn)
	}
	fixed := func(class domain.RouteClass) func(http.Handler) http.Handler {
		return by(func(*http.Request) domain.RouteClass { return class })
	}

	r.Route("/books", func(r chi.Router) {
		r.With(by(ratelimit.MethodClass(SearchParams...))).Method(http.MethodGet, "/", n.Handle(h.list))
		r.With(fixed(domain.ClassFrequent)).Method(http.MethodGet, "/{id}", n.Handle(h.get))
		r.With(fixed(domain.ClassSecure)).Method(http.MethodPost, "/", n.Handle(h.create))
		r.With(fixed(domain.ClassSecure)).Method(http.MethodPatch, "/{id}", n.Handle(h.update))
		r.With(fixed(domain.ClassSecure)).Method(http.MethodDelete, "/{id}", n.Handle(h.remove))
	})
}

func (h *Handler) list(r *http.Request) (normalize.Result, error) {
	f, p, err := ParseQuery(r.URL.Query())
	if err != nil {
		return normalize.Result{}, err
	}
	page, err := h.svc.List(r.Context(), f, p)
	if err != nil {
		return normalize.Result{}, err
	}
	return normalize.OK(page), nil
}

func (h *Handler) get(r *http.Request) (normalize.Result, error) {
	id, err := parseID(r)
	if err != nil {
		return normalize.Result{}, err
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		return normalize.Result{}, err
	}
	return normalize.OK(b), nil
}

func (h *Handler) create(r *http.Request) (normalize.Result, error) {
	var in CreateInput
	if err := decodeJSON(r, &in); err != nil {
		return normalize.Result{}, err
	}
	b, err := h.svc.Create(r.Context(), in)
	if err != nil {
		return normalize.Result{}, err
	}
	return normalize.Created(b), nil
}

func (h *Handler) update(r *http.Request) (normalize.Result, error) {
	id, err := parseID(r)
	if err != nil {
		return normalize.Result{}, err
	}
	var in UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		return normalize.Result{}, err
	}
	b, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		return normalize.Result{}, err
	}
	return normalize.OK(b), nil
}

type deleted struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

func (h *Handler) remove(r *http.Request) (normalize.Result, error) {
	id, err := parseID(r)
	if err != nil {
		return normalize.Result{}, err
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		return normalize.Result{}, err
	}
	return normalize.OK(deleted{ID: id, Deleted: true}), nil
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &failure.InvalidInput{Message: "book id must be a number", Err: err}
	}
	return id, nil
}

// decodeJSON rejeita campos desconhecidos e tipos errados como violações de
// validação; corpo ausente ou quebrado é INVALID_INPUT.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return &failure.InvalidInput{Message: "request body is required"}
	case errors.As(err, &typeErr):
		v := &failure.Validation{}
		return v.Add(typeErr.Field, "type", fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)).Err()
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		v := &failure.Validation{}
		return v.Add(field, "whitelist", fmt.Sprintf("property %s should not exist", field)).Err()
	default:
		return &failure.InvalidInput{Message: "malformed JSON body", Err: err}
	}
}
