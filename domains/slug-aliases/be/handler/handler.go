package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
	platformlogging "github.com/zenGate-Global/palmyra-profiles/platform/go/logging"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/requesttrace"
)

const (
	problemTypeValidation = "https://palmyra.pro/problems/validation-error"
	problemTypeNotFound   = "https://palmyra.pro/problems/not-found"
	problemTypeConflict   = "https://palmyra.pro/problems/conflict"
	problemTypeInternal   = "https://palmyra.pro/problems/internal-error"

	contentTypeJSON    = "application/json"
	contentTypeProblem = "application/problem+json"

	maxProposalBody = 64 << 10
)

type operation string

const (
	resolveOperation    operation = "resolveSlug"
	aliasesOperation    operation = "getSlugAliases"
	sourceOperation     operation = "getSlugSource"
	listOperation       operation = "listSlugAliases"
	proposeOperation    operation = "proposeSlugAlias"
	invalidateOperation operation = "invalidateSlugIndex"
)

var errSourceNotFound = errors.New("no slug maps to the requested target")

// Handler exposes the slug aliases service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("slug aliases service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// PublicRoutes registers the read endpoints. They never fail because of the alias store.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/slugs/{slug}/resolve", h.ResolveSlug)
	r.Get("/slugs/{slug}/aliases", h.GetSlugAliases)
	r.Get("/slugs/{slug}/source", h.GetSlugSource)
}

// AdminRoutes registers the write endpoints. The caller is responsible for the admin gate.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/admin/slug-aliases", h.ListSlugAliases)
	r.Post("/admin/slug-aliases", h.ProposeSlugAlias)
	r.Post("/admin/slug-aliases/invalidate", h.InvalidateSlugIndex)
}

// slugParam returns the decoded {slug} path segment. chi hands back the escaped form whenever the
// request carries a RawPath, so "My%20Slug" and "A%2FB" must be unescaped before normalization.
func slugParam(r *http.Request) string {
	raw := chi.URLParam(r, "slug")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (h *Handler) ResolveSlug(w http.ResponseWriter, r *http.Request) {
	result := h.svc.Lookup(r.Context(), slugParam(r))

	h.loggerFrom(r.Context()).Debug("slug resolved",
		zap.String("operation", string(resolveOperation)),
		zap.String("slug", result.Input),
		zap.String("action", string(result.Action)),
	)

	writeJSON(w, http.StatusOK, SlugLookup{
		Input:  result.Input,
		Target: result.Target,
		Action: string(result.Action),
	})
}

func (h *Handler) GetSlugAliases(w http.ResponseWriter, r *http.Request) {
	set := h.svc.GetSlugAliases(r.Context(), slugParam(r))

	aliases := set.Members
	if aliases == nil {
		aliases = []string{}
	}
	writeJSON(w, http.StatusOK, SlugAliasSet{Canonical: set.Canonical, Aliases: aliases})
}

func (h *Handler) GetSlugSource(w http.ResponseWriter, r *http.Request) {
	target := slugParam(r)
	source, ok := h.svc.GetReverseSlugSource(r.Context(), target)
	if !ok {
		h.writeError(w, r, errSourceNotFound, sourceOperation)
		return
	}

	writeJSON(w, http.StatusOK, SlugSource{Target: persistence.NormalizeSlug(target), Source: source})
}

func (h *Handler) ListSlugAliases(w http.ResponseWriter, r *http.Request) {
	edges, err := h.svc.ListEdges(r.Context())
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	items := make([]SlugAlias, 0, len(edges))
	for _, edge := range edges {
		items = append(items, SlugAlias{
			FromSlug:  edge.From,
			ToSlug:    edge.To,
			CreatedAt: edge.CreatedAt,
			CreatedBy: edge.CreatedBy,
		})
	}

	writeJSON(w, http.StatusOK, SlugAliasList{Items: items})
}

func (h *Handler) ProposeSlugAlias(w http.ResponseWriter, r *http.Request) {
	var body SlugAliasProposal
	if err := json.NewDecoder(io.LimitReader(r.Body, maxProposalBody)).Decode(&body); err != nil {
		problem := buildProblem("Invalid request body", "request body must be a JSON object with fromSlug and toSlug", problemTypeValidation, http.StatusBadRequest, nil)
		writeProblem(w, problem)
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	result, err := h.svc.ProposeMapping(r.Context(), audit, body.FromSlug, body.ToSlug)
	if err != nil {
		h.writeError(w, r, err, proposeOperation)
		return
	}

	if result.Updated {
		h.svc.Invalidate()
		h.loggerFrom(r.Context()).Info("slug alias recorded",
			zap.String("from_slug", result.FromSlug),
			zap.String("to_slug", result.ToSlug),
		)
	}

	response := SlugAliasResult{
		FromSlug: result.FromSlug,
		ToSlug:   result.ToSlug,
		Updated:  result.Updated,
	}
	if !result.CreatedAt.IsZero() {
		createdAt := result.CreatedAt
		response.CreatedAt = &createdAt
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) InvalidateSlugIndex(w http.ResponseWriter, r *http.Request) {
	h.svc.Invalidate()
	h.loggerFrom(r.Context()).Info("slug index invalidated", zap.String("operation", string(invalidateOperation)))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	_, problem := h.problemForError(r.Context(), err, op)
	writeProblem(w, problem)
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) (int, ProblemDetails) {
	status, title, detail, problemType, fieldErrors := h.classifyError(err)

	logger := h.loggerFrom(ctx)
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("slug aliases operation failed", append(fields, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("slug aliases resource not found", append(fields, zap.Error(err))...)
	default:
		logger.Warn("slug aliases request rejected", append(fields, zap.Error(err))...)
	}

	return status, buildProblem(title, detail, problemType, status, fieldErrors)
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors service.FieldErrors) {
	var validationErr *service.ValidationError
	var cycleErr *service.CycleError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest,
			"Validation failed",
			"one or more fields are invalid",
			problemTypeValidation,
			validationErr.Fields
	case errors.As(err, &cycleErr):
		return http.StatusConflict,
			"Mapping cycle",
			cycleErr.Error(),
			problemTypeConflict,
			nil
	case errors.Is(err, service.ErrMappingCycle):
		return http.StatusConflict,
			"Mapping cycle",
			"slug mapping would create a cycle",
			problemTypeConflict,
			nil
	case errors.Is(err, errSourceNotFound):
		return http.StatusNotFound,
			"Resource not found",
			errSourceNotFound.Error(),
			problemTypeNotFound,
			nil
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusInternalServerError,
			"Internal server error",
			"slug alias store unavailable",
			problemTypeInternal,
			nil
	default:
		return http.StatusInternalServerError,
			"Internal server error",
			"an unexpected error occurred",
			problemTypeInternal,
			nil
	}
}

func buildProblem(title, detail, problemType string, status int, fieldErrors service.FieldErrors) ProblemDetails {
	problem := ProblemDetails{
		Title:  title,
		Status: status,
	}

	if detail != "" {
		problem.Detail = &detail
	}
	if problemType != "" {
		problem.Type = &problemType
	}

	if len(fieldErrors) > 0 {
		copied := make(map[string][]string, len(fieldErrors))
		for field, messages := range fieldErrors {
			copied[field] = append([]string(nil), messages...)
		}
		problem.Errors = &copied
	}

	return problem
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeProblem(w http.ResponseWriter, problem ProblemDetails) {
	w.Header().Set("Content-Type", contentTypeProblem)
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// WriteProblem renders a bare problem document. Used by middleware that rejects requests before routing.
func WriteProblem(w http.ResponseWriter, status int, detail string) {
	problemType := problemTypeInternal
	title := http.StatusText(status)
	switch status {
	case http.StatusBadRequest:
		problemType = problemTypeValidation
	case http.StatusNotFound:
		problemType = problemTypeNotFound
	}
	writeProblem(w, buildProblem(title, detail, problemType, status, nil))
}
