package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-profiles/platform/go/requesttrace"
)

// MappingResult reports the outcome of ProposeMapping. ToSlug is the target actually recorded,
// which is the fully resolved target of the requested slug. Updated is false when nothing was appended.
type MappingResult struct {
	FromSlug  string
	ToSlug    string
	Updated   bool
	CreatedAt time.Time
}

// ProposeMapping registers from -> to. The current log is read fresh from the store, so the cycle and
// no-op checks never run against a stale snapshot. The shared snapshot is left untouched; callers
// invalidate it when they need the write visible before the TTL lapses.
func (s *service) ProposeMapping(ctx context.Context, audit requesttrace.AuditInfo, from, to string) (MappingResult, error) {
	fromSlug := normalizeSlug(from)
	toSlug := normalizeSlug(to)

	if err := validateMapping(fromSlug, toSlug); err != nil {
		mappingProposals.WithLabelValues("invalid").Inc()
		return MappingResult{}, err
	}

	edges, err := s.store.ListEdges(ctx)
	if err != nil {
		mappingProposals.WithLabelValues("error").Inc()
		return MappingResult{}, fmt.Errorf("%w: load edges: %w", ErrStoreUnavailable, err)
	}

	mappings, effective, _ := foldEdges(edges)

	finalFromTarget := resolveFinal(mappings, fromSlug, newVisitedSet())
	finalDesiredTarget := resolveFinal(mappings, toSlug, newVisitedSet())

	if finalDesiredTarget == fromSlug {
		mappingProposals.WithLabelValues("cycle").Inc()
		return MappingResult{}, &CycleError{From: fromSlug, To: toSlug, FinalTarget: finalDesiredTarget}
	}

	if direct, ok := mappings[fromSlug]; (ok && direct == finalDesiredTarget) || finalFromTarget == finalDesiredTarget {
		mappingProposals.WithLabelValues("noop").Inc()
		return MappingResult{
			FromSlug:  fromSlug,
			ToSlug:    finalDesiredTarget,
			Updated:   false,
			CreatedAt: effective[fromSlug].CreatedAt,
		}, nil
	}

	appended, err := s.store.AppendEdge(ctx, Edge{
		From:      fromSlug,
		To:        finalDesiredTarget,
		CreatedAt: s.now().UTC(),
		CreatedBy: actorFromAudit(audit),
	})
	if err != nil {
		mappingProposals.WithLabelValues("error").Inc()
		return MappingResult{}, fmt.Errorf("%w: append edge: %w", ErrStoreUnavailable, err)
	}

	mappingProposals.WithLabelValues("updated").Inc()
	s.logger.Info("slug mapping recorded",
		zap.String("from_slug", fromSlug),
		zap.String("requested_to_slug", toSlug),
		zap.String("to_slug", finalDesiredTarget),
		zap.String("created_by", appended.CreatedBy),
	)

	return MappingResult{
		FromSlug:  fromSlug,
		ToSlug:    finalDesiredTarget,
		Updated:   true,
		CreatedAt: appended.CreatedAt,
	}, nil
}

func validateMapping(from, to string) error {
	fields := FieldErrors{}
	if from == "" {
		fields["fromSlug"] = append(fields["fromSlug"], "is required")
	}
	if to == "" {
		fields["toSlug"] = append(fields["toSlug"], "is required")
	}
	if from != "" && from == to {
		fields["toSlug"] = append(fields["toSlug"], "must differ from fromSlug")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func actorFromAudit(audit requesttrace.AuditInfo) string {
	if audit.UserID != nil && *audit.UserID != "" {
		return *audit.UserID
	}
	if audit.ActorKind != "" {
		return string(audit.ActorKind)
	}
	return string(requesttrace.ActorKindSystem)
}
