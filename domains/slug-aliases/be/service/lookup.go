package service

import (
	"context"

	"go.uber.org/zap"
)

// Action tells routing middleware what to do with an incoming slug.
type Action string

const (
	ActionRedirect Action = "redirect"
	ActionPass     Action = "pass"
)

// LookupResult is the read endpoint payload. Target is nil when the input is blank or no
// mappings are currently known.
type LookupResult struct {
	Input  string
	Target *string
	Action Action
}

// Lookup resolves incoming for routing. When a forward is found and auto-canonicalization is on,
// the ensure-canonical collaborator is called in the background; its outcome never changes the result.
func (s *service) Lookup(ctx context.Context, incoming string) LookupResult {
	input := normalizeSlug(incoming)
	if input == "" {
		resolutions.WithLabelValues(string(ActionPass)).Inc()
		return LookupResult{Input: input, Action: ActionPass}
	}

	idx := s.ensureIndex(ctx)
	if idx == nil {
		resolutions.WithLabelValues(string(ActionPass)).Inc()
		return LookupResult{Input: input, Action: ActionPass}
	}

	target := resolveFinal(idx.byFrom, input, newVisitedSet())
	if target == input {
		resolutions.WithLabelValues(string(ActionPass)).Inc()
		return LookupResult{Input: input, Target: &target, Action: ActionPass}
	}

	resolutions.WithLabelValues(string(ActionRedirect)).Inc()
	s.ensureCanonicalAsync(ctx, target, input)
	return LookupResult{Input: input, Target: &target, Action: ActionRedirect}
}

func (s *service) ensureCanonicalAsync(ctx context.Context, canonical, alias string) {
	if !s.cfg.AutoCanonicalize || s.ensurer == nil {
		return
	}

	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CanonicalizeTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("ensure canonical panicked", zap.Any("panic", r), zap.String("canonical_slug", canonical))
			}
		}()

		if err := s.ensurer.EnsureCanonical(bgCtx, canonical, alias); err != nil {
			s.logger.Warn("ensure canonical failed",
				zap.String("canonical_slug", canonical),
				zap.String("alias_slug", alias),
				zap.Error(err),
			)
		}
	}()
}

// WaitForBackground blocks until background ensure-canonical calls started so far have finished.
// Used on shutdown and in tests.
func WaitForBackground(svc Service) {
	if s, ok := svc.(*service); ok {
		s.inflight.Wait()
	}
}
