package review

import (
	"context"
	"fmt"
	"strings"

	"file-hasher/core/reconcile"
	"file-hasher/core/script"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service computes plans for the configured manifest pair.
type Service struct {
	spec    *reconcile.Spec
	options reconcile.Options
	logger  *zap.Logger
	group   singleflight.Group
}

// NewService creates a new review service.
func NewService(spec *reconcile.Spec, options reconcile.Options, logger *zap.Logger) *Service {
	return &Service{
		spec:    spec,
		options: options,
		logger:  logger,
	}
}

// Plan loads both manifests and reconciles them. Concurrent callers share
// one load; the returned plan must be treated as read-only.
func (s *Service) Plan(ctx context.Context) (*reconcile.Plan, error) {
	result, err, shared := s.group.Do("plan", func() (interface{}, error) {
		return reconcile.ReconcileWithPlan(ctx, s.spec, s.options)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Shared in-flight plan")
	}
	return result.(*reconcile.Plan), nil
}

// Script renders the current plan as a shell script.
func (s *Service) Script(ctx context.Context) (string, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return "", err
	}
	source, destination := s.Describe()
	var buf strings.Builder
	if err := script.Write(&buf, plan, script.Options{Source: source, Destination: destination}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Duplicates returns the duplicate groups of one side. An empty side
// returns every group, as does either side of a self-comparison.
func (s *Service) Duplicates(ctx context.Context, side reconcile.Side) ([]reconcile.DuplicateGroup, error) {
	switch side {
	case "", reconcile.SideSource, reconcile.SideDestination:
	default:
		return nil, fmt.Errorf("unknown side %q", side)
	}

	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if side == "" {
		return plan.Groups, nil
	}
	groups := plan.Groups
	if !plan.SelfCompare {
		groups = plan.GroupsFor(side)
	}
	if groups == nil {
		groups = []reconcile.DuplicateGroup{}
	}
	return groups, nil
}

// Describe names the compared manifests.
func (s *Service) Describe() (source, destination string) {
	source = s.spec.Source.Name()
	if s.spec.Destination != nil {
		destination = s.spec.Destination.Name()
	}
	return source, destination
}
