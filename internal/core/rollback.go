package core

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tripzi/tripzi-backend/internal/models"
)

const (
	auditActionUnderageRollback = "ONBOARDING_UNDERAGE_ROLLBACK"
	rollbackTimeout             = 10 * time.Second
)

// deletionOutcome is the result of one rollback step.
type deletionOutcome struct {
	Target string
	Err    error
}

func (o deletionOutcome) status() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return "deleted"
}

// rollbackUnderage tears down every trace of an under-age signup. Each
// deletion runs independently; outcomes are recorded but never returned.
func (s *onboardingService) rollbackUnderage(ctx context.Context, caller Caller, age int) []deletionOutcome {
	// The caller may hang up once it sees the error; the deletions must still run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	steps := []struct {
		target string
		run    func(context.Context, string) error
	}{
		{"profile", s.profiles.Delete},
		{"publicProfile", s.publicProfiles.Delete},
		{"identity", s.identities.DeleteUser},
	}

	outcomes := make([]deletionOutcome, len(steps))
	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			outcomes[i] = deletionOutcome{Target: step.target, Err: step.run(ctx, caller.UID)}
			return nil
		})
	}
	_ = g.Wait()

	details := map[string]interface{}{"age": age}
	fields := []zap.Field{zap.String("userId", caller.UID), zap.Int("age", age)}
	for _, o := range outcomes {
		details[o.Target] = o.status()
		fields = append(fields, zap.String(o.Target, o.status()))
	}
	s.logger.Warn("under-age signup rolled back", fields...)

	if err := s.audit.CreateAuditLog(ctx, models.AuditLog{
		UserID:     caller.UID,
		Action:     auditActionUnderageRollback,
		TargetType: "user",
		TargetID:   caller.UID,
		RequestID:  caller.RequestID,
		Details:    details,
	}); err != nil {
		s.logger.Warn("rollback audit log not written", zap.String("userId", caller.UID), zap.Error(err))
	}

	s.publish(ctx, models.OnboardingEvent{
		Type:       models.EventOnboardingRejected,
		UserID:     caller.UID,
		OccurredAt: s.now().UTC(),
		RequestID:  caller.RequestID,
	})
	return outcomes
}
