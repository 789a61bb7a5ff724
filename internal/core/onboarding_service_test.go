package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/tripzi/tripzi-backend/internal/db"
	"github.com/tripzi/tripzi-backend/internal/models"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type onboardingFixture struct {
	svc        *onboardingService
	profiles   *fakeProfiles
	public     *fakePublicProfiles
	identities *fakeIdentities
	audit      *fakeAudit
	events     *fakePublisher
}

func newOnboardingFixture() *onboardingFixture {
	f := &onboardingFixture{
		profiles:   newFakeProfiles(),
		public:     &fakePublicProfiles{docs: map[string]models.PublicProfile{}},
		identities: newFakeIdentities(models.ExternalIdentity{UID: "u1", Email: "ana@example.com", PhotoURL: "https://img/ana.png"}),
		audit:      &fakeAudit{},
		events:     &fakePublisher{},
	}
	f.svc = NewOnboardingService(
		f.profiles, f.public, f.identities,
		NewUsernameService(f.profiles, nopLogger()),
		f.audit, f.events, nopLogger(),
	).(*onboardingService)
	f.svc.now = fixedClock(testNow)
	return f
}

func validRequest() models.CompleteOnboardingRequest {
	return models.CompleteOnboardingRequest{
		Name:        " Ana Silva ",
		Username:    "Ana_S",
		Gender:      "Female",
		DateOfBirth: "2000-06-15",
		Bio:         "Backpacker",
	}
}

var caller = Caller{UID: "u1", Email: "ana@example.com", RequestID: "req-1"}

func TestCompleteOnboardingRequiresCaller(t *testing.T) {
	f := newOnboardingFixture()
	_, err := f.svc.CompleteOnboarding(context.Background(), Caller{}, validRequest())
	if !IsCode(err, codes.Unauthenticated) {
		t.Fatalf("err = %v, want Unauthenticated", err)
	}
	if f.profiles.commits != 0 {
		t.Error("profile written for anonymous caller")
	}
}

func TestCompleteOnboardingValidationOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.CompleteOnboardingRequest)
		wantField string
	}{
		{"empty name wins over everything", func(r *models.CompleteOnboardingRequest) {
			r.Name, r.Username, r.Gender, r.DateOfBirth = "  ", "x", "?", ""
		}, "name"},
		{"bad username before gender", func(r *models.CompleteOnboardingRequest) { r.Username, r.Gender = "ab", "?" }, "username"},
		{"bad gender", func(r *models.CompleteOnboardingRequest) { r.Gender = "other" }, "gender"},
		{"missing date", func(r *models.CompleteOnboardingRequest) { r.DateOfBirth = " " }, "dateOfBirth"},
		{"impossible date", func(r *models.CompleteOnboardingRequest) { r.DateOfBirth = "2001-02-30" }, "dateOfBirth"},
		{"tomorrow", func(r *models.CompleteOnboardingRequest) { r.DateOfBirth = "2024-06-16" }, "dateOfBirth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOnboardingFixture()
			req := validRequest()
			tt.mutate(&req)

			_, err := f.svc.CompleteOnboarding(context.Background(), caller, req)
			ce := AsError(err)
			if ce == nil || ce.Code != codes.InvalidArgument {
				t.Fatalf("err = %v, want InvalidArgument", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
			if !f.identities.has("u1") {
				t.Error("identity deleted on a validation failure")
			}
		})
	}
}

func TestCompleteOnboardingUnderageRollsBack(t *testing.T) {
	f := newOnboardingFixture()
	req := validRequest()
	req.DateOfBirth = "2006-06-16" // 17 until tomorrow

	_, err := f.svc.CompleteOnboarding(context.Background(), caller, req)
	if !IsCode(err, codes.FailedPrecondition) {
		t.Fatalf("err = %v, want FailedPrecondition", err)
	}
	if f.identities.has("u1") {
		t.Error("identity still exists after under-age rollback")
	}
	if len(f.profiles.deleted) != 1 || len(f.public.deleted) != 1 {
		t.Errorf("profile deletes %v, public deletes %v", f.profiles.deleted, f.public.deleted)
	}
	if f.profiles.commits != 0 {
		t.Error("profile written for an under-age caller")
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != auditActionUnderageRollback {
		t.Fatalf("audit entries = %+v", f.audit.entries)
	}
	if got := f.audit.entries[0].Details["identity"]; got != "deleted" {
		t.Errorf("audit identity outcome = %v", got)
	}
	if types := f.events.types(); len(types) != 1 || types[0] != models.EventOnboardingRejected {
		t.Fatalf("events = %v", types)
	}
	if f.events.events[0].Email != "" {
		t.Errorf("rejected event carries email %q", f.events.events[0].Email)
	}
}

func TestCompleteOnboardingRollbackFailuresDoNotChangeResult(t *testing.T) {
	f := newOnboardingFixture()
	f.profiles.deleteErr = errStoreDown
	f.events.err = errStoreDown
	req := validRequest()
	req.DateOfBirth = "2010-01-01"

	_, err := f.svc.CompleteOnboarding(context.Background(), caller, req)
	if !IsCode(err, codes.FailedPrecondition) {
		t.Fatalf("err = %v, want FailedPrecondition", err)
	}
	if f.identities.has("u1") {
		t.Error("a failing profile delete blocked the identity delete")
	}
	if got := f.audit.entries[0].Details["profile"]; got != errStoreDown.Error() {
		t.Errorf("audit profile outcome = %v", got)
	}
}

func TestCompleteOnboardingRollbackOutcomes(t *testing.T) {
	f := newOnboardingFixture()
	f.identities.deleteFn = func(string) error { return errStoreDown }

	outcomes := f.svc.rollbackUnderage(context.Background(), caller, 16)
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	for _, o := range outcomes {
		if (o.Target == "identity") != (o.Err != nil) {
			t.Errorf("outcome %s: err = %v", o.Target, o.Err)
		}
	}
}

func TestCompleteOnboardingCreatesProfile(t *testing.T) {
	f := newOnboardingFixture()

	res, err := f.svc.CompleteOnboarding(context.Background(), caller, validRequest())
	if err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	if !res.Success || res.Age != 24 {
		t.Errorf("result = %+v, want success age 24", res)
	}

	p := f.profiles.docs["u1"]
	if p.Name != "Ana Silva" || p.Username != "ana_s" || p.Gender != "female" || p.Bio != "Backpacker" {
		t.Errorf("profile fields = %+v", p)
	}
	if p.Email != "ana@example.com" || p.PhotoURL != "https://img/ana.png" {
		t.Errorf("identity data not copied: %+v", p)
	}
	if !p.AgeVerified || !p.AgeVerifiedAt.Equal(testNow) || !p.CreatedAt.Equal(testNow) {
		t.Errorf("verification stamps = %+v", p)
	}
	if f.identities.updated["u1"] != "Ana Silva" {
		t.Errorf("display name patch = %q", f.identities.updated["u1"])
	}
	if f.profiles.claims["ana_s"] != "u1" {
		t.Error("username claim not recorded")
	}
	if types := f.events.types(); len(types) != 1 || types[0] != models.EventOnboardingCompleted || !f.events.events[0].Created {
		t.Errorf("events = %+v", f.events.events)
	}
}

func TestCompleteOnboardingIsIdempotent(t *testing.T) {
	f := newOnboardingFixture()
	if _, err := f.svc.CompleteOnboarding(context.Background(), caller, validRequest()); err != nil {
		t.Fatalf("first call: %v", err)
	}

	later := testNow.Add(48 * time.Hour)
	f.svc.now = fixedClock(later)
	if _, err := f.svc.CompleteOnboarding(context.Background(), caller, validRequest()); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if len(f.profiles.docs) != 1 {
		t.Errorf("profiles = %d, want 1", len(f.profiles.docs))
	}
	p := f.profiles.docs["u1"]
	if !p.CreatedAt.Equal(testNow) {
		t.Errorf("createdAt re-stamped: %v", p.CreatedAt)
	}
	if !p.UpdatedAt.Equal(later) {
		t.Errorf("updatedAt = %v, want %v", p.UpdatedAt, later)
	}
	if f.events.events[1].Created {
		t.Error("second completion reported as a creation")
	}
}

func TestCompleteOnboardingClearsLegacyDisplayName(t *testing.T) {
	f := newOnboardingFixture()
	created := testNow.AddDate(-1, 0, 0)
	f.profiles.docs["u1"] = models.UserProfile{UserID: "u1", DisplayName: "Ana (old)", Username: "ana_old", CreatedAt: created}
	f.profiles.claims["ana_old"] = "u1"

	if _, err := f.svc.CompleteOnboarding(context.Background(), caller, validRequest()); err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	p := f.profiles.docs["u1"]
	if p.DisplayName != "" {
		t.Errorf("displayName = %q, want cleared", p.DisplayName)
	}
	if !p.CreatedAt.Equal(created) {
		t.Errorf("createdAt = %v, want %v", p.CreatedAt, created)
	}
	if _, held := f.profiles.claims["ana_old"]; held {
		t.Error("previous username claim not released")
	}
}

func TestCompleteOnboardingUsernameTaken(t *testing.T) {
	f := newOnboardingFixture()
	f.profiles.docs["u2"] = models.UserProfile{UserID: "u2", Username: "ana_s"}

	_, err := f.svc.CompleteOnboarding(context.Background(), caller, validRequest())
	if !IsCode(err, codes.AlreadyExists) {
		t.Fatalf("err = %v, want AlreadyExists", err)
	}
	if f.profiles.commits != 0 {
		t.Error("profile written despite conflict")
	}
}

func TestCompleteOnboardingLosesClaimRace(t *testing.T) {
	f := newOnboardingFixture()
	// Another caller commits between the uniqueness query and ours.
	f.profiles.beforeCommit = func(p *fakeProfiles) {
		p.docs["u9"] = models.UserProfile{UserID: "u9", Username: "ana_s"}
		p.claims["ana_s"] = "u9"
	}

	_, err := f.svc.CompleteOnboarding(context.Background(), caller, validRequest())
	if !IsCode(err, codes.AlreadyExists) {
		t.Fatalf("err = %v, want AlreadyExists", err)
	}
	if _, ok := f.identities.updated["u1"]; ok {
		t.Error("display name patched after a failed commit")
	}
}

func TestCompleteOnboardingTakesOverStaleClaim(t *testing.T) {
	f := newOnboardingFixture()
	f.profiles.claims["ana_s"] = "gone"

	if _, err := f.svc.CompleteOnboarding(context.Background(), caller, validRequest()); err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	if f.profiles.claims["ana_s"] != "u1" {
		t.Errorf("claim owner = %q, want u1", f.profiles.claims["ana_s"])
	}
}

func TestUnderageRetryReleasesUsername(t *testing.T) {
	f := newOnboardingFixture()
	f.identities.users["u2"] = models.ExternalIdentity{UID: "u2", Email: "bia@example.com"}
	ctx := context.Background()

	if _, err := f.svc.CompleteOnboarding(ctx, caller, validRequest()); err != nil {
		t.Fatalf("first onboarding: %v", err)
	}
	minor := validRequest()
	minor.DateOfBirth = "2010-01-01"
	if _, err := f.svc.CompleteOnboarding(ctx, caller, minor); !IsCode(err, codes.FailedPrecondition) {
		t.Fatalf("under-age retry: err = %v, want FailedPrecondition", err)
	}
	if owner, held := f.profiles.claims["ana_s"]; held {
		t.Errorf("claim still held by %q after rollback", owner)
	}

	available, err := f.svc.usernames.IsAvailable(ctx, "ana_s", "u2")
	if err != nil || !available {
		t.Fatalf("IsAvailable = %v, %v; want true", available, err)
	}
	other := Caller{UID: "u2", Email: "bia@example.com", RequestID: "req-2"}
	if _, err := f.svc.CompleteOnboarding(ctx, other, validRequest()); err != nil {
		t.Fatalf("u2 onboarding as ana_s: %v", err)
	}
	if f.profiles.claims["ana_s"] != "u2" {
		t.Errorf("claim owner = %q, want u2", f.profiles.claims["ana_s"])
	}
}

func TestCompleteOnboardingStoreFailureIsInternal(t *testing.T) {
	f := newOnboardingFixture()
	f.profiles.commitErr = errors.New("firestore: aborted")

	_, err := f.svc.CompleteOnboarding(context.Background(), caller, validRequest())
	if !IsCode(err, codes.Internal) {
		t.Fatalf("err = %v, want Internal", err)
	}
	if len(f.events.events) != 0 {
		t.Error("completion event published after a failed commit")
	}
}

func TestBuildOnboardingWriteFlags(t *testing.T) {
	in := onboardingInput{name: "Ana", username: "ana"}
	identity := &models.ExternalIdentity{UID: "u1"}

	w := buildOnboardingWrite(caller, identity, nil, in, testNow)
	if !w.StampCreatedAt || w.ClearDisplayName || w.PreviousUsername != "" {
		t.Errorf("create write = %+v", w)
	}
	if w.Profile.Email != caller.Email {
		t.Errorf("email fallback = %q", w.Profile.Email)
	}

	existing := &models.UserProfile{UserID: "u1", Username: "old", PhotoURL: "p.png"}
	w = buildOnboardingWrite(caller, identity, existing, in, testNow)
	if w.StampCreatedAt || !w.ClearDisplayName || w.PreviousUsername != "old" || w.Profile.PhotoURL != "p.png" {
		t.Errorf("update write = %+v", w)
	}
}

func TestRecordLogin(t *testing.T) {
	f := newOnboardingFixture()
	if _, err := f.svc.RecordLogin(context.Background(), Caller{}); !IsCode(err, codes.Unauthenticated) {
		t.Errorf("anonymous: err = %v", err)
	}
	if _, err := f.svc.RecordLogin(context.Background(), caller); !IsCode(err, codes.FailedPrecondition) {
		t.Errorf("no profile: err = %v", err)
	}

	f.profiles.docs["u1"] = models.UserProfile{UserID: "u1"}
	res, err := f.svc.RecordLogin(context.Background(), caller)
	if err != nil || !res.Success {
		t.Fatalf("RecordLogin = %+v, %v", res, err)
	}
	if !f.profiles.docs["u1"].LastLoginAt.Equal(testNow) {
		t.Errorf("lastLoginAt = %v", f.profiles.docs["u1"].LastLoginAt)
	}
}

var _ db.ProfileRepository = (*fakeProfiles)(nil)
