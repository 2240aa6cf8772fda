package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"governance-gateway/middleware/ratelimit/domain"
)

type fakeStore struct {
	calls   int
	lastKey domain.Key
	lastP   domain.Policy
	lastNow time.Time
	admit   bool
	err     error
}

func (s *fakeStore) TryAdmit(_ context.Context, key domain.Key, p domain.Policy, now time.Time) (domain.Decision, error) {
	s.calls++
	s.lastKey, s.lastP, s.lastNow = key, p, now
	if s.err != nil {
		return domain.Decision{}, s.err
	}
	return domain.Decision{Admitted: s.admit, Key: key, Policy: p, WindowStart: now, Count: 1}, nil
}

var t0 = time.Date(2024, 3, 19, 12, 0, 0, 0, time.UTC)

func TestService_Decide_AdmitsWhenNoStore(t *testing.T) {
	svc := Service{Default: domain.Policy{Limit: 1, Window: time.Minute}}
	dec, err := svc.Decide(context.Background(), domain.ClassSecure, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dec.Admitted {
		t.Fatalf("expected admitted")
	}
}

func TestService_Decide_UsesClassPolicy(t *testing.T) {
	store := &fakeStore{admit: true}
	secure := domain.Policy{Limit: 30, Window: time.Minute}
	svc := Service{
		Store:    store,
		Policies: map[domain.RouteClass]domain.Policy{domain.ClassSecure: secure},
		Default:  domain.Policy{Limit: 100, Window: time.Minute},
		Now:      func() time.Time { return t0 },
	}

	dec, err := svc.Decide(context.Background(), domain.ClassSecure, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastP != secure {
		t.Fatalf("expected secure policy, got %+v", store.lastP)
	}
	if store.lastKey != domain.NewKey(domain.ClassSecure, "10.0.0.1") {
		t.Fatalf("unexpected key %q", store.lastKey)
	}
	if !dec.Now.Equal(t0) || !store.lastNow.Equal(t0) {
		t.Fatalf("expected a single now capture")
	}
	if dec.Class != domain.ClassSecure {
		t.Fatalf("expected class on decision, got %q", dec.Class)
	}
}

func TestService_Decide_UnknownClassUsesDefault(t *testing.T) {
	store := &fakeStore{admit: true}
	def := domain.Policy{Limit: 100, Window: time.Minute}
	svc := Service{Store: store, Default: def}

	if _, err := svc.Decide(context.Background(), "reports", "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastP != def {
		t.Fatalf("expected default policy, got %+v", store.lastP)
	}
}

func TestService_Decide_PropagatesStoreError(t *testing.T) {
	boom := errors.New("redis down")
	svc := Service{Store: &fakeStore{err: boom}, Default: domain.Policy{Limit: 1, Window: time.Second}}

	dec, err := svc.Decide(context.Background(), domain.ClassFrequent, "k")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if dec.Admitted {
		t.Fatalf("decision with error must not be admitted")
	}
}

func TestService_Decide_ZeroWindowSkipsStore(t *testing.T) {
	store := &fakeStore{}
	svc := Service{Store: store}
	dec, _ := svc.Decide(context.Background(), domain.ClassFrequent, "k")
	if !dec.Admitted || store.calls != 0 {
		t.Fatalf("expected admission without touching the store")
	}
}
