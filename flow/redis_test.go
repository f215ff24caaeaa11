package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/getvessel/vessel/domain"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisTokenStore(client, ""), mr
}

func TestRedisTokenRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	token, err := domain.NewToken("42", domain.TokenTypeRecovery, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := store.SaveToken(ctx, token); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	found, err := store.FindToken(ctx, "42", token.Code, domain.TokenTypeRecovery)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.OwnerID != "42" || found.Code != token.Code {
		t.Errorf("round trip mismatch: %+v", found)
	}

	// any altered field misses
	if _, err := store.FindToken(ctx, "43", token.Code, domain.TokenTypeRecovery); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("wrong owner should miss, got %v", err)
	}
	if _, err := store.FindToken(ctx, "42", "other", domain.TokenTypeRecovery); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("wrong code should miss, got %v", err)
	}
	if _, err := store.FindToken(ctx, "42", token.Code, domain.TokenTypeConfirmation); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("wrong type should miss, got %v", err)
	}
}

func TestRedisConsumeToken(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	token, _ := domain.NewToken("42", domain.TokenTypeRecovery, time.Hour)
	if err := store.SaveToken(ctx, token); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.ConsumeToken(ctx, token); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if _, err := store.FindToken(ctx, "42", token.Code, domain.TokenTypeRecovery); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("consumed token still findable: %v", err)
	}
	if err := store.ConsumeToken(ctx, token); !errors.Is(err, domain.ErrTokenConflict) {
		t.Errorf("second consume should conflict, got %v", err)
	}
}

func TestRedisConsumeRace(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	token, _ := domain.NewToken("42", domain.TokenTypeRecovery, time.Hour)
	if err := store.SaveToken(ctx, token); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	const racers = 8
	results := make([]error, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = store.ConsumeToken(ctx, token)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domain.ErrTokenConflict):
		default:
			t.Errorf("unexpected consume error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly 1 winner, got %d", winners)
	}
}

func TestRedisDeleteTokens(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	var codes []string
	for i := 0; i < 3; i++ {
		token, _ := domain.NewToken("42", domain.TokenTypeRecovery, time.Hour)
		if err := store.SaveToken(ctx, token); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		codes = append(codes, token.Code)
	}
	other, _ := domain.NewToken("42", domain.TokenTypeConfirmation, time.Hour)
	if err := store.SaveToken(ctx, other); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.DeleteTokens(ctx, "42", domain.TokenTypeRecovery); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	for _, code := range codes {
		if _, err := store.FindToken(ctx, "42", code, domain.TokenTypeRecovery); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("recovery token %q survived revoke: %v", code, err)
		}
	}
	// tokens of another type are untouched
	if _, err := store.FindToken(ctx, "42", other.Code, domain.TokenTypeConfirmation); err != nil {
		t.Errorf("confirmation token lost in recovery revoke: %v", err)
	}
}

func TestRedisTokenEviction(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	token, _ := domain.NewToken("42", domain.TokenTypeRecovery, time.Hour)
	if err := store.SaveToken(ctx, token); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// within the grace window the expired token is still observable
	mr.FastForward(2 * time.Hour)
	found, err := store.FindToken(ctx, "42", token.Code, domain.TokenTypeRecovery)
	if err != nil {
		t.Fatalf("expected expired token to be readable in grace window: %v", err)
	}
	if !found.Expired(time.Now().Add(2 * time.Hour)) {
		t.Error("token should read as expired")
	}

	// past the grace window Redis evicts it
	mr.FastForward(expiredTokenGrace)
	if _, err := store.FindToken(ctx, "42", token.Code, domain.TokenTypeRecovery); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected eviction after grace window, got %v", err)
	}
}
