package lock

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
)

func TestAcquire_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.CustomMatch(func(expected, actual []interface{}) error {
		return nil // the token is a fresh uuid, match any SET NX args
	}).ExpectSetNX("spot:lock:plans:1h:BTCUSDT", "", 30*time.Second).SetVal(true)

	l := New(db)
	token, ok, err := l.Acquire(context.Background(), "spot:lock:plans:1h:BTCUSDT", 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected acquire to succeed")
	}
	if token == "" {
		t.Fatal("expected a non-empty owner token")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAcquire_Contended(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectSetNX("spot:lock:plans:1h:BTCUSDT", "", 30*time.Second).SetVal(false)

	l := New(db)
	token, ok, err := l.Acquire(context.Background(), "spot:lock:plans:1h:BTCUSDT", 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected acquire to report contention")
	}
	if token != "" {
		t.Fatalf("contended acquire must not hand out a token, got %q", token)
	}
}

func TestRelease_OwnerDeletesKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"k"}, "tok").SetVal(int64(1))

	l := New(db)
	released, err := l.Release(context.Background(), "k", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !released {
		t.Fatal("expected release to delete the key")
	}
}

func TestRelease_ForeignTokenKeepsKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"k"}, "stale-token").SetVal(int64(0))

	l := New(db)
	released, err := l.Release(context.Background(), "k", "stale-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released {
		t.Fatal("a foreign token must never release the lock")
	}
}
