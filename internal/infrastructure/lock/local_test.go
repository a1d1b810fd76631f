package lock

import (
	"context"
	"testing"
	"time"
)

func TestLocalLockerExclusive(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "sweep", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock() = %v, %v", ok, err)
	}
	if _, ok, _ := locker.TryLock(ctx, "sweep", time.Minute); ok {
		t.Fatalf("second TryLock() obtained a held lock")
	}
	if _, ok, _ := locker.TryLock(ctx, "other", time.Minute); !ok {
		t.Fatalf("TryLock(other) blocked by unrelated key")
	}

	_ = release(ctx)
	_ = release(ctx)
	if _, ok, _ := locker.TryLock(ctx, "sweep", time.Minute); !ok {
		t.Fatalf("TryLock() after release failed")
	}
}
