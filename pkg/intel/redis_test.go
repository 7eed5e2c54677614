package intel

import (
	"context"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestRedisStore(t)

	rec := sampleRecord("s1")
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}
}

func TestRedisStoreNotFound(t *testing.T) {
	s := newTestRedisStore(t)
	if _, err := s.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestRedisStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestRedisStore(t)

	s.Put(ctx, sampleRecord("b"))
	s.Put(ctx, sampleRecord("a"))

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Errorf("List = %v, want sorted [a b]", ids)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "a"); err != ErrNotFound {
		t.Errorf("Get deleted = %v, want ErrNotFound", err)
	}
}
