package ch

import (
	"context"
	"testing"
)

// TestOpen_BadDSN rejects malformed URLs before dialing
func TestOpen_BadDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{URL: "://not-a-dsn"}); err == nil {
		t.Fatalf("Open accepted a malformed DSN")
	}
}

// TestInsert_EmptyBatch is a no op and needs no connection
func TestInsert_EmptyBatch(t *testing.T) {
	t.Parallel()

	cl := &CH{}
	if err := cl.Insert(context.Background(), "t", nil); err != nil {
		t.Fatalf("empty insert returned error: %v", err)
	}
}

// TestClose is safe on a nil or unconnected client
func TestClose_NoOp(t *testing.T) {
	t.Parallel()

	var nilCl *CH
	if err := nilCl.Close(); err != nil {
		t.Fatalf("nil Close returned error: %v", err)
	}
	cl := &CH{}
	if err := cl.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
