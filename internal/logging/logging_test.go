package logging

import (
	"context"
	"testing"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-1")
	if got := GetTraceID(ctx); got != "trace-1" {
		t.Fatalf("GetTraceID = %q, want trace-1", got)
	}
}

func TestWithTraceIDEmptyIsNoOp(t *testing.T) {
	ctx := WithTraceID(context.Background(), "")
	if got := GetTraceID(ctx); got != "" {
		t.Fatalf("GetTraceID = %q, want empty", got)
	}
}

func TestUserIDRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "u1")
	if got := GetUserID(ctx); got != "u1" {
		t.Fatalf("GetUserID = %q, want u1", got)
	}
}

func TestNewTraceIDIsUnique(t *testing.T) {
	if NewTraceID() == NewTraceID() {
		t.Fatal("trace IDs collided")
	}
}
