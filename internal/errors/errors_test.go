package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsMapToHTTPStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    *ServiceError
		code   Code
		status int
	}{
		{"unauthenticated", Unauthenticated("missing token"), CodeUnauthenticated, http.StatusUnauthorized},
		{"forbidden", Forbidden("no company found"), CodeForbidden, http.StatusForbidden},
		{"bad_request", BadRequest("missing header"), CodeBadRequest, http.StatusBadRequest},
		{"dependency", Dependency(stderrors.New("boom")), CodeDependency, http.StatusInternalServerError},
		{"fatal", Fatal("secret missing"), CodeFatal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Fatalf("code = %s, want %s", tc.err.Code, tc.code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Fatalf("status = %d, want %d", tc.err.HTTPStatus, tc.status)
			}
		})
	}
}

func TestDependencyHidesUpstreamDetail(t *testing.T) {
	upstream := stderrors.New("backend API error 500: secret detail")
	err := Dependency(upstream)

	if err.Message != "upstream request failed" {
		t.Fatalf("message = %q, want generic", err.Message)
	}
	if !stderrors.Is(err, upstream) {
		t.Fatal("wrapped upstream error lost")
	}
}

func TestFromErrorRecoversThroughWrapping(t *testing.T) {
	original := Forbidden("no company found")
	wrapped := fmt.Errorf("handler: %w", original)

	got := FromError(wrapped)
	if got != original {
		t.Fatalf("FromError = %v, want original", got)
	}
}

func TestFromErrorUnknownBecomesDependency(t *testing.T) {
	got := FromError(stderrors.New("dial tcp: refused"))
	if got.Code != CodeDependency {
		t.Fatalf("code = %s, want %s", got.Code, CodeDependency)
	}
	if got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got.HTTPStatus)
	}
}

func TestFromErrorNil(t *testing.T) {
	if got := FromError(nil); got != nil {
		t.Fatalf("FromError(nil) = %v, want nil", got)
	}
}
