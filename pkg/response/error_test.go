package response

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		code   int
		status int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeBadGateway, http.StatusBadGateway},
		{0, http.StatusBadRequest},
		{200, http.StatusBadRequest},
		{999, http.StatusBadRequest},
	}
	for _, c := range cases {
		if status := NewError(c.code, "msg").Status(); status != c.status {
			t.Errorf("code %d: expected status %d, have: %d", c.code, c.status, status)
		}
	}
}

func TestErrorCause(t *testing.T) {
	respErr := NewError(CodeNotFound, "listing not found").SetInternal(errors.New("sql: no rows"))
	wrapped := errors.Wrap(respErr, "get listing")
	cause, ok := errors.Cause(wrapped).(*Error)
	if !ok || cause.Code != CodeNotFound {
		t.Fatalf("expected the response error as the cause, have: %v", errors.Cause(wrapped))
	}
	if cause.Error() != "404: listing not found" {
		t.Errorf("wrong message, have: %s", cause.Error())
	}
}
