package userctx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	testCases := []struct {
		name     string
		header   string
		expected *uint
	}{
		{"no header", "", nil},
		{"valid id", "42", uintPtr(42)},
		{"zero is ignored", "0", nil},
		{"negative is ignored", "-3", nil},
		{"garbage is ignored", "abc", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got *uint
			handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ActorID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(ActorHeader, tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestActorIDRoundTrip(t *testing.T) {
	assert.Nil(t, ActorID(context.Background()))
	assert.Equal(t, uint(7), *ActorID(SetActorID(context.Background(), 7)))
}

func uintPtr(u uint) *uint { return &u }
