package gateway

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) roundTripFunc {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}, nil
	}
}

func TestNewReference(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "FLW-1700000000123-42", NewReference("FLW", now, 42))
}

func TestDoJSONNormalizesFailures(t *testing.T) {
	tests := []struct {
		name   string
		rt     roundTripFunc
		status int
		msg    string
	}{
		{name: "transport", rt: func(*http.Request) (*http.Response, error) { return nil, errors.New("dial tcp: timeout") }, msg: "request failed"},
		{name: "non 2xx", rt: respond(http.StatusBadGateway, `{"message":"upstream"}`), status: http.StatusBadGateway, msg: "unexpected response status"},
		{name: "malformed", rt: respond(http.StatusOK, `<html>`), status: http.StatusOK, msg: "malformed response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://gw.test/x", nil)
			var out map[string]any
			_, err := DoJSON(&http.Client{Transport: tt.rt}, "paystack", req, &out)
			require.Error(t, err)

			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeGateway))
			ge, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, "paystack", ge.Gateway)
			assert.Equal(t, tt.msg, ge.Message)
			assert.Equal(t, tt.status, ge.StatusCode)
		})
	}
}

func TestDoJSONSuccess(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://gw.test/x", nil)
	var out struct {
		Status bool `json:"status"`
	}
	raw, err := DoJSON(&http.Client{Transport: respond(http.StatusOK, `{"status":true}`)}, "paystack", req, &out)
	require.NoError(t, err)
	assert.True(t, out.Status)
	assert.JSONEq(t, `{"status":true}`, string(raw))
}

func TestFailTruncatesRawResponse(t *testing.T) {
	raw := []byte(strings.Repeat("x", rawResponseLimit+100))
	err := Fail("flutterwave", "boom", 500, raw, nil)
	ge, ok := AsError(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Len(t, ge.RawResponse, rawResponseLimit)
	assert.Contains(t, ge.Error(), "status 500")
}
