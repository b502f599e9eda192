package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fishfarm/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the decoded form of every JSON API response.
// Data stays raw so each test decodes it into the type it expects.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// DecodeData unmarshals the envelope's data into out.
func (e Envelope) DecodeData(t *testing.T, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, out), "Failed to decode response data: %s", e.Data)
}

// DataAs decodes the envelope's data as T.
func DataAs[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	env.DecodeData(t, &out)
	return out
}

// Request is one call against an http.Handler. A string Body is sent as is,
// any other non-nil Body is JSON-encoded.
type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
}

// Serve sends req to h and decodes the envelope when the response is JSON.
func Serve(t *testing.T, h http.Handler, req Request) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var body io.Reader
	switch b := req.Body.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "Failed to marshal request body")
		body = bytes.NewReader(raw)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	r := httptest.NewRequest(method, req.Path, body)
	if req.Body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var env Envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to parse response: %s", w.Body.String())
	}
	return w, env
}

// HTTPTestCase is a request with the response it should produce.
// With ExpectedCode set the response must be an error envelope with that
// code; otherwise a success envelope is expected for statuses below 400.
type HTTPTestCase struct {
	Name string
	Request
	ExpectedStatus int
	ExpectedCode   string
	Validate       func(t *testing.T, env Envelope)
}

// RunHTTPTestCases runs each case as a subtest against h.
func RunHTTPTestCases(t *testing.T, h http.Handler, cases []HTTPTestCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, h, tc)
		})
	}
}

// RunHTTPTestCase runs a single case and returns the decoded envelope.
func RunHTTPTestCase(t *testing.T, h http.Handler, tc HTTPTestCase) Envelope {
	t.Helper()

	w, env := Serve(t, h, tc.Request)
	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, w.Code, "Unexpected status code: %s", w.Body.String())
	}
	switch {
	case tc.ExpectedCode != "":
		AssertErrorCode(t, env, tc.ExpectedCode)
	case w.Code < http.StatusBadRequest:
		AssertSuccess(t, env)
	}
	if tc.Validate != nil {
		tc.Validate(t, env)
	}
	return env
}

// AssertSuccess asserts env is a success envelope without an error.
func AssertSuccess(t *testing.T, env Envelope) {
	t.Helper()
	assert.True(t, env.Success, "Expected success to be true")
	assert.Nil(t, env.Error, "Expected no error")
}

// AssertErrorCode asserts env is an error envelope carrying code.
func AssertErrorCode(t *testing.T, env Envelope, code string) {
	t.Helper()
	assert.False(t, env.Success, "Expected success to be false")
	require.NotNil(t, env.Error, "Expected error object in response")
	assert.Equal(t, code, env.Error.Code, "Unexpected error code")
}
