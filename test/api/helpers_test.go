package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Response wraps a raw HTTP response for assertions.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r Response) Object(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &out), "body: %s", r.Body)
	return out
}

func (r Response) Array(t *testing.T) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &out), "body: %s", r.Body)
	return out
}

func makeRequest(t *testing.T, method, path string, body interface{}) Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}
}

// createTestPatient registers a patient and returns its id.
func createTestPatient(t *testing.T, firstName string) int64 {
	t.Helper()
	resp := makeRequest(t, http.MethodPost, "/api/patients", map[string]interface{}{
		"firstName":   firstName,
		"lastName":    "Tester",
		"phoneNumber": "555-0100",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", resp.Body)
	return int64(resp.Object(t)["id"].(float64))
}

func patientPath(id int64) string {
	return fmt.Sprintf("/api/patients/%d", id)
}
