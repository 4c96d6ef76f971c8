package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rawBody(t *testing.T, data any) []byte {
	t.Helper()
	switch v := data.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		t.Fatalf("unexpected response data type %T", data)
		return nil
	}
}

func TestAppError_Error(t *testing.T) {
	err := NewError(ErrorCodeInvalidInput, "bad payload", http.StatusBadRequest)
	assert.Equal(t, "[invalid_input] bad payload", err.Error())
}

func TestAppError_Response(t *testing.T) {
	resp := ErrAgentNotFound.Response()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rawBody(t, resp.Data), &body))
	assert.Equal(t, "agent_not_found", body["error"])
	assert.Equal(t, "Agent not found", body["message"])
}

func TestErrConfigValidation(t *testing.T) {
	err := ErrConfigValidation(map[string]string{"access_token": "Access Token is required"})
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, ErrorCodeInvalidConfig, err.Code)

	var details map[string]string
	assert.NoError(t, json.Unmarshal([]byte(err.Details), &details))
	assert.Equal(t, "Access Token is required", details["access_token"])
}

func TestErrUpstream(t *testing.T) {
	err := ErrUpstream("Stripe", assert.AnError)
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.Contains(t, err.Message, "Stripe")
	assert.Equal(t, assert.AnError.Error(), err.Details)
}

func TestOK(t *testing.T) {
	resp := OK(map[string]string{"id": "agent-1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)

	var body APIResponse
	assert.NoError(t, json.Unmarshal(rawBody(t, resp.Data), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "agent-1", body.Data.(map[string]any)["id"])
}

func TestList(t *testing.T) {
	resp := List([]string{"a", "b"}, 2)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body APIResponse
	assert.NoError(t, json.Unmarshal(rawBody(t, resp.Data), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Meta.Count)
}

func TestCreated(t *testing.T) {
	resp := Created(map[string]string{"id": "agent-1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestMessage(t *testing.T) {
	resp := Message("Settings updated")
	var body APIResponse
	assert.NoError(t, json.Unmarshal(rawBody(t, resp.Data), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Settings updated", body.Message)
	assert.Nil(t, body.Data)
}

func TestStatusHelpers(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("login required").StatusCode)
	assert.Equal(t, http.StatusForbidden, Forbidden("nope").StatusCode)
	assert.Equal(t, http.StatusBadRequest, BadRequest("bad").StatusCode)
	assert.Equal(t, http.StatusNotFound, NotFound("missing").StatusCode)
	assert.Equal(t, http.StatusInternalServerError, InternalError("boom").StatusCode)
}
