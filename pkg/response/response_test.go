package response

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestSuccess(t *testing.T) {
	data := map[string]string{"name": "test"}
	resp := Success(data)

	if !resp.Success {
		t.Error("Expected success to be true")
	}
	if resp.Data == nil {
		t.Error("Expected data to be set")
	}
	if resp.Error != nil {
		t.Error("Expected error to be nil")
	}
	if resp.Meta != nil {
		t.Error("Expected meta to be nil")
	}
}

func TestSuccess_JSONFormat(t *testing.T) {
	data := map[string]string{"id": "123"}
	resp := Success(data)

	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if parsed["success"] != true {
		t.Errorf("Expected success=true, got %v", parsed["success"])
	}
	if _, ok := parsed["error"]; ok {
		t.Error("Expected error field to be omitted")
	}
	if _, ok := parsed["meta"]; ok {
		t.Error("Expected meta field to be omitted")
	}
}

func TestList(t *testing.T) {
	resp := List([]string{"a", "b", "c"}, 3)

	if !resp.Success {
		t.Error("Expected success to be true")
	}
	if resp.Meta == nil {
		t.Fatal("Expected meta to be set")
	}
	if resp.Meta.Total != 3 {
		t.Errorf("Expected total 3, got %d", resp.Meta.Total)
	}
}

func TestError(t *testing.T) {
	resp := Error(ErrCodeNotFound, "Ticket not found")

	if resp.Success {
		t.Error("Expected success to be false")
	}
	if resp.Data != nil {
		t.Error("Expected data to be nil")
	}
	if resp.Error == nil {
		t.Fatal("Expected error to be set")
	}
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("Expected code %s, got %s", ErrCodeNotFound, resp.Error.Code)
	}
	if resp.Error.Message != "Ticket not found" {
		t.Errorf("Expected message 'Ticket not found', got '%s'", resp.Error.Message)
	}
}

func TestError_JSONFormat(t *testing.T) {
	resp := Error(ErrCodeBadRequest, "Invalid input")

	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if parsed["success"] != false {
		t.Errorf("Expected success=false, got %v", parsed["success"])
	}

	errorObj, ok := parsed["error"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected error object")
	}
	if errorObj["code"] != ErrCodeBadRequest {
		t.Errorf("Expected code %s, got %v", ErrCodeBadRequest, errorObj["code"])
	}
	if errorObj["message"] != "Invalid input" {
		t.Errorf("Expected message 'Invalid input', got %v", errorObj["message"])
	}
}

func TestErrorWithData(t *testing.T) {
	resp := ErrorWithData(ErrCodeInvalidPIN, "Incorrect PIN", map[string]bool{"ok": false})

	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	data, ok := parsed["data"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected data object")
	}
	if data["ok"] != false {
		t.Errorf("Expected ok=false, got %v", data["ok"])
	}
	if parsed["success"] != false {
		t.Errorf("Expected success=false, got %v", parsed["success"])
	}
}

func TestValidationFailed(t *testing.T) {
	resp := ValidationFailed("name is required", map[string]string{"name": "required"})

	if resp.Error == nil {
		t.Fatal("Expected error to be set")
	}
	if resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("Expected code %s, got %s", ErrCodeValidationFailed, resp.Error.Code)
	}
	if resp.Error.Message != "name is required" {
		t.Errorf("Expected verbatim message, got %q", resp.Error.Message)
	}
	if resp.Error.Details["name"] != "required" {
		t.Errorf("Expected name detail, got %v", resp.Error.Details)
	}

	if def := ValidationFailed("", nil); def.Error.Message != "Validation failed" {
		t.Errorf("Expected default message, got %q", def.Error.Message)
	}
}

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name     string
		resp     *Response
		wantCode string
	}{
		{"BadRequest", BadRequest("bad"), ErrCodeBadRequest},
		{"Unauthorized", Unauthorized(""), ErrCodeUnauthorized},
		{"Forbidden", Forbidden(""), ErrCodeForbidden},
		{"NotFound", NotFound(""), ErrCodeNotFound},
		{"InternalError", InternalError(""), ErrCodeInternalError},
		{"InvalidTransition", InvalidTransition(""), ErrCodeInvalidTransition},
		{"IntegrityError", IntegrityError(""), ErrCodeIntegrityError},
		{"StoreError", StoreError("connection refused"), ErrCodeStoreError},
		{"ServiceUnavailable", ServiceUnavailable(""), ErrCodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.resp.Success {
				t.Error("Expected success to be false")
			}
			if tt.resp.Error.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, tt.resp.Error.Code)
			}
			if tt.resp.Error.Message == "" {
				t.Error("Expected a non-empty message")
			}
		})
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeInvalidPIN, http.StatusUnauthorized},
		{ErrCodeInvalidTransition, http.StatusConflict},
		{ErrCodeIntegrityError, http.StatusInternalServerError},
		{ErrCodeStoreError, http.StatusInternalServerError},
		{ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := GetHTTPStatus(tt.code); got != tt.status {
				t.Errorf("GetHTTPStatus(%s) = %d, want %d", tt.code, got, tt.status)
			}
		})
	}
}
