package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string `json:"role"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
}

func TestOpenAIModelRoundTrip(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1710000000,
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{
						"id": "call_9",
						"type": "function",
						"function": {"name": "get_available_slots", "arguments": "{\"date\":\"2024-03-01\"}"}
					}]
				}
			}]
		}`))
	}))
	defer srv.Close()

	m := NewOpenAIModel("sk-test", "gpt-4o", srv.URL+"/v1/", 5*time.Second)
	history := []Message{
		{Role: RoleSystem, Content: "system"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "get_occupancy_for_date", Arguments: `{"date":"2024-03-01"}`}}},
		{Role: RoleTool, ToolCallID: "call_1", Content: `{"total_bookings":3}`},
		{Role: RoleAssistant, Content: "Three bookings."},
		{Role: RoleUser, Content: "and free slots?"},
	}

	msg, err := m.Complete(context.Background(), history, Catalog())
	if err != nil {
		t.Fatal(err)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].ID != "call_9" || msg.ToolCalls[0].Name != "get_available_slots" ||
		msg.ToolCalls[0].Arguments != `{"date":"2024-03-01"}` {
		t.Errorf("reply = %+v", msg)
	}
	if msg.Role != RoleAssistant {
		t.Errorf("role = %s", msg.Role)
	}

	if got.Model != "gpt-4o" || len(got.Tools) != 7 || got.Tools[0].Type != "function" || got.Tools[0].Function.Name != "get_occupancy_for_date" {
		t.Errorf("request tools = %+v", got.Tools)
	}
	roles := make([]string, len(got.Messages))
	for i, gm := range got.Messages {
		roles[i] = gm.Role
	}
	want := []string{"system", "user", "assistant", "tool", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v", roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
	if got.Messages[2].ToolCalls[0].ID != "call_1" || got.Messages[3].ToolCallID != "call_1" {
		t.Errorf("tool call correlation lost: %+v", got.Messages)
	}
}

func TestOpenAIModelSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	m := NewOpenAIModel("sk-test", "gpt-4o", srv.URL+"/v1/", 5*time.Second)
	if _, err := m.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Catalog()); err == nil {
		t.Fatal("expected an error")
	}
}
