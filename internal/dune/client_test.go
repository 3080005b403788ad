package dune

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_SubmitExecution(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/query/12345/execute" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Dune-API-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.QueryParameters["date"] != "2024-01-15" {
			t.Errorf("expected date parameter, got %v", req.QueryParameters["date"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"execution_id": "exec-abc",
			"state":        "QUERY_STATE_PENDING",
		})
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	ctx := context.Background()

	exec, err := client.SubmitExecution(ctx, 12345, map[string]any{"date": "2024-01-15"})
	if err != nil {
		t.Fatalf("SubmitExecution: %v", err)
	}

	if exec.ExecutionID != "exec-abc" {
		t.Errorf("expected execution id exec-abc, got %s", exec.ExecutionID)
	}
}

func TestClient_SubmitExecutionRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid API key"})
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL), WithRetryCount(0))
	ctx := context.Background()

	_, err := client.SubmitExecution(ctx, 12345, nil)
	if !errors.Is(err, ErrSubmissionRejected) {
		t.Fatalf("expected ErrSubmissionRejected, got %v", err)
	}
}

func TestClient_GetExecutionStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/execution/exec-abc/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"execution_id": "exec-abc",
			"query_id":     12345,
			"state":        StateCompleted,
			"result_metadata": map[string]any{
				"total_row_count": 2500,
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	ctx := context.Background()

	status, err := client.GetExecutionStatus(ctx, "exec-abc")
	if err != nil {
		t.Fatalf("GetExecutionStatus: %v", err)
	}

	if status.State != StateCompleted {
		t.Errorf("expected completed state, got %s", status.State)
	}

	if status.ResultMetadata == nil || status.ResultMetadata.TotalRowCount != 2500 {
		t.Errorf("expected 2500 total rows, got %+v", status.ResultMetadata)
	}
}

func TestClient_GetExecutionResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/execution/exec-abc/results" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("offset"); got != "1000" {
			t.Errorf("expected offset 1000, got %s", got)
		}
		if got := r.URL.Query().Get("limit"); got != "1000" {
			t.Errorf("expected limit 1000, got %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"execution_id": "exec-abc",
			"state":        StateCompleted,
			"result": map[string]any{
				"rows": []map[string]any{
					{"user": "addr1", "total_volume_usd": 125.5},
					{"user": "addr2", "total_volume_usd": "1.5e3"},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	ctx := context.Background()

	page, err := client.GetExecutionResults(ctx, "exec-abc", 1000, 1000)
	if err != nil {
		t.Fatalf("GetExecutionResults: %v", err)
	}

	if len(page.Result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page.Result.Rows))
	}

	var user string
	if err := json.Unmarshal(page.Result.Rows[0]["user"], &user); err != nil {
		t.Fatalf("decode user field: %v", err)
	}
	if user != "addr1" {
		t.Errorf("expected addr1, got %s", user)
	}
}

func TestResultSource_FetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"execution_id": "exec-abc",
			"state":        StateCompleted,
			"result": map[string]any{
				"rows": []map[string]any{{"user": "addr1"}},
			},
		})
	}))
	defer server.Close()

	source := NewResultSource(NewClient("test-key", WithBaseURL(server.URL)), "exec-abc")

	rows, err := source.FetchPage(context.Background(), 0, 1000)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}
