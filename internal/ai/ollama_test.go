package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request failed: %v", err)
		}
		if !req.Stream {
			t.Errorf("expected stream=true")
		}
		if req.Model != "mistral-small:latest" {
			t.Errorf("model = %q", req.Model)
		}

		fmt.Fprintln(w, `{"response":"Offre: ","done":false}`)
		fmt.Fprintln(w, `{"response":"100 unités ","done":false}`)
		fmt.Fprintln(w, `{"response":"à 10€","done":true}`)
	}))
	defer server.Close()

	client := NewOllamaClient()
	cfg := GenerateConfig{BaseURL: server.URL, Model: "mistral-small:latest"}

	var chunks []string
	full, err := client.GenerateStream(context.Background(), cfg, "system", "user", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}
	if full != "Offre: 100 unités à 10€" {
		t.Errorf("full = %q", full)
	}
	if strings.Join(chunks, "") != full {
		t.Errorf("chunk concatenation %q does not match full text %q", strings.Join(chunks, ""), full)
	}
	if len(chunks) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(chunks))
	}
}

func TestGenerateStreamServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"début","done":false}`)
		fmt.Fprintln(w, `{"error":"model not loaded"}`)
	}))
	defer server.Close()

	client := NewOllamaClient()
	cfg := GenerateConfig{BaseURL: server.URL, Model: "m"}

	_, err := client.GenerateStream(context.Background(), cfg, "", "prompt", func(string) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("expected the server error to surface, got %v", err)
	}
}

func TestGenerateStreamBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such model", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOllamaClient()
	_, err := client.GenerateStream(context.Background(), GenerateConfig{BaseURL: server.URL}, "", "p", func(string) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected a status error, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Errorf("expected stream=false")
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "analyse complète", Done: true})
	}))
	defer server.Close()

	client := NewOllamaClient()
	got, err := client.Generate(context.Background(), GenerateConfig{BaseURL: server.URL, Model: "m"}, "sys", "user")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "analyse complète" {
		t.Errorf("response = %q", got)
	}
}

func TestCheckHealthAndListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintln(w, `{"models":[{"name":"mistral-small:latest"},{"name":"llama3:8b"}]}`)
	}))
	defer server.Close()

	client := NewOllamaClient()
	if err := client.CheckHealth(context.Background(), server.URL); err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}

	names, err := client.ListModels(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(names) != 2 || names[0] != "mistral-small:latest" {
		t.Errorf("models = %v", names)
	}
}

func TestCheckHealthUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewOllamaClient()
	if err := client.CheckHealth(context.Background(), server.URL); err == nil {
		t.Fatalf("expected an error against a closed server")
	}
}
