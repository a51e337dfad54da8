package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/photocatalog/internal/providers"
)

func TestDescribe(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "Foggy harbor at dawn"}`))
	}))
	defer server.Close()

	o := &Ollama{BaseURL: server.URL}
	text, err := o.Describe(context.Background(), providers.Request{
		Model:    "llava",
		Prompt:   "title this",
		Image:    []byte("pixels"),
		MIMEType: "image/webp",
	})
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if text != "Foggy harbor at dawn" {
		t.Errorf("Describe() = %q", text)
	}

	images, ok := got["images"].([]interface{})
	if !ok || len(images) != 1 || images[0] != base64.StdEncoding.EncodeToString([]byte("pixels")) {
		t.Errorf("images = %v", got["images"])
	}
	if got["model"] != "llava" || got["stream"] != false {
		t.Errorf("request = %v", got)
	}
}

func TestDescribeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	o := &Ollama{BaseURL: server.URL}
	if _, err := o.Describe(context.Background(), providers.Request{Model: "missing"}); err == nil {
		t.Error("Describe() error = nil, want status error")
	}
}
