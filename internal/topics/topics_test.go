package topics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sai-suraj143/Intelli-Prep/internal/topics"
)

const sampleYAML = `topics:
  - id: dsa
    name: Data Structures & Algorithms
    questions:
      - "Explain the difference between an array and a linked list."
      - "How does a hash map work?"
  - id: hr
    name: Behavioral
    questions:
      - "Tell me about a time you failed."
`

func writeTopics(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing topics file: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := topics.Load(writeTopics(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(catalog.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(catalog.Topics))
	}

	dsa := catalog.Get("dsa")
	if dsa.Name != "Data Structures & Algorithms" || len(dsa.Questions) != 2 {
		t.Fatalf("unexpected topic: %+v", dsa)
	}
}

func TestGetUnknownTopicFallsBack(t *testing.T) {
	catalog, err := topics.Load(writeTopics(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := catalog.Get("nope"); got.ID != "dsa" {
		t.Fatalf("expected fallback to first topic, got %q", got.ID)
	}
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	if _, err := topics.Load(writeTopics(t, "topics: []\n")); err == nil {
		t.Fatal("expected error for empty catalog")
	}
	if _, err := topics.Load(writeTopics(t, "topics:\n  - id: x\n    name: X\n    questions: []\n")); err == nil {
		t.Fatal("expected error for topic without questions")
	}
	if _, err := topics.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
