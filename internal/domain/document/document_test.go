package document

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/docsync/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.FixedZone("MSK", 3*3600))

	doc, err := New([]string{"news", "tech"}, "hello world", created)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != 0 {
		t.Errorf("ID() = %d, want 0 for unsaved document", doc.ID())
	}
	if doc.Text() != "hello world" {
		t.Errorf("Text() = %q", doc.Text())
	}
	if len(doc.Rubrics()) != 2 || doc.Rubrics()[0] != "news" {
		t.Errorf("Rubrics() = %v", doc.Rubrics())
	}
	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if !doc.CreatedDate().Equal(want) {
		t.Errorf("CreatedDate() = %v, want %v", doc.CreatedDate(), want)
	}
}

func TestNew_CopiesRubrics(t *testing.T) {
	rubrics := []string{"a"}
	doc, err := New(rubrics, "x", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rubrics[0] = "changed"
	if doc.Rubrics()[0] != "a" {
		t.Error("document must not alias caller slice")
	}
}

func TestNew_EmptyRubricsAllowed(t *testing.T) {
	if _, err := New(nil, "text", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_Errors(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		rubrics []string
		text    string
		created time.Time
	}{
		{"zero date", nil, "t", time.Time{}},
		{"empty rubric", []string{"ok", ""}, "t", now},
		{"text too large", nil, strings.Repeat("x", MaxTextSize+1), now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.rubrics, tt.text, tt.created); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestWithID(t *testing.T) {
	doc, _ := New(nil, "text", time.Now())
	saved := doc.WithID(42)
	if saved.ID() != 42 {
		t.Errorf("ID() = %d", saved.ID())
	}
	if doc.ID() != 0 {
		t.Error("WithID must not mutate the receiver")
	}
	e := saved.Entry()
	if e.ID != 42 || e.Text != "text" {
		t.Errorf("Entry() = %+v", e)
	}
}

func TestReconstruct(t *testing.T) {
	created := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	doc := Reconstruct(7, []string{"r"}, "body", created)
	if doc.ID() != 7 || doc.Text() != "body" || !doc.CreatedDate().Equal(created) {
		t.Errorf("unexpected document: %+v", doc)
	}
}
