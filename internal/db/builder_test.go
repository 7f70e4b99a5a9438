package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_DocumentsIndex(t *testing.T) {
	idx, err := NewIndex("documents").
		Prefix("documents:").
		Language("russian").
		Text("text").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if idx.Name != "documents" || idx.Language != "russian" {
		t.Errorf("idx = %+v", idx)
	}
	if len(idx.Prefixes) != 1 || idx.Prefixes[0] != "documents:" {
		t.Errorf("prefixes = %v", idx.Prefixes)
	}
	if len(idx.Fields) != 1 || idx.Fields[0] != (TextField{Name: "text"}) {
		t.Fatalf("fields = %+v, want one default TEXT field", idx.Fields)
	}
}

func TestIndexBuilder_FieldOptions(t *testing.T) {
	idx, err := NewIndex("posts").
		Field(TextField{Name: "title", Weight: 2}).
		Field(TextField{Name: "body", NoStem: true}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Fields[0].Weight != 2 || !idx.Fields[1].NoStem {
		t.Errorf("fields = %+v", idx.Fields)
	}
}

func TestIndexBuilder_BuildCopies(t *testing.T) {
	b := NewIndex("documents").Text("text")
	first, _ := b.Build()
	b.Language("english")
	if first.Language != "" {
		t.Error("later builder calls must not change a built definition")
	}
}

func TestIndexDefinition_Validate(t *testing.T) {
	tests := []struct {
		name string
		def  IndexDefinition
		want string
	}{
		{"empty name", IndexDefinition{Fields: []TextField{{Name: "text"}}}, "invalid index name"},
		{"bad name", IndexDefinition{Name: "my index", Fields: []TextField{{Name: "text"}}}, "invalid index name"},
		{"no fields", IndexDefinition{Name: "documents"}, "at least one field"},
		{"empty field", IndexDefinition{Name: "documents", Fields: []TextField{{}}}, "invalid name"},
		{"duplicate", IndexDefinition{Name: "documents", Fields: []TextField{{Name: "text"}, {Name: "text"}}}, "duplicate"},
		{"negative weight", IndexDefinition{Name: "documents", Fields: []TextField{{Name: "text", Weight: -1}}}, "negative weight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"documents", true},
		{"docs:v2", true},
		{"my_index-1", true},
		{"", false},
		{"with space", false},
		{"star*", false},
		{"кириллица", false},
	}
	for _, tt := range tests {
		if got := IsValidIdentifier(tt.in); got != tt.want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
