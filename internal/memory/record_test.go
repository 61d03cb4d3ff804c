package memory

import (
	"reflect"
	"testing"
)

func TestNewRecord(t *testing.T) {
	source := SourceContext{Repo: "acme/widgets", PRNumber: 7, Files: []string{"main.go"}}

	t.Run("identity derives from content", func(t *testing.T) {
		a := NewRecord("code", "comment", source, "alice", nil, nil)
		b := NewRecord("code", "comment", source, "bob", nil, nil)
		if a.ID != b.ID {
			t.Error("same code, comment and PR should collide on ID")
		}
		if len(a.ID) != 16 {
			t.Errorf("ID length = %d, want 16", len(a.ID))
		}

		other := SourceContext{Repo: "acme/widgets", PRNumber: 8}
		c := NewRecord("code", "comment", other, "alice", nil, nil)
		if a.ID == c.ID {
			t.Error("different PR should produce a different ID")
		}
	})

	t.Run("nil tags are extracted from the comment", func(t *testing.T) {
		record := NewRecord("code", "This query is vulnerable to injection", source, "alice", nil, nil)
		if !reflect.DeepEqual(record.Tags, []string{"security"}) {
			t.Errorf("Tags = %v, want [security]", record.Tags)
		}
	})

	t.Run("explicit tags are kept", func(t *testing.T) {
		record := NewRecord("code", "whatever", source, "alice", nil, []string{"custom"})
		if !reflect.DeepEqual(record.Tags, []string{"custom"}) {
			t.Errorf("Tags = %v, want [custom]", record.Tags)
		}
	})
}

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		want    []string
	}{
		{"security keyword", "possible SQL injection here", []string{"security"}},
		{"performance keyword", "this loop is slow", []string{"performance"}},
		{"style keyword", "naming does not follow our convention", []string{"style"}},
		{"architecture keyword", "consider a different design pattern", []string{"architecture"}},
		{"testing keyword", "needs a test for the error path", []string{"testing"}},
		{"documentation keyword", "please document this function", []string{"documentation"}},
		{"multiple categories keep order", "slow and vulnerable", []string{"security", "performance"}},
		{"case insensitive", "SECURITY issue", []string{"security"}},
		{"no match falls back to general", "looks good to me", []string{"general"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTags(tt.comment); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTags(%q) = %v, want %v", tt.comment, got, tt.want)
			}
		})
	}
}
