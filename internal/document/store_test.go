package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_OpenUpdateClose(t *testing.T) {
	s := NewStore()

	doc := s.Open("file:///a.m", "x = 1;")
	assert.Equal(t, 1, doc.Version)

	doc = s.Update("file:///a.m", "x = 2;")
	assert.Equal(t, 2, doc.Version)
	assert.Equal(t, "x = 2;", doc.Content)

	got, ok := s.Get("file:///a.m")
	require.True(t, ok)
	assert.Equal(t, "x = 2;", got.Content)

	s.Close("file:///a.m")
	_, ok = s.Get("file:///a.m")
	assert.False(t, ok)

	// Idempotent
	s.Close("file:///a.m")
	assert.Equal(t, 0, s.Len())
}

func TestStore_UpdateDoesNotMutateSnapshots(t *testing.T) {
	s := NewStore()
	s.Open("file:///a.m", "before")
	snapshot, _ := s.Get("file:///a.m")

	s.Update("file:///a.m", "after")
	assert.Equal(t, "before", snapshot.Content, "readers keep the version they fetched")
}

func TestDocument_Line(t *testing.T) {
	d := &Document{Content: "first\nsecond\nthird"}
	assert.Equal(t, "first", d.Line(1))
	assert.Equal(t, "third", d.Line(3))
	assert.Equal(t, "", d.Line(0))
	assert.Equal(t, "", d.Line(4))
}

func TestDocument_WordAt(t *testing.T) {
	d := &Document{Content: "result = compute_sum(alpha, beta);"}

	tests := []struct {
		name   string
		line   int
		column int
		want   string
	}{
		{"start of word", 1, 10, "compute_sum"},
		{"middle of word", 1, 15, "compute_sum"},
		{"just past word", 1, 21, "compute_sum"},
		{"first word", 1, 1, "result"},
		{"second argument", 1, 29, "beta"},
		{"on whitespace", 1, 28, ""},
		{"out of range line", 9, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.WordAt(tt.line, tt.column))
		})
	}
}

func TestStore_URIs(t *testing.T) {
	s := NewStore()
	s.Open("file:///a.m", "")
	s.Open("file:///b.m", "")
	assert.ElementsMatch(t, []string{"file:///a.m", "file:///b.m"}, s.URIs())
}
