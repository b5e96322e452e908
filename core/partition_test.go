package core

import (
	"testing"
)

func TestPartitionKey(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
	}{
		{
			name:   "line and text",
			fields: []string{"0", "hello world"},
		},
		{
			name:   "single field",
			fields: []string{"client-1"},
		},
		{
			name:   "empty field",
			fields: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k1 := PartitionKey(tt.fields...)
			k2 := PartitionKey(tt.fields...)

			if k1 != k2 {
				t.Errorf("PartitionKey() produced different keys for same fields: %s vs %s", k1, k2)
			}
			if len(k1) != 32 {
				t.Errorf("PartitionKey() length = %d, want 32", len(k1))
			}
		})
	}
}

func TestPartitionKey_Different(t *testing.T) {
	if PartitionKey("0", "qwe") == PartitionKey("1", "qwe") {
		t.Errorf("PartitionKey() produced same key for different line numbers")
	}
	if PartitionKey("0", "qwe") == PartitionKey("0", "asd") {
		t.Errorf("PartitionKey() produced same key for different text")
	}
}

func TestPartitionKey_JoinsWithDash(t *testing.T) {
	if PartitionKey("0", "qwe") != PartitionKey("0-qwe") {
		t.Errorf("PartitionKey() should hash fields joined with '-'")
	}
}

func TestRecordAndSourcePartitionKey(t *testing.T) {
	a := TextRecord{SourceID: "notes.txt", Line: 0, Text: "qwe"}
	b := TextRecord{SourceID: "notes.txt", Line: 1, Text: "asd"}

	if RecordPartitionKey(a) == RecordPartitionKey(b) {
		t.Errorf("RecordPartitionKey() should differ across lines")
	}
	if SourcePartitionKey(a) != SourcePartitionKey(b) {
		t.Errorf("SourcePartitionKey() should match for the same source")
	}
	if RecordPartitionKey(a) != PartitionKey("0", "qwe") {
		t.Errorf("RecordPartitionKey() should key on line and text")
	}
}
