package ingestion

import (
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/linestream/core"
)

var lineBreak = regexp.MustCompile(`\r\n|\r|\n`)

// SplitLines breaks payload into records, one per line that contains
// something other than whitespace. Line numbers count kept lines only.
func SplitLines(payload []byte, sourceID string, now time.Time) []core.TextRecord {
	if len(payload) == 0 {
		return []core.TextRecord{}
	}

	parts := lineBreak.Split(string(payload), -1)
	records := make([]core.TextRecord, 0, len(parts))
	for _, text := range parts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		records = append(records, core.TextRecord{
			SourceID:  sourceID,
			Line:      len(records),
			Text:      text,
			CreatedAt: now,
		})
	}
	return records
}
