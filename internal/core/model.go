package core

import (
	"fmt"
	"time"
)

// DiscardMarker replaces the best label when the top result is not confident enough.
// It reads "recognition imprecise, data discarded" and is what the collector expects.
const DiscardMarker = "识别不精准，已丢弃数据"

// RecordDateLayout is the timestamp layout of ClassificationRecord.Date (yyyyMMdd HH:mm:ss)
const RecordDateLayout = "20060102 15:04:05"

// Recognition is a single ranked label
type Recognition struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// String renders the recognition as "[id] label (pct%)"
func (r Recognition) String() string {
	return fmt.Sprintf("[%s] %s (%.1f%%)", r.ID, r.Label, r.Confidence*100)
}

// Selection is the outcome of top-k selection over one inference
type Selection struct {
	Results  []Recognition
	Accepted bool
	Summary  string
}

// Best returns the label to report: the top label, or DiscardMarker when not accepted
func (s Selection) Best() string {
	if !s.Accepted || len(s.Results) == 0 {
		return DiscardMarker
	}
	return s.Results[0].Label
}

// ClassificationRecord is the JSON body sent to the collector
type ClassificationRecord struct {
	Date      string `json:"date"`
	BestLabel string `json:"bestLabel"`
	Labels    string `json:"labels"`
}

// NewRecord builds the report record for a selection taken at the given time
func NewRecord(s Selection, at time.Time) ClassificationRecord {
	return ClassificationRecord{
		Date:      at.Format(RecordDateLayout),
		BestLabel: s.Best(),
		Labels:    s.Summary,
	}
}

// Classification is the full result of classifying one image
type Classification struct {
	Selection
	Record  ClassificationRecord
	Payload []byte
	Digest  string
	Cached  bool
}

// CacheEntry holds the raw inference output for an image digest
type CacheEntry struct {
	Digest      string
	Confidences []byte
	LastSeen    time.Time
	ExpiresAt   time.Time
}
