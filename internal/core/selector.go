package core

import (
	"container/heap"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultTopK is the number of results kept per classification
	DefaultTopK = 3
	// DefaultThreshold is the confidence the top result must exceed to be accepted
	DefaultThreshold = 0.4
)

var (
	// ErrLengthMismatch is returned when confidences and labels differ in length
	ErrLengthMismatch = errors.New("confidence count does not match label count")
	// ErrNoLabels is returned when there is nothing to rank
	ErrNoLabels = errors.New("no labels to rank")
	// ErrInvalidK is returned when k is not positive
	ErrInvalidK = errors.New("k must be at least 1")
)

// ranked is a recognition plus the label index used for tie-breaking
type ranked struct {
	Recognition
	index int
}

// minHeap orders by confidence ascending. Among equal confidences the higher
// label index sorts first, so it is evicted first and ranks last.
type minHeap []ranked

func (h minHeap) Len() int { return len(h) }

func (h minHeap) Less(i, j int) bool {
	if h[i].Confidence != h[j].Confidence {
		return h[i].Confidence < h[j].Confidence
	}
	return h[i].index > h[j].index
}

func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) { *h = append(*h, x.(ranked)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SelectTopK ranks the labels by confidence and keeps the k best.
//
// confidences[i] is the quantized score of labels[i], normalized as
// confidences[i]/255. The summary lists every label with a confidence above
// zero, in label order, one per line. The selection is accepted when exactly
// one result exists or the best confidence is strictly above threshold.
func SelectTopK(confidences []byte, labels []string, k int, threshold float64) (Selection, error) {
	if k < 1 {
		return Selection{}, ErrInvalidK
	}
	if len(labels) == 0 {
		return Selection{}, ErrNoLabels
	}
	if len(confidences) != len(labels) {
		return Selection{}, fmt.Errorf("%w: %d confidences, %d labels", ErrLengthMismatch, len(confidences), len(labels))
	}

	h := make(minHeap, 0, k+1)
	var summary []string

	for i, label := range labels {
		r := ranked{
			Recognition: Recognition{
				ID:         strconv.Itoa(i),
				Label:      label,
				Confidence: float32(confidences[i]) / 255,
			},
			index: i,
		}

		heap.Push(&h, r)
		if r.Confidence > 0 {
			summary = append(summary, r.String())
		}
		if h.Len() > k {
			heap.Pop(&h)
		}
	}

	// Popping yields ascending order; fill from the back for descending results
	results := make([]Recognition, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(&h).(ranked).Recognition
	}

	accepted := len(results) == 1 || float64(results[0].Confidence) > threshold

	return Selection{
		Results:  results,
		Accepted: accepted,
		Summary:  strings.Join(summary, "\n"),
	}, nil
}
