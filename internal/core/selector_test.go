package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSelectTopKConfidentSingleWinner(t *testing.T) {
	sel, err := SelectTopK([]byte{255, 0, 0}, []string{"cat", "dog", "fish"}, 3, 0.4)
	if err != nil {
		t.Fatalf("SelectTopK: %v", err)
	}

	if len(sel.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(sel.Results))
	}
	top := sel.Results[0]
	if top.Label != "cat" || top.Confidence != 1.0 || top.ID != "0" {
		t.Errorf("top = %+v, want cat with confidence 1.0", top)
	}
	if !sel.Accepted {
		t.Error("expected selection to be accepted")
	}
	if sel.Best() != "cat" {
		t.Errorf("Best() = %q, want cat", sel.Best())
	}
	if sel.Summary != "[0] cat (100.0%)" {
		t.Errorf("summary = %q", sel.Summary)
	}
}

func TestSelectTopKBelowThresholdIsDiscarded(t *testing.T) {
	sel, err := SelectTopK([]byte{100, 90, 80}, []string{"a", "b", "c"}, 3, 0.4)
	if err != nil {
		t.Fatalf("SelectTopK: %v", err)
	}

	if sel.Accepted {
		t.Error("100/255 is below 0.4, selection should not be accepted")
	}
	if sel.Best() != DiscardMarker {
		t.Errorf("Best() = %q, want discard marker", sel.Best())
	}
	if sel.Results[0].Label != "a" {
		t.Errorf("results keep the real ranking, got top %q", sel.Results[0].Label)
	}
}

func TestSelectTopKSingleLabelAlwaysAccepted(t *testing.T) {
	sel, err := SelectTopK([]byte{10}, []string{"only"}, 3, 0.4)
	if err != nil {
		t.Fatalf("SelectTopK: %v", err)
	}
	if !sel.Accepted || sel.Best() != "only" {
		t.Errorf("single result should be accepted, got %+v", sel)
	}
}

func TestSelectTopKThresholdIsStrict(t *testing.T) {
	// A confidence equal to the threshold is not above it
	sel, err := SelectTopK([]byte{102, 1}, []string{"a", "b"}, 3, float64(float32(102)/255))
	if err != nil {
		t.Fatalf("SelectTopK: %v", err)
	}
	if sel.Accepted {
		t.Error("confidence equal to the threshold must not be accepted")
	}
}

func TestSelectTopKOrderingAndBound(t *testing.T) {
	labels := []string{"l0", "l1", "l2", "l3", "l4", "l5"}
	confidences := []byte{10, 200, 30, 250, 0, 120}

	tests := []struct {
		k    int
		want []string
	}{
		{1, []string{"l3"}},
		{3, []string{"l3", "l1", "l5"}},
		{6, []string{"l3", "l1", "l5", "l2", "l0", "l4"}},
		{10, []string{"l3", "l1", "l5", "l2", "l0", "l4"}},
	}

	for _, tt := range tests {
		sel, err := SelectTopK(confidences, labels, tt.k, 0.4)
		if err != nil {
			t.Fatalf("k=%d: %v", tt.k, err)
		}
		var got []string
		for i, r := range sel.Results {
			got = append(got, r.Label)
			if i > 0 && r.Confidence > sel.Results[i-1].Confidence {
				t.Errorf("k=%d: results not descending at %d", tt.k, i)
			}
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("k=%d: got %v, want %v", tt.k, got, tt.want)
		}
	}
}

func TestSelectTopKTieBreakLowerIndexWins(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e"}
	confidences := []byte{50, 80, 80, 80, 80}

	sel, err := SelectTopK(confidences, labels, 3, 0.4)
	if err != nil {
		t.Fatalf("SelectTopK: %v", err)
	}

	var got []string
	for _, r := range sel.Results {
		got = append(got, r.Label)
	}
	if want := []string{"b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectTopKAllZero(t *testing.T) {
	sel, err := SelectTopK([]byte{0, 0, 0, 0}, []string{"a", "b", "c", "d"}, 3, 0.4)
	if err != nil {
		t.Fatalf("SelectTopK: %v", err)
	}
	if sel.Summary != "" {
		t.Errorf("summary = %q, want empty", sel.Summary)
	}
	if len(sel.Results) != 3 {
		t.Fatalf("got %d results, want 3 zero-confidence entries", len(sel.Results))
	}
	for _, r := range sel.Results {
		if r.Confidence != 0 {
			t.Errorf("result %+v should have zero confidence", r)
		}
	}
	if sel.Accepted {
		t.Error("all-zero selection with several results should not be accepted")
	}
}

func TestSelectTopKSummaryCoversAllNonZeroLabels(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e"}
	sel, err := SelectTopK([]byte{51, 0, 102, 0, 255}, labels, 1, 0.4)
	if err != nil {
		t.Fatalf("SelectTopK: %v", err)
	}

	lines := strings.Split(sel.Summary, "\n")
	want := []string{"[0] a (20.0%)", "[2] c (40.0%)", "[4] e (100.0%)"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("summary lines = %q, want %q", lines, want)
	}
	if len(sel.Results) != 1 {
		t.Errorf("summary is independent of k, but results must honor k=1")
	}
}

func TestSelectTopKDeterministic(t *testing.T) {
	labels := []string{"a", "b", "c", "d"}
	confidences := []byte{7, 7, 7, 7}

	first, err := SelectTopK(confidences, labels, 3, 0.4)
	if err != nil {
		t.Fatalf("SelectTopK: %v", err)
	}
	second, err := SelectTopK(confidences, labels, 3, 0.4)
	if err != nil {
		t.Fatalf("SelectTopK: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ between identical calls:\n%+v\n%+v", first, second)
	}
}

func TestSelectTopKErrors(t *testing.T) {
	tests := []struct {
		name        string
		confidences []byte
		labels      []string
		k           int
		want        error
	}{
		{"short confidences", []byte{1, 2}, []string{"a", "b", "c"}, 3, ErrLengthMismatch},
		{"long confidences", []byte{1, 2, 3, 4}, []string{"a", "b", "c"}, 3, ErrLengthMismatch},
		{"no labels", nil, nil, 3, ErrNoLabels},
		{"zero k", []byte{1}, []string{"a"}, 0, ErrInvalidK},
	}

	for _, tt := range tests {
		_, err := SelectTopK(tt.confidences, tt.labels, tt.k, 0.4)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestRecognitionString(t *testing.T) {
	r := Recognition{ID: "7", Label: "tabby cat", Confidence: 0.5}
	if got := r.String(); got != "[7] tabby cat (50.0%)" {
		t.Errorf("String() = %q", got)
	}
}
