package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mikey/image-classifier/internal/core"
	"go.uber.org/zap/zaptest"
)

type stubClassifier struct {
	mu     sync.Mutex
	images [][]byte
	err    error
}

func (c *stubClassifier) ClassifyImage(ctx context.Context, image []byte) (*core.Classification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, image)
	if c.err != nil {
		return nil, c.err
	}

	sel := core.Selection{
		Results:  []core.Recognition{{ID: "0", Label: "cat", Confidence: 0.8}},
		Accepted: true,
		Summary:  "[0] cat (80.0%)",
	}
	return &core.Classification{
		Selection: sel,
		Record:    core.NewRecord(sel, time.Now()),
		Payload:   []byte(`{}`),
		Digest:    "d",
	}, nil
}

func (c *stubClassifier) calls() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.images...)
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCliSourceProcessImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.jpg")
	writeFile(t, path, "image bytes")

	stub := &stubClassifier{}
	src := NewCliSource(stub, zaptest.NewLogger(t), true)
	var out bytes.Buffer
	src.SetOutput(&out)

	result, err := src.ProcessImage(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if result.Record.BestLabel != "cat" {
		t.Errorf("best label = %q", result.Record.BestLabel)
	}
	if calls := stub.calls(); len(calls) != 1 || string(calls[0]) != "image bytes" {
		t.Errorf("classifier got %q", calls)
	}
	for _, want := range []string{"Path: " + path, "[0] cat (80.0%)", "Best label: cat", "Accepted: true"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCliSourceErrors(t *testing.T) {
	src := NewCliSource(&stubClassifier{}, zaptest.NewLogger(t), false)
	src.SetOutput(&bytes.Buffer{})

	if _, err := src.ProcessImage(context.Background(), filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "x.png")
	writeFile(t, path, "x")
	failing := NewCliSource(&stubClassifier{err: errors.New("bad model")}, zaptest.NewLogger(t), false)
	failing.SetOutput(&bytes.Buffer{})
	if _, err := failing.ProcessImage(context.Background(), path); err == nil {
		t.Error("expected classifier error to propagate")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatchSourceClassifiesNewImageOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captures")
	stub := &stubClassifier{}
	src := NewWatchSource(stub, zaptest.NewLogger(t), dir, []string{".jpg", "PNG"}, 50*time.Millisecond)

	if err := src.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer src.Stop()

	// Several writes within the settle delay still classify once
	path := filepath.Join(dir, "frame.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, chunk := range []string{"part1-", "part2-", "part3"} {
		if _, err := f.WriteString(chunk); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	f.Close()

	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "upper.PNG"), "png")

	waitFor(t, 5*time.Second, func() bool { return len(stub.calls()) >= 2 })
	time.Sleep(200 * time.Millisecond)

	calls := stub.calls()
	if len(calls) != 2 {
		t.Fatalf("classifier called %d times, want 2", len(calls))
	}
	seen := map[string]bool{}
	for _, c := range calls {
		seen[string(c)] = true
	}
	if !seen["part1-part2-part3"] || !seen["png"] {
		t.Errorf("classified %q, want the complete jpg and the png", calls)
	}
}

func TestWatchSourceStopIsIdempotent(t *testing.T) {
	src := NewWatchSource(&stubClassifier{}, zaptest.NewLogger(t), t.TempDir(), []string{".jpg"}, time.Second)
	if err := src.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	writeFile(t, filepath.Join(src.dir, "pending.jpg"), "x")
	if err := src.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestWatchSourceZeroSettleClassifiesEveryFile(t *testing.T) {
	dir := t.TempDir()
	stub := &stubClassifier{}
	src := NewWatchSource(stub, zaptest.NewLogger(t), dir, []string{".jpg"}, 0)

	if err := src.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer src.Stop()

	const total = 100
	want := make(map[string]bool, total)
	for i := 0; i < total; i++ {
		name := fmt.Sprintf("frame-%03d", i)
		want[name] = true
		writeFile(t, filepath.Join(dir, name+".jpg"), name)
	}

	// A file may be classified more than once with no settle delay, but never skipped
	seen := func() map[string]bool {
		got := map[string]bool{}
		for _, c := range stub.calls() {
			got[string(c)] = true
		}
		return got
	}
	waitFor(t, 10*time.Second, func() bool {
		got := seen()
		for name := range want {
			if !got[name] {
				return false
			}
		}
		return true
	})
}
