// Package assets loads the classifier's model and label files.
package assets

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrLabels is returned when the label file cannot be used
var ErrLabels = errors.New("cannot read labels")

// ReadLabels reads one label per line from path.
// A UTF-8 BOM is stripped, CRLF endings are accepted and labels are NFC-normalized
// so they compare equal to what the collector stores. Trailing blank lines are dropped.
func ReadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %v", ErrLabels, path, err)
	}
	defer f.Close()

	decoder := unicode.UTF8BOM.NewDecoder()
	scanner := bufio.NewScanner(transform.NewReader(f, transform.Chain(decoder, norm.NFC)))

	var labels []string
	for scanner.Scan() {
		labels = append(labels, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w from %s: %v", ErrLabels, path, err)
	}

	for len(labels) > 0 && strings.TrimSpace(labels[len(labels)-1]) == "" {
		labels = labels[:len(labels)-1]
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w from %s: file is empty", ErrLabels, path)
	}

	return labels, nil
}
