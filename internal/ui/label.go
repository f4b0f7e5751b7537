package ui

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel trims s, collapses every whitespace run (including
// line breaks inside multi-line buttons) to a single space and composes
// Hangul jamo into syllables (NFC).
func NormalizeLabel(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// FindByLabel returns the elements matching selector whose visible label
// equals label after normalization. Elements whose text cannot be read
// are skipped.
func FindByLabel(ctx context.Context, acc Accessor, selector, label string) ([]Handle, error) {
	handles, err := acc.Locate(ctx, nil, selector)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", selector, err)
	}

	want := NormalizeLabel(label)
	var out []Handle
	for _, h := range handles {
		text, err := acc.InnerText(ctx, h)
		if err != nil {
			if IsFatal(err) {
				return nil, err
			}
			continue
		}
		if NormalizeLabel(text) == want {
			out = append(out, h)
		}
	}
	return out, nil
}

// Labels reads the normalized, non-empty labels of every element matching
// selector, in document order.
func Labels(ctx context.Context, acc Accessor, selector string) ([]string, error) {
	handles, err := acc.Locate(ctx, nil, selector)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", selector, err)
	}

	var out []string
	for _, h := range handles {
		text, err := acc.InnerText(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("read label: %w", err)
		}
		if text = NormalizeLabel(text); text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}
