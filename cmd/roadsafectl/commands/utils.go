package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Relevance bands for table output.
const (
	strongScore   = 0.3
	moderateScore = 0.15
)

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// relevance labels a cosine score.
func relevance(score float64) string {
	switch {
	case score >= strongScore:
		return "strong"
	case score >= moderateScore:
		return "moderate"
	default:
		return "weak"
	}
}

// useJSON resolves --format. "auto" means JSON when stdout is not a terminal.
func useJSON() bool {
	switch outputFormat {
	case "json":
		return true
	case "table":
		return false
	default:
		return !term.IsTerminal(int(os.Stdout.Fd()))
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// validateTopN returns an error if n is outside 1..20.
func validateTopN(n int) error {
	if n < 1 || n > 20 {
		return fmt.Errorf("top-n must be between 1 and 20, got %d", n)
	}
	return nil
}
