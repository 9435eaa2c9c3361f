package explain

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/search/match"
)

// Prompt defaults.
const (
	DefaultContextSize  = 3
	DefaultDataMaxRunes = 300
)

const systemPrompt = "You are a road safety expert specializing in IRC codes and traffic safety interventions."

const userTemplate = `You are an expert road safety engineer familiar with IRC (Indian Roads Congress) codes and regulations.

User's Road Safety Issue:
"%s"

Top Matching Interventions from Database:
%s

Task:
Explain why the top recommended intervention (IRC Clause %s) fits the user's road safety problem. Your explanation should:
1. Clearly state what the road safety problem is
2. Explain why IRC Clause %s is the most relevant regulation
3. Describe the specific intervention or corrective action required
4. Mention any safety implications if not addressed

Keep your response professional, concise (3-4 sentences), and actionable for road safety personnel.`

// BuildPrompt renders the chat prompt for the leading matches.
// matches must be non-empty.
func BuildPrompt(query string, matches []match.Match, contextSize, dataMaxRunes int) domain.Prompt {
	if contextSize <= 0 {
		contextSize = DefaultContextSize
	}
	if dataMaxRunes <= 0 {
		dataMaxRunes = DefaultDataMaxRunes
	}
	n := min(contextSize, len(matches))

	blocks := make([]string, 0, n)
	for i := range n {
		m := &matches[i]
		blocks = append(blocks, fmt.Sprintf("Match %d: Problem Type: %s\nIRC Clause: %s\nDetails: %s",
			i+1, m.Problem(), m.Clause(), truncateRunes(m.Data(), dataMaxRunes)))
	}

	top := matches[0].Clause()
	return domain.Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf(userTemplate, query, strings.Join(blocks, "\n\n"), top, top),
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
