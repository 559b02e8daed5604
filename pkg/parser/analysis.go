package parser

import (
	"encoding/json"
	"fmt"

	"github.com/helmcode/kubectl-remediate/pkg/model"
)

// ParseAnalysis recovers the structured analysis embedded in the
// model's final message. The message may carry leading or trailing
// prose around the JSON object; anything beyond the first balanced
// object is ignored. The parsed object is validated in full; there
// is no partial-acceptance mode.
func ParseAnalysis(raw string) (*model.Analysis, error) {
	jsonText, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(jsonText), &analysis); err != nil {
		return nil, fmt.Errorf("analysis is not valid JSON: %w", err)
	}

	if err := validate(&analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// extractJSONObject returns the first balanced JSON object in text.
// It scans from the first '{' tracking whether the cursor is inside a
// string literal (with backslash-escape handling, so an escaped quote
// does not toggle state) and a brace depth counter that only moves
// outside strings. The point depth returns to zero ends the object.
// This survives trailing commentary containing braces, which a "last
// '}' in text" heuristic would mis-extract.
func extractJSONObject(text string) (string, error) {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in response")
}

func validate(a *model.Analysis) error {
	switch a.IssueStatus {
	case model.IssueActive, model.IssueResolved, model.IssueNonExistent:
	default:
		return fmt.Errorf("invalid issueStatus %q (want active, resolved or non_existent)", a.IssueStatus)
	}
	if a.RootCause == "" {
		return fmt.Errorf("analysis is missing rootCause")
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v is outside [0,1]", a.Confidence)
	}
	if len(a.Factors) == 0 {
		return fmt.Errorf("analysis has no contributing factors")
	}
	if a.Remediation.Summary == "" {
		return fmt.Errorf("remediation is missing summary")
	}
	if !a.Remediation.Risk.Valid() {
		return fmt.Errorf("invalid remediation risk %q (want low, medium or high)", a.Remediation.Risk)
	}
	for i, action := range a.Remediation.Actions {
		if action.Description == "" {
			return fmt.Errorf("remediation action %d is missing description", i+1)
		}
		if action.Rationale == "" {
			return fmt.Errorf("remediation action %d is missing rationale", i+1)
		}
		if !action.Risk.Valid() {
			return fmt.Errorf("remediation action %d has invalid risk %q", i+1, action.Risk)
		}
	}
	return nil
}
