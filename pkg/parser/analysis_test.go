package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmcode/kubectl-remediate/pkg/model"
)

const validAnalysis = `{
  "issueStatus": "active",
  "rootCause": "liveness probe port mismatch",
  "confidence": 0.9,
  "factors": ["probe targets port 8080", "container listens on 3000"],
  "remediation": {
    "summary": "point the probe at the right port",
    "actions": [
      {
        "description": "patch the probe port",
        "command": "kubectl patch deployment web -p '{\"spec\":{}}'",
        "risk": "low",
        "rationale": "aligns probe with the listening port"
      }
    ],
    "risk": "low"
  },
  "validationIntent": "confirm pods stay ready"
}`

func TestParseAnalysisPlain(t *testing.T) {
	a, err := ParseAnalysis(validAnalysis)
	require.NoError(t, err)

	assert.Equal(t, model.IssueActive, a.IssueStatus)
	assert.Equal(t, "liveness probe port mismatch", a.RootCause)
	assert.InDelta(t, 0.9, a.Confidence, 0.0001)
	assert.Len(t, a.Factors, 2)
	assert.Len(t, a.Remediation.Actions, 1)
	assert.Equal(t, model.RiskLow, a.Remediation.Risk)
	assert.Equal(t, "confirm pods stay ready", a.ValidationIntent)
}

func TestParseAnalysisWithSurroundingProse(t *testing.T) {
	raw := "Here is my analysis of the issue:\n\n" + validAnalysis +
		"\n\nLet me know if you need more detail about the {probe} configuration."

	a, err := ParseAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, "liveness probe port mismatch", a.RootCause)
}

func TestParseAnalysisBraceInsideString(t *testing.T) {
	// The command value contains braces and an escaped quote; a naive
	// extractor would terminate early.
	a, err := ParseAnalysis("prefix " + validAnalysis + " suffix }")
	require.NoError(t, err)
	assert.Contains(t, a.Remediation.Actions[0].Command, `{"spec":{}}`)
}

func TestParseAnalysisRejections(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"no JSON at all", "the model rambled with no structure", "no JSON object"},
		{"unterminated object", `{"issueStatus": "active"`, "unterminated"},
		{"invalid JSON syntax", `{"issueStatus": active}`, "not valid JSON"},
		{
			"bad issue status",
			`{"issueStatus":"maybe","rootCause":"x","confidence":0.5,"factors":["f"],"remediation":{"summary":"s","actions":[],"risk":"low"}}`,
			"issueStatus",
		},
		{
			"missing root cause",
			`{"issueStatus":"active","confidence":0.5,"factors":["f"],"remediation":{"summary":"s","actions":[],"risk":"low"}}`,
			"rootCause",
		},
		{
			"confidence out of range",
			`{"issueStatus":"active","rootCause":"x","confidence":1.4,"factors":["f"],"remediation":{"summary":"s","actions":[],"risk":"low"}}`,
			"confidence",
		},
		{
			"empty factors",
			`{"issueStatus":"active","rootCause":"x","confidence":0.5,"factors":[],"remediation":{"summary":"s","actions":[],"risk":"low"}}`,
			"factors",
		},
		{
			"missing remediation summary",
			`{"issueStatus":"active","rootCause":"x","confidence":0.5,"factors":["f"],"remediation":{"actions":[],"risk":"low"}}`,
			"summary",
		},
		{
			"bad plan risk",
			`{"issueStatus":"active","rootCause":"x","confidence":0.5,"factors":["f"],"remediation":{"summary":"s","actions":[],"risk":"severe"}}`,
			"risk",
		},
		{
			"action missing rationale",
			`{"issueStatus":"active","rootCause":"x","confidence":0.5,"factors":["f"],"remediation":{"summary":"s","actions":[{"description":"d","risk":"low"}],"risk":"low"}}`,
			"rationale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysis(tt.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExtractJSONObjectEscapedQuotes(t *testing.T) {
	raw := `{"a": "he said \"}\" loudly"} trailing`
	got, err := extractJSONObject(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"a": "he said \"}\" loudly"}`, got)
}
