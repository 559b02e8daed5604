package prompts

import (
	"fmt"
)

// InvestigationSystemPrompt sets the rules for the bounded tool-calling
// investigation and the output-format contract the parser enforces.
const InvestigationSystemPrompt = `You are a Kubernetes expert investigating a reported cluster issue.

Rules:
1. Use the provided diagnostic tools to gather evidence before concluding anything. All tools are read-only.
2. A failing tool call is evidence too: reason about the error instead of retrying it blindly.
3. Do not guess resource names; discover them with the tools.
4. When you have enough evidence, stop calling tools and produce your final answer.

Your final answer MUST contain exactly one JSON object with this structure:
{
  "issueStatus": "active|resolved|non_existent",
  "rootCause": "brief explanation of the root cause",
  "confidence": 0.0,
  "factors": ["evidence item supporting the diagnosis"],
  "remediation": {
    "summary": "what the fix does",
    "actions": [
      {
        "description": "what this step does",
        "command": "kubectl command to run (omit for advisory steps)",
        "risk": "low|medium|high",
        "rationale": "why this step helps"
      }
    ],
    "risk": "low|medium|high"
  },
  "validationIntent": "how to verify the fix worked, phrased as a new issue to investigate"
}

confidence is your self-assessed probability in [0,1] that the root cause is correct.
If the issue is already resolved or never existed, say so in issueStatus and leave actions empty.
Any text outside the JSON object is ignored.`

// BuildIssuePrompt phrases a fresh issue for investigation.
func BuildIssuePrompt(issue string) string {
	return fmt.Sprintf(`Investigate the following reported issue and diagnose its root cause:

%s

Gather evidence with the diagnostic tools, then produce your final answer in the required JSON format.`, issue)
}

// BuildValidationPrompt phrases the post-fix re-investigation from the
// analysis's validation intent and the original symptom.
func BuildValidationPrompt(validationIntent, originalIssue string) string {
	return fmt.Sprintf(`A remediation was just applied for this issue: %s

Verify whether the fix worked: %s

If the original symptom is gone, report issueStatus "resolved". If it persists, report "active" with what you found.`,
		originalIssue, validationIntent)
}
