package policy

import (
	"strings"

	"github.com/helmcode/kubectl-remediate/pkg/model"
)

// destructivePatterns flags proposed commands whose blast radius the
// model tends to underestimate. Matching is case-insensitive
// substring.
var destructivePatterns = []string{
	"kubectl delete namespace",
	"kubectl delete ns ",
	"kubectl delete pv",
	"kubectl delete crd",
	"kubectl delete customresourcedefinition",
	"kubectl drain",
	"kubectl delete node",
	"kubectl replace --force",
	"helm uninstall",
	"helm delete",
	"rm -rf",
	"rm -r",
	"rm -f",
	"dd if=",
	"mkfs",
	"systemctl stop",
	"systemctl disable",
	"killall",
	"pkill",
	"iptables -F",
}

// IsDestructive reports whether a command matches a known destructive
// pattern.
func IsDestructive(command string) bool {
	lowered := strings.ToLower(command)
	for _, pattern := range destructivePatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// EffectiveRisk returns the plan risk, raised to high when any action
// command is destructive. The model's own tag is kept otherwise.
func EffectiveRisk(remediation model.Remediation) model.RiskLevel {
	risk := remediation.Risk
	for _, a := range remediation.Actions {
		if a.Command != "" && IsDestructive(a.Command) {
			return model.RiskHigh
		}
	}
	return risk
}
