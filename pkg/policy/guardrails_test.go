package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helmcode/kubectl-remediate/pkg/model"
)

func TestIsDestructive(t *testing.T) {
	assert.True(t, IsDestructive("kubectl delete namespace production"))
	assert.True(t, IsDestructive("KUBECTL DRAIN node-1 --force"))
	assert.True(t, IsDestructive("rm -rf /var/lib/data"))
	assert.False(t, IsDestructive("kubectl rollout restart deployment/nginx"))
	assert.False(t, IsDestructive("kubectl scale deployment/nginx --replicas=3"))
	assert.False(t, IsDestructive("kubectl delete pod nginx-abc123"))
}

func TestEffectiveRiskRaisesDestructivePlans(t *testing.T) {
	plan := model.Remediation{
		Risk: model.RiskLow,
		Actions: []model.RemediationAction{
			{Description: "restart", Command: "kubectl rollout restart deployment/nginx", Risk: model.RiskLow},
			{Description: "drain", Command: "kubectl drain node-1", Risk: model.RiskLow},
		},
	}
	assert.Equal(t, model.RiskHigh, EffectiveRisk(plan))

	plan.Actions = plan.Actions[:1]
	assert.Equal(t, model.RiskLow, EffectiveRisk(plan))
}
