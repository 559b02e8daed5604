package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteAllOneResultPerCommandInOrder(t *testing.T) {
	var ran []string
	fail := map[string]bool{"cmd-b": true, "cmd-d": true}

	e := NewWithRunner(func(_ context.Context, command string) (string, error) {
		ran = append(ran, command)
		if fail[command] {
			return "", fmt.Errorf("exit status 1")
		}
		return "ok: " + command, nil
	})

	commands := []string{"cmd-a", "cmd-b", "cmd-c", "cmd-d", "cmd-e"}
	batch := e.ExecuteAll(context.Background(), commands)

	require.Len(t, batch.Results, len(commands))
	assert.Equal(t, commands, ran, "every command runs, in input order, despite failures")
	assert.False(t, batch.OverallSuccess)

	expected := true
	for i, result := range batch.Results {
		assert.Equal(t, commands[i], result.Action)
		assert.Equal(t, !fail[commands[i]], result.Success)
		assert.False(t, result.Timestamp.IsZero())
		expected = expected && result.Success
	}
	assert.Equal(t, expected, batch.OverallSuccess)
}

func TestExecuteAllOverallSuccess(t *testing.T) {
	e := NewWithRunner(func(_ context.Context, command string) (string, error) {
		return "fine", nil
	})

	batch := e.ExecuteAll(context.Background(), []string{"one", "two"})
	assert.True(t, batch.OverallSuccess)
	for _, result := range batch.Results {
		assert.True(t, result.Success)
		assert.Equal(t, "fine", result.Output)
		assert.Empty(t, result.Error)
	}
}

func TestExecuteAllCapturesErrorMessage(t *testing.T) {
	e := NewWithRunner(func(_ context.Context, command string) (string, error) {
		return "partial output", fmt.Errorf("command not found")
	})

	batch := e.ExecuteAll(context.Background(), []string{"broken"})
	require.Len(t, batch.Results, 1)
	assert.Equal(t, "command not found", batch.Results[0].Error)
	assert.Equal(t, "partial output", batch.Results[0].Output)
}

func TestExecuteAllEmptyInput(t *testing.T) {
	e := NewWithRunner(func(_ context.Context, command string) (string, error) {
		t.Fatal("runner must not be called")
		return "", nil
	})

	batch := e.ExecuteAll(context.Background(), nil)
	assert.Empty(t, batch.Results)
	assert.True(t, batch.OverallSuccess)
}

func TestNormalizeStripsEscapeArtifacts(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`kubectl get pods -l \"app=nginx\"`, `kubectl get pods -l "app=nginx"`},
		{`  kubectl get pods  `, `kubectl get pods`},
		{`echo \'hello\'`, `echo 'hello'`},
		{`kubectl get pods`, `kubectl get pods`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestExecutorNormalizesBeforeRunning(t *testing.T) {
	var got string
	e := NewWithRunner(func(_ context.Context, command string) (string, error) {
		got = command
		return "", nil
	})

	e.ExecuteAll(context.Background(), []string{`kubectl annotate pod web note=\"checked\"`})
	assert.Equal(t, `kubectl annotate pod web note="checked"`, got)
}
