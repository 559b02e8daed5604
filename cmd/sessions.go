package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"k8s.io/client-go/util/homedir"

	"github.com/helmcode/kubectl-remediate/pkg/model"
	"github.com/helmcode/kubectl-remediate/pkg/session"
)

func NewSessionsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored remediation sessions",
	}

	defaultDir := ".kubectl-remediate-sessions"
	if home := homedir.HomeDir(); home != "" {
		defaultDir = filepath.Join(home, ".kube", "remediate", "sessions")
	}
	cmd.PersistentFlags().StringVar(&dir, "session-dir", defaultDir, "Directory for session records")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.NewFileStore(dir)
			if err != nil {
				return err
			}
			sessions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("no sessions found")
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("%s  %-22s %-9s %s\n", s.ID, statusLabel(s.Status), s.Mode, truncate(s.Issue, 60))
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show SESSION_ID",
		Short: "Print one session record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.NewFileStore(dir)
			if err != nil {
				return err
			}
			s, err := store.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func statusLabel(status model.Status) string {
	switch status {
	case model.StatusExecutedSuccessfully:
		return color.GreenString(string(status))
	case model.StatusFailed, model.StatusExecutedWithErrors:
		return color.RedString(string(status))
	case model.StatusAnalysisComplete:
		return color.YellowString(string(status))
	default:
		return string(status)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
