package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/makeasinger/studio/internal/middleware"
	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/store"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cmd.Context(), ctx.cfg.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", st.Driver())
			return nil
		},
	}
}

func newPendingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List jobs that have not reached a terminal status",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cmd.Context(), ctx.cfg.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			generations, err := st.GetPendingGenerations(cmd.Context())
			if err != nil {
				return err
			}
			stems, err := st.GetPendingStemSeparations(cmd.Context())
			if err != nil {
				return err
			}

			if len(generations) == 0 && len(stems) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending jobs")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPending(generations, stems))
			return nil
		},
	}
}

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			auth := middleware.NewAuthMiddleware(cfg.JWT.Secret, time.Duration(cfg.JWT.Expiration)*time.Hour)
			token, err := auth.GenerateToken(args[0], email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	return cmd
}

func pendingRows(generations []*model.Generation, stems []*model.StemSeparation) [][]string {
	rows := make([][]string, 0, len(generations)+len(stems))
	for _, g := range generations {
		rows = append(rows, []string{string(model.JobKindGeneration), strconv.FormatInt(g.ID, 10), string(g.Status), deref(g.TaskID), g.UpdatedAt.Format(time.RFC3339)})
	}
	for _, s := range stems {
		rows = append(rows, []string{string(model.JobKindStem), strconv.FormatInt(s.ID, 10), string(s.Status), deref(s.TaskID), s.UpdatedAt.Format(time.RFC3339)})
	}
	return rows
}

func renderPending(generations []*model.Generation, stems []*model.StemSeparation) string {
	return renderTable(
		[]string{"Kind", "ID", "Status", "Task", "Updated"},
		pendingRows(generations, stems),
		[]columnAlignment{alignLeft, alignRight},
	)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
