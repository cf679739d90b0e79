package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/moderation"
)

func newDecisionCommand(ctx *commandContext, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <video-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision, err := domain.ParseDecision(name)
			if err != nil {
				return err
			}
			ids := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("invalid video id %q", arg)
				}
				ids = append(ids, id)
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			ctrl := moderation.NewController(client, ctx.logger())
			if _, err := ctrl.LoadQueue(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var errs []error
			for _, id := range ids {
				if !queued(ctrl, id) {
					fmt.Fprintf(out, "%s: not in queue\n", id)
					continue
				}
				if err := ctrl.Decide(cmd.Context(), id, decision); err != nil {
					fmt.Fprintf(out, "%s: failed\n", id)
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(out, "%s: %s\n", id, decisionVerb(decision))
			}
			return errors.Join(errs...)
		},
	}
}

func queued(ctrl *moderation.Controller, id uuid.UUID) bool {
	for _, v := range ctrl.Videos() {
		if v.ID == id {
			return true
		}
	}
	return false
}

func decisionVerb(d domain.Decision) string {
	if d == domain.Approve {
		return "approved"
	}
	return "banned"
}
