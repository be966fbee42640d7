package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/kireiworks/cleaning-backend/pkg/apiclient"
	"github.com/spf13/cobra"
)

func newDeleteCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ids...",
		Short: "画像をまとめて削除する",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), global, func(s *apiclient.Session) error {
				return runDelete(cmd.Context(), s, ids, cmd.OutOrStdout())
			})
		},
	}
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 32)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("画像IDが正しくありません: %q", a)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func runDelete(ctx context.Context, s *apiclient.Session, ids []uint, out io.Writer) error {
	result, err := s.BatchDeleteImages(ctx, ids)
	if err != nil {
		return err
	}
	for _, r := range result.Results {
		if r.Status != "deleted" {
			fmt.Fprintf(out, "✗ #%d: %s\n", r.ID, r.Status)
		}
	}
	fmt.Fprintln(out, result.Message)
	if result.Failed > 0 {
		return fmt.Errorf("%d件の削除に失敗しました", result.Failed)
	}
	return nil
}
