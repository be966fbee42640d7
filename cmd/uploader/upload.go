package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kireiworks/cleaning-backend/pkg/apiclient"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/spf13/cobra"
)

type uploadOptions struct {
	facility string
	room     string
	phase    string
	date     string
	files    []string
}

func newUploadCommand(global *globalOptions) *cobra.Command {
	opts := uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload --facility FAC001 --room トイレ --phase before files...",
		Short: "清掃記録を取得または作成し、写真を順番にアップロードする",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.files = args
			return withSession(cmd.Context(), global, func(s *apiclient.Session) error {
				return runUpload(cmd.Context(), s, opts, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVar(&opts.facility, "facility", "", "facility ID")
	cmd.Flags().StringVar(&opts.room, "room", "", "room type")
	cmd.Flags().StringVar(&opts.phase, "phase", "before", "before or after")
	cmd.Flags().StringVar(&opts.date, "date", "", "cleaning date YYYY-MM-DD (default: today in JST)")
	_ = cmd.MarkFlagRequired("facility")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

// runUpload finds or creates the record, then uploads files one by one with a single
// aggregated progress line. Failed files are reported and skipped.
func runUpload(ctx context.Context, s *apiclient.Session, opts uploadOptions, out io.Writer) error {
	if opts.phase != "before" && opts.phase != "after" {
		return fmt.Errorf("--phase は before か after を指定してください")
	}

	sizes := make([]int64, len(opts.files))
	for i, path := range opts.files {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		sizes[i] = info.Size()
	}

	record, err := s.FindOrCreateRecord(ctx, opts.facility, opts.room, opts.date)
	if err != nil {
		return fmt.Errorf("清掃記録の取得に失敗しました: %w", err)
	}
	fmt.Fprintf(out, "清掃記録 #%d (%s %s)\n", record.RecordID, record.CleaningDate, opts.room)

	progress := apiclient.NewProgress(sizes...)
	stop := printProgress(out, progress)

	failed := 0
	for i, path := range opts.files {
		if err := uploadFile(ctx, s, opts, record.RecordID, path, progress.Func(i)); err != nil {
			failed++
			logger.Error("Upload failed", err, map[string]interface{}{
				"file": path,
			})
			fmt.Fprintf(out, "\n✗ %s: %v\n", filepath.Base(path), err)
			if ctx.Err() != nil || apiclient.IsUnauthorized(err) {
				stop()
				return err
			}
		}
		progress.Done(i)
	}
	stop()

	fmt.Fprintf(out, "%d件アップロード、%d件失敗\n", len(opts.files)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d件のアップロードに失敗しました", failed)
	}
	return nil
}

func uploadFile(ctx context.Context, s *apiclient.Session, opts uploadOptions, recordID uint, path string, onProgress apiclient.ProgressFunc) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	_, err = s.UploadImage(ctx, apiclient.UploadImageInput{
		FacilityID:  opts.facility,
		RecordID:    recordID,
		RoomType:    opts.room,
		BeforeAfter: opts.phase,
		FileName:    filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, onProgress)
	return err
}

// printProgress redraws the progress line every 200ms; the returned func prints the
// final state once
func printProgress(out io.Writer, p *apiclient.Progress) func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fmt.Fprintf(out, "\r%s", p.Snapshot())
			case <-done:
				fmt.Fprintf(out, "\r%s\n", p.Snapshot())
				return
			}
		}
	}()

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
		<-finished
	}
}
