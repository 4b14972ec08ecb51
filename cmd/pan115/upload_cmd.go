package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cpan115/pan115/internal/transfer"
)

func init() {
	rootCmd.AddCommand(newUploadCmd())
}

func newUploadCmd() *cobra.Command {
	var targetID int64
	var createFolder bool
	var workers int
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file or directory",
		Long: "Uploads a local file or directory tree into a remote folder.\n" +
			"Content already known to the service completes instantly without\n" +
			"moving bytes.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if workers <= 0 {
				workers = cfg.UploadWorkers
			}

			opts := &transfer.UploadOptions{
				TargetID:     targetID,
				CreateFolder: createFolder,
				Workers:      workers,
			}
			if !noProgress {
				opts.Progress = bytesProgress(cmd)
				opts.OnFileDone = fileProgress(cmd)
			}

			uploader := transfer.NewUploader(client, transfer.NewObjectPutter())
			out, err := uploader.Upload(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			if out.File != nil {
				return printFileResult(cmd, out.File)
			}
			return printBatchResult(cmd, out.Batch, "uploaded")
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().Int64VarP(&targetID, "target", "t", 0, "remote folder id (0 = root)")
	cmd.Flags().BoolVar(&createFolder, "create-folder", true, "mirror the directory itself as a remote folder")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent uploads (default: CPU count - 1)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress output")
	return cmd
}

// bytesProgress renders single-file byte progress on one terminal line.
func bytesProgress(cmd *cobra.Command) transfer.Progress {
	return func(transferred, total int64) {
		if total <= 0 {
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\r%s / %s (%d%%)   ",
			humanize.IBytes(uint64(transferred)),
			humanize.IBytes(uint64(total)),
			transferred*100/total,
		)
	}
}

// fileProgress prints one line per completed file in a batch.
func fileProgress(cmd *cobra.Command) transfer.BatchProgress {
	return func(done, total int, r *transfer.Result) {
		mark := green("ok")
		switch {
		case r.Skipped:
			mark = cyan("skip")
		case !r.Success:
			mark = red("failed")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s  %s (%s)\n",
			done, total, mark, resultName(r), humanize.IBytes(uint64(r.Size)))
	}
}

func resultName(r *transfer.Result) string {
	if r.RelPath != "" {
		return r.RelPath
	}
	return r.Name
}

func printFileResult(cmd *cobra.Command, r *transfer.Result) error {
	if !r.Success {
		return fmt.Errorf("%s: %s", r.Name, r.Message)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s)\n",
		green("OK"), r.Name, humanize.IBytes(uint64(r.Size)), r.Message)
	return nil
}

// printBatchResult renders a batch summary. Skips count as not-succeeded in
// the batch totals but are informational here: only real failures produce a
// non-zero exit.
func printBatchResult(cmd *cobra.Command, b *transfer.BatchResult, verb string) error {
	out := cmd.OutOrStdout()

	skipped := 0
	failed := 0
	for _, r := range b.Results {
		switch {
		case r.Skipped:
			skipped++
		case !r.Success:
			failed++
		}
	}

	fmt.Fprintf(out, "%s %d/%d files %s", green("DONE"), b.Succeeded, b.TotalFiles, verb)
	if skipped > 0 {
		fmt.Fprintf(out, ", %d skipped", skipped)
	}
	fmt.Fprintln(out)

	for _, omitted := range b.Omitted {
		fmt.Fprintf(out, "%s  %s (listing failed, subtree skipped)\n", red("omitted"), omitted)
	}
	for _, r := range b.Results {
		switch {
		case r.Skipped:
			fmt.Fprintf(out, "%s  %s: %s\n", cyan("skipped"), resultName(r), r.Message)
		case !r.Success:
			fmt.Fprintf(out, "%s  %s: %s\n", red("failed"), resultName(r), r.Message)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, b.TotalFiles)
	}
	return nil
}
