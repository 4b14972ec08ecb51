package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cpan115/pan115/internal/transfer"
)

func init() {
	rootCmd.AddCommand(newDownloadCmd())
}

func newDownloadCmd() *cobra.Command {
	var dir string
	var filename string
	var overwrite bool
	var mode string
	var maxWorkers int
	var createFolder bool
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "download <id|path> [save-path]",
		Short: "Download a file or folder",
		Long: "Downloads by numeric file or folder id, or by remote path for a\n" +
			"single file. Folder downloads flatten the remote tree and fetch\n" +
			"files concurrently. The optional save-path argument overrides the\n" +
			"configured download directory.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if mode != transfer.ModeConcurrent && mode != transfer.ModeLoop {
				return fmt.Errorf("invalid mode %q, want %q or %q", mode, transfer.ModeConcurrent, transfer.ModeLoop)
			}
			if len(args) == 2 {
				dir = args[1]
			}
			if dir == "" {
				dir = cfg.DownloadDir
			}
			if cmd.Flags().Changed("max-workers") {
				// an explicit value below 1 requests available parallelism
				if maxWorkers < 1 {
					maxWorkers = -1
				}
			} else if maxWorkers == 0 {
				maxWorkers = cfg.DownloadWorkers
			}

			opts := &transfer.DownloadOptions{
				Dir:          dir,
				Filename:     filename,
				Overwrite:    overwrite,
				Mode:         mode,
				Workers:      maxWorkers,
				CreateFolder: createFolder,
			}
			if !noProgress {
				opts.Progress = bytesProgress(cmd)
				opts.OnFileDone = fileProgress(cmd)
			}

			out, err := transfer.NewDownloader(client).Download(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			if out.File != nil {
				if out.File.Skipped {
					// a skip is informational, not a failure exit
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", cyan("SKIP"), out.File.Name, out.File.Message)
					return nil
				}
				return printFileResult(cmd, out.File)
			}
			return printBatchResult(cmd, out.Batch, "downloaded")
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "destination directory (default: configured download dir)")
	cmd.Flags().StringVar(&filename, "filename", "", "rename a single downloaded file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing local files")
	cmd.Flags().StringVar(&mode, "mode", transfer.ModeConcurrent, "folder transfer mode: concurrent or loop")
	cmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "concurrent downloads (default 5, below 1 = CPU count)")
	cmd.Flags().BoolVar(&createFolder, "create-folder", true, "nest the download under the remote folder's name")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress output")
	return cmd
}
