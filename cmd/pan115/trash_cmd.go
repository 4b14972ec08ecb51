package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	trashCmd := &cobra.Command{
		Use:   "trash",
		Short: "Manage the recycle bin",
	}
	trashCmd.AddCommand(newTrashListCmd(), newTrashRevertCmd(), newTrashClearCmd())
	rootCmd.AddCommand(trashCmd)
}

func newTrashListCmd() *cobra.Command {
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recycle bin contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.Recycle.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range result.Data {
				deleted := time.Unix(e.DeleteAt.Int64(), 0).Format("2006-01-02 15:04")
				fmt.Fprintf(out, "%12d  %10s  %s  %s\n",
					e.ID.Int64(), humanize.IBytes(uint64(e.FileSize.Int64())), deleted, e.FileName)
			}
			fmt.Fprintf(out, "%d of %d entries\n", len(result.Data), result.Count)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 30, "maximum entries (capped at 200)")
	cmd.Flags().IntVar(&offset, "offset", 0, "listing offset")
	return cmd
}

func newTrashRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <id>...",
		Short: "Restore entries from the recycle bin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if err := client.Recycle.Revert(cmd.Context(), ids...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d item(s) restored\n", green("OK"), len(ids))
			return nil
		},
	}
}

func newTrashClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear [id]...",
		Short: "Permanently delete entries, or empty the bin",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if len(args) == 0 && !yes {
				return fmt.Errorf("emptying the whole bin is permanent, re-run with --yes")
			}

			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if err := client.Recycle.Purge(cmd.Context(), ids...); err != nil {
				return err
			}

			if len(ids) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s recycle bin emptied\n", green("OK"))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d item(s) permanently deleted\n", green("OK"), len(ids))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm emptying the whole bin")
	return cmd
}
