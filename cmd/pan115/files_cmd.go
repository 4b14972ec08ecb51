package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cpan115/pan115/internal/api"
)

func init() {
	rootCmd.AddCommand(
		newLsCmd(),
		newMkdirCmd(),
		newRmCmd(),
		newMvCmd(),
		newCpCmd(),
		newRenameCmd(),
		newSearchCmd(),
		newStatCmd(),
	)
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List a remote folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			cid := api.RootFolderID
			if len(args) == 1 {
				cid, err = parseID(args[0])
				if err != nil {
					return err
				}
			}

			entries, err := client.Files.ListAll(cmd.Context(), cid, true)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				if e.IsDir() {
					fmt.Fprintf(out, "%12d  %10s  %s\n", e.ID.Int64(), "-", cyan(e.Name+"/"))
				} else {
					fmt.Fprintf(out, "%12d  %10s  %s\n", e.ID.Int64(), humanize.IBytes(uint64(e.Size.Int64())), e.Name)
				}
			}
			fmt.Fprintf(out, "%d entries\n", len(entries))
			return nil
		},
	}
}

func newMkdirCmd() *cobra.Command {
	var parentID int64

	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a remote folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err := client.Files.AddFolder(cmd.Context(), parentID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s created %s (id %d)\n", green("OK"), args[0], id)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&parentID, "parent", "p", 0, "parent folder id (0 = root)")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Move files or folders to the recycle bin",
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
			if err := client.Files.Delete(cmd.Context(), ids...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d item(s) moved to recycle bin\n", green("OK"), len(ids))
			return nil
		},
	}
}

func newMvCmd() *cobra.Command {
	var toID int64

	cmd := &cobra.Command{
		Use:   "mv <id>...",
		Short: "Move files into another folder",
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
			if err := client.Files.Move(cmd.Context(), toID, ids...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d item(s) moved\n", green("OK"), len(ids))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&toID, "to", "t", 0, "destination folder id")
	return cmd
}

func newCpCmd() *cobra.Command {
	var toID int64

	cmd := &cobra.Command{
		Use:   "cp <id>...",
		Short: "Copy files into another folder",
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
			if err := client.Files.Copy(cmd.Context(), toID, ids...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d item(s) copied\n", green("OK"), len(ids))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&toID, "to", "t", 0, "destination folder id")
	return cmd
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := client.Files.Rename(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s renamed to %s\n", green("OK"), args[1])
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	var cid int64
	var limit int

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search files by keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.Files.Search(cmd.Context(), &api.SearchParams{
				Keyword: args[0],
				CID:     cid,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range result.Data {
				size := "-"
				if int64(e.FileCategory) == api.CategoryFile {
					size = humanize.IBytes(uint64(e.FileSize.Int64()))
				}
				fmt.Fprintf(out, "%12d  %10s  %s\n", e.FileID.Int64(), size, e.FileName)
			}
			fmt.Fprintf(out, "%d of %d matches\n", len(result.Data), result.Count)
			return nil
		},
	}

	cmd.Flags().Int64Var(&cid, "folder", 0, "restrict search to a folder id")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <id|path>",
		Short: "Show details of a file or folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			var info *api.EntryInfo
			if id, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
				info, err = client.Files.InfoByID(cmd.Context(), id)
			} else {
				info, err = client.Files.InfoByPath(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:      %s\n", info.FileName)
			if info.IsDir() {
				fmt.Fprintf(out, "Type:      folder (%d entries)\n", info.FileCount.Int64())
			} else {
				fmt.Fprintf(out, "Type:      file\n")
				fmt.Fprintf(out, "Size:      %s\n", humanize.IBytes(uint64(info.SizeByte.Int64())))
				fmt.Fprintf(out, "SHA1:      %s\n", info.SHA1)
			}
			if info.PickCode != "" {
				fmt.Fprintf(out, "Pick code: %s\n", info.PickCode)
			}
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
