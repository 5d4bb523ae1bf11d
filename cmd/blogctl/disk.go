package main

import (
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newDiskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disk",
		Short: "Work with the network disk",
	}
	cmd.AddCommand(
		newDiskListCmd(a),
		newDiskUploadCmd(a),
		newDiskDownloadCmd(a),
		newDiskMkdirCmd(a),
		newDiskRemoveCmd(a),
		newDiskInfoCmd(a),
	)
	return cmd
}

func newDiskListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			l, err := a.client.ListFiles(ctx, dir)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(l.Directories)+len(l.Files))
			for _, d := range l.Directories {
				name := d.Name
				if d.DisplayName != "" {
					name = d.DisplayName
				}
				rows = append(rows, []string{name + "/", "-", d.ModifiedTime.Local().Format("2006-01-02 15:04"), d.Path})
			}
			for _, f := range l.Files {
				rows = append(rows, []string{f.Name, humanBytes(f.Size), f.ModifiedTime.Local().Format("2006-01-02 15:04"), f.Path})
			}
			a.out.Println("/%s", l.CurrentPath)
			a.out.Table([]string{"NAME", "SIZE", "MODIFIED", "PATH"}, rows)
			return nil
		},
	}
}

func newDiskUploadCmd(a *app) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a local file (default: your own folder)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			ctx, cancel := a.context(cmd)
			defer cancel()
			entry, err := a.client.Upload(ctx, to, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			a.out.Success("Uploaded %s (%s)", entry.Path, humanBytes(entry.Size))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination folder")
	return cmd
}

func newDiskDownloadCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <path>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			data, err := a.client.Download(ctx, args[0])
			if err != nil {
				return err
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if output == "" {
				output = path.Base(args[0])
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			a.out.Success("Saved %s (%s)", output, humanBytes(int64(len(data))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "local file, or - for stdout")
	return cmd
}

func newDiskMkdirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <parent> <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			dir, err := a.client.Mkdir(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			a.out.Success("Created %s", dir.Path)
			return nil
		},
	}
}

func newDiskRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := a.client.DeletePath(ctx, args[0]); err != nil {
				return err
			}
			a.out.Success("Deleted %s", args[0])
			return nil
		},
	}
}

func newDiskInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show storage usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			info, err := a.client.StorageInfo(ctx)
			if err != nil {
				return err
			}
			a.out.Println("%s in %d files", humanBytes(info.UsedBytes), info.FileCount)
			return nil
		},
	}
}
