// Package cli provides file operation commands.
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/twinpane/twinpane/internal/fileops"
	"github.com/twinpane/twinpane/internal/localfs"
	"github.com/twinpane/twinpane/internal/models"
	"github.com/twinpane/twinpane/internal/pathutil"
	"github.com/twinpane/twinpane/internal/transfer"
)

var (
	dirColor    = color.New(color.FgBlue, color.Bold)
	hiddenColor = color.New(color.Faint)
	labelColor  = color.New(color.FgCyan)
)

// newLsCmd creates the 'ls' command.
func newLsCmd() *cobra.Command {
	var showHidden bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List directory contents",
		Long: `List the entries of a directory, directories first.

Examples:
  twinpane ls
  twinpane ls --hidden ~/projects`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			resolved, err := pathutil.Resolve(path)
			if err != nil {
				return err
			}

			eng := fileops.NewEngine(GetLogger())
			items, err := eng.GetDirectoryContents(resolved, showHidden || cfg.ShowHidden)
			if err != nil {
				return err
			}
			printListing(items)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "Include hidden and system entries")
	return cmd
}

func printListing(items []models.FileSystemItem) {
	for _, item := range items {
		name := item.Name
		size := ""
		switch {
		case item.IsDir:
			name = dirColor.Sprint(name + "/")
		case item.Hidden:
			name = hiddenColor.Sprint(name)
			size = humanSize(item.Size)
		default:
			size = humanSize(item.Size)
		}
		if item.IsParentRef() {
			fmt.Println(name)
			continue
		}
		fmt.Printf("%-40s %10s  %s\n", name, size, item.ModTime.Format("2006-01-02 15:04"))
	}
}

// newDrivesCmd creates the 'drives' command.
func newDrivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List mounted drives and their free space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := fileops.NewEngine(GetLogger())
			drives, err := eng.GetDrives()
			if err != nil {
				return err
			}
			for _, d := range drives {
				label := d.Label
				if label == "" {
					label = d.Root
				}
				fmt.Printf("%-30s %10s free of %10s  %s\n",
					labelColor.Sprint(label),
					humanSize(d.FreeBytes),
					humanSize(d.TotalBytes),
					d.Root)
			}
			return nil
		},
	}
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// newCpCmd creates the 'cp' command.
func newCpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp SOURCE... DEST",
		Short: "Copy files and directories",
		Long: `Copy one or more files or directories into DEST.

Each source becomes one queue task; tasks run concurrently up to the
configured worker count. Collisions follow --on-conflict.

Examples:
  twinpane cp report.txt /backup/
  twinpane cp --on-conflict overwrite src/ assets/ /mnt/usb/project/`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(transfer.TaskCopy, args)
		},
	}
}

// newMvCmd creates the 'mv' command.
func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv SOURCE... DEST",
		Short: "Move files and directories",
		Long: `Move one or more files or directories into DEST.

Same-volume moves rename in place; cross-volume moves copy then delete the
source only after the copy fully succeeded.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(transfer.TaskMove, args)
		},
	}
}

// runTransfer queues one copy or move task per source and waits for the
// batch to drain.
func runTransfer(kind transfer.TaskKind, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	decision, err := conflictDecision(cfg)
	if err != nil {
		return err
	}

	sources := args[:len(args)-1]
	dest, err := pathutil.Resolve(args[len(args)-1])
	if err != nil {
		return err
	}

	eng := fileops.NewEngine(GetLogger())
	session := newQueueSession(cfg)

	for _, raw := range sources {
		src, err := pathutil.Resolve(raw)
		if err != nil {
			return err
		}
		size, _, _ := localfs.TreeSize(src) // best effort, drives the speed readout
		_, err = session.queue.Enqueue(kind, filepath.Base(src), src, dest, size,
			func(ctx context.Context, progress func(int, string)) error {
				opts := fileops.Options{
					OnConflict:   decision,
					Progress:     fileops.ProgressFunc(progress),
					SafetyMargin: cfg.SpaceSafetyMargin,
				}
				var report models.BatchReport
				var opErr error
				if kind == transfer.TaskMove {
					report, opErr = eng.Move(ctx, []string{src}, dest, opts)
				} else {
					report, opErr = eng.Copy(ctx, []string{src}, dest, opts)
				}
				session.addReport(report)
				if opErr != nil {
					return opErr
				}
				// A task with failed items is a failed task, even though
				// the batch as a whole kept going.
				return report.Err()
			})
		if err != nil {
			return err
		}
	}
	return session.finish()
}

// newRmCmd creates the 'rm' command.
func newRmCmd() *cobra.Command {
	var permanent bool

	cmd := &cobra.Command{
		Use:   "rm PATH...",
		Short: "Delete files and directories",
		Long: `Delete the given paths. Without --permanent, entries go to the platform
trash when the configuration allows it; --permanent removes them outright,
recursively for directories.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			paths := make([]string, 0, len(args))
			for _, raw := range args {
				p, err := pathutil.Resolve(raw)
				if err != nil {
					return err
				}
				paths = append(paths, p)
			}

			eng := fileops.NewEngine(GetLogger())
			session := newQueueSession(cfg)
			toTrash := !permanent && cfg.UseTrash
			_, err = session.queue.Enqueue(transfer.TaskDelete, fmt.Sprintf("%d item(s)", len(paths)), paths[0], "", 0,
				func(ctx context.Context, progress func(int, string)) error {
					report, opErr := eng.Delete(ctx, paths, !toTrash, fileops.Options{
						Progress: fileops.ProgressFunc(progress),
					})
					session.addReport(report)
					if opErr != nil {
						return opErr
					}
					return report.Err()
				})
			if err != nil {
				return err
			}
			return session.finish()
		},
	}
	cmd.Flags().BoolVar(&permanent, "permanent", false, "Bypass the trash and remove outright")
	return cmd
}

// newRenameCmd creates the 'rename' command.
func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename a file or directory in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPath, err := pathutil.Resolve(args[0])
			if err != nil {
				return err
			}
			newPath, err := pathutil.Resolve(args[1])
			if err != nil {
				return err
			}
			return fileops.NewEngine(GetLogger()).Rename(oldPath, newPath)
		},
	}
}

// newMkdirCmd creates the 'mkdir' command.
func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a directory, including parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pathutil.Resolve(args[0])
			if err != nil {
				return err
			}
			return fileops.NewEngine(GetLogger()).CreateDirectory(path)
		},
	}
}
