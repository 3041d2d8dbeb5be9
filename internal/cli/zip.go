// Package cli provides archive commands.
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twinpane/twinpane/internal/archive"
	"github.com/twinpane/twinpane/internal/config"
	"github.com/twinpane/twinpane/internal/models"
	"github.com/twinpane/twinpane/internal/pathutil"
	"github.com/twinpane/twinpane/internal/progress"
	"github.com/twinpane/twinpane/internal/transfer"
)

// newZipCmd creates the 'zip' command group.
func newZipCmd() *cobra.Command {
	zipCmd := &cobra.Command{
		Use:   "zip",
		Short: "ZIP archive operations (create, list, extract, add, rm, test)",
		Long:  `Commands for creating, inspecting and editing ZIP archives.`,
	}

	zipCmd.AddCommand(newZipCreateCmd())
	zipCmd.AddCommand(newZipListCmd())
	zipCmd.AddCommand(newZipExtractCmd())
	zipCmd.AddCommand(newZipAddCmd())
	zipCmd.AddCommand(newZipRmCmd())
	zipCmd.AddCommand(newZipTestCmd())

	return zipCmd
}

// archiveOptions builds archive options from config plus flag overrides.
func archiveOptions() (archive.Options, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return archive.Options{}, nil, err
	}
	decision, err := conflictDecision(cfg)
	if err != nil {
		return archive.Options{}, nil, err
	}
	lvl, err := archive.ParseLevel(cfg.CompressionLevel)
	if err != nil {
		return archive.Options{}, nil, err
	}
	return archive.Options{OnConflict: decision, Level: lvl}, cfg, nil
}

func newZipCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create ARCHIVE SOURCE...",
		Short: "Create a ZIP archive from files and directories",
		Long: `Pack the given sources into a new archive. Directories are packed
recursively. An existing archive at that path is replaced only once the
new one is fully written.

Examples:
  twinpane zip create backup.zip docs/ notes.txt
  twinpane zip create --level best logs.zip /var/log/app`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := archiveOptions()
			if err != nil {
				return err
			}
			archivePath, err := pathutil.Resolve(args[0])
			if err != nil {
				return err
			}
			sources, err := resolveAll(args[1:])
			if err != nil {
				return err
			}

			eng := archive.NewEngine(GetLogger())
			session := newQueueSession(cfg)
			_, err = session.queue.Enqueue(transfer.TaskCreate, filepath.Base(archivePath), sources[0], archivePath, 0,
				func(ctx context.Context, progress func(int, string)) error {
					opts.Progress = archive.ProgressFunc(progress)
					return eng.CreateArchive(ctx, archivePath, sources, opts)
				})
			if err != nil {
				return err
			}
			return session.finish()
		},
	}
}

func newZipListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list ARCHIVE",
		Short: "List the entries of a ZIP archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, err := pathutil.Resolve(args[0])
			if err != nil {
				return err
			}
			entries, err := archive.NewEngine(GetLogger()).ListEntries(archivePath)
			if err != nil {
				return err
			}
			for _, en := range entries {
				name := en.Path
				if en.IsDir {
					fmt.Printf("%s\n", dirColor.Sprint(name+"/"))
					continue
				}
				fmt.Printf("%-50s %10s (%s packed)  %s\n",
					name, humanSize(en.Size), humanSize(en.CompressedSize),
					en.ModTime.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newZipExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract ARCHIVE DEST [ENTRY...]",
		Short: "Extract a ZIP archive",
		Long: `Extract an archive into DEST. With no entries named, everything is
extracted; otherwise only the named entries (directories recursively).
Collisions follow --on-conflict; entries that would escape DEST are
rejected.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cfg, err := archiveOptions()
			if err != nil {
				return err
			}
			archivePath, err := pathutil.Resolve(args[0])
			if err != nil {
				return err
			}
			dest, err := pathutil.Resolve(args[1])
			if err != nil {
				return err
			}
			keys := args[2:]

			eng := archive.NewEngine(GetLogger())
			session := newQueueSession(cfg)
			_, err = session.queue.Enqueue(transfer.TaskExtract, filepath.Base(archivePath), archivePath, dest, 0,
				func(ctx context.Context, progress func(int, string)) error {
					opts.Progress = archive.ProgressFunc(progress)
					var report models.BatchReport
					var opErr error
					if len(keys) > 0 {
						report, opErr = eng.ExtractEntries(ctx, archivePath, keys, dest, opts)
					} else {
						report, opErr = eng.ExtractAll(ctx, archivePath, dest, opts)
					}
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
}

func newZipAddCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "add ARCHIVE SOURCE...",
		Short: "Add files or directories to an existing ZIP archive",
		Long: `Insert sources into the archive, at the root or under --prefix.
Entries whose path collides with a new one are replaced.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, _, err := archiveOptions()
			if err != nil {
				return err
			}
			archivePath, err := pathutil.Resolve(args[0])
			if err != nil {
				return err
			}
			sources, err := resolveAll(args[1:])
			if err != nil {
				return err
			}

			reporter := progress.Console()
			opts.Progress = archive.ProgressFunc(progress.Percent(reporter, "add "+filepath.Base(archivePath)))
			if err := archive.NewEngine(GetLogger()).AddToArchive(cmdContext(), archivePath, sources, prefix, opts); err != nil {
				reporter.Error(err)
				return err
			}
			reporter.Finish()
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Archive path prefix for the added entries")
	return cmd
}

func newZipRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ARCHIVE ENTRY...",
		Short: "Remove entries from a ZIP archive",
		Long: `Remove the named entries (directories recursively) and rewrite the
archive. Naming an entry that does not exist fails before anything is
written.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, _, err := archiveOptions()
			if err != nil {
				return err
			}
			archivePath, err := pathutil.Resolve(args[0])
			if err != nil {
				return err
			}

			reporter := progress.Console()
			opts.Progress = archive.ProgressFunc(progress.Percent(reporter, "rm "+filepath.Base(archivePath)))
			if err := archive.NewEngine(GetLogger()).DeleteEntries(cmdContext(), archivePath, args[1:], opts); err != nil {
				reporter.Error(err)
				return err
			}
			reporter.Finish()
			return nil
		},
	}
}

func newZipTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test ARCHIVE",
		Short: "Verify a ZIP archive's structure and checksums",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, err := pathutil.Resolve(args[0])
			if err != nil {
				return err
			}
			ok, err := archive.NewEngine(GetLogger()).TestArchive(archivePath)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: archive is corrupt", args[0])
			}
			fmt.Printf("%s: OK\n", args[0])
			return nil
		},
	}
}

func resolveAll(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		p, err := pathutil.Resolve(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
