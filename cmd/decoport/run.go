package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"decoport/internal/archive"
	"decoport/internal/config"
	"decoport/internal/driver"
)

var (
	pathColor   = color.New(color.FgCyan)
	okColor     = color.New(color.FgGreen, color.Bold)
	warnColor   = color.New(color.FgYellow)
	failedColor = color.New(color.FgRed, color.Bold)
)

func runRoot(cmd *cobra.Command, args []string) error {
	setupColor(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("recover") {
		if len(args) > 0 {
			return &config.ArgumentError{Option: "arguments",
				Detail: "no source files shall be given when recovering from an archive"}
		}
		runDir, _ := cmd.Flags().GetString("recover")
		return runRecover(cmd, cfg, runDir)
	}

	if cmd.Flags().Changed("simple") {
		target, _ := cmd.Flags().GetString("simple")
		return runSimple(cmd, cfg, target, args)
	}

	if len(args) == 0 {
		return &config.ArgumentError{Option: "arguments",
			Detail: "no Python source files or directories are given"}
	}
	return runConvert(cmd, cfg, args)
}

// loadConfig merges the explicitly set flags over the environment, file
// and default layers.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	ov := config.Overrides{}

	if flags.Changed("quiet") {
		v, _ := flags.GetBool("quiet")
		ov.Quiet = &v
	}
	if flags.Changed("concurrency") {
		v, _ := flags.GetInt("concurrency")
		ov.Concurrency = &v
	}
	ov.DryRun, _ = flags.GetBool("dry-run")
	if flags.Changed("no-archive") {
		v, _ := flags.GetBool("no-archive")
		doArchive := !v
		ov.DoArchive = &doArchive
	}
	if flags.Changed("archive-path") {
		v, _ := flags.GetString("archive-path")
		ov.ArchivePath = &v
	}
	if flags.Changed("source-version") {
		v, _ := flags.GetString("source-version")
		ov.SourceVersion = &v
	}
	if flags.Changed("linesep") {
		v, _ := flags.GetString("linesep")
		ov.Linesep = &v
	}
	if flags.Changed("indentation") {
		v, _ := flags.GetString("indentation")
		ov.Indentation = &v
	}
	if flags.Changed("no-pep8") {
		v, _ := flags.GetBool("no-pep8")
		pep8 := !v
		ov.PEP8 = &pep8
	}
	if flags.Changed("name-prefix") {
		v, _ := flags.GetString("name-prefix")
		ov.NamePrefix = &v
	}
	return config.Load(ov)
}

// runSimple converts a single file or the standard input stream and
// prints the result to stdout. Archiving never happens here: there is no
// stable original path to key a record on.
func runSimple(cmd *cobra.Command, cfg *config.Config, target string, args []string) error {
	if target == "-" && len(args) == 1 {
		// `decoport -s file.py`: the file lands in the positionals
		target, args = args[0], nil
	}
	if len(args) > 0 {
		return &config.ArgumentError{Option: "arguments",
			Detail: "no source files shall be given as positional arguments in simple mode"}
	}

	var (
		name string
		code []byte
		err  error
	)
	if target == "-" {
		name = "<stdin>"
		code, err = io.ReadAll(cmd.InOrStdin())
	} else {
		name = target
		code, err = os.ReadFile(target)
	}
	if err != nil {
		return err
	}

	out, err := driver.ConvertBytes(cmd.Context(), cfg, name, code)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runConvert(cmd *cobra.Command, cfg *config.Config, args []string) error {
	stderr := cmd.ErrOrStderr()

	var progress func(string)
	if !cfg.Quiet {
		progress = func(path string) {
			fmt.Fprintf(stderr, "Now converting: %s\n", pathColor.Sprint(path))
		}
	}

	summary, err := driver.Run(cmd.Context(), cfg, args, progress)
	if err != nil {
		return err
	}

	printSummary(stderr, cfg, summary)
	if !summary.OK() {
		return fmt.Errorf("%d of %d files failed", summary.Failed, len(summary.Jobs))
	}
	return nil
}

func printSummary(w io.Writer, cfg *config.Config, summary *driver.Summary) {
	for i := range summary.Jobs {
		job := &summary.Jobs[i]
		if job.Failed() {
			failedColor.Fprintf(w, "Failed to convert file: %s\n", job.Path)
			fmt.Fprintf(w, "  %v\n", job.Err)
			continue
		}
		if cfg.DryRun && job.Plan != nil {
			fmt.Fprintf(w, "Would convert: %s (%d edits)\n", pathColor.Sprint(job.Path), job.Edits)
			for _, b := range job.Plan.Bindings {
				fmt.Fprintf(w, "  line %d: hoist %s = %s (decorates %s)\n",
					b.Line, b.Name, b.Expr, b.DefName)
			}
		}
	}

	if cfg.Quiet {
		return
	}
	if cfg.DryRun {
		fmt.Fprintf(w, "%s: %d to convert, %d unchanged, %d failed\n",
			warnColor.Sprint("dry run"), summary.Converted, summary.Unchanged, summary.Failed)
		return
	}
	status := okColor.Sprint("done")
	if !summary.OK() {
		status = failedColor.Sprint("done with failures")
	}
	fmt.Fprintf(w, "%s: %d converted, %d unchanged, %d failed\n",
		status, summary.Converted, summary.Unchanged, summary.Failed)
	if summary.ArchiveDir != "" {
		fmt.Fprintf(w, "Originals archived to: %s\n", pathColor.Sprint(summary.ArchiveDir))
	}
}

func runRecover(cmd *cobra.Command, cfg *config.Config, runDir string) error {
	level := archive.CleanupNone
	if v, _ := cmd.Flags().GetBool("r2"); v {
		level = archive.CleanupFiles
	}
	if v, _ := cmd.Flags().GetBool("r3"); v {
		level = archive.CleanupDir
	}

	result, err := archive.Recover(runDir, level)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if !cfg.Quiet {
		for _, path := range result.Restored {
			fmt.Fprintf(stderr, "Recovered: %s\n", pathColor.Sprint(path))
		}
	}
	for _, skipped := range result.Skipped {
		warnColor.Fprintf(stderr, "Skipped %s: %s\n", skipped.Path, skipped.Reason)
	}
	if !cfg.Quiet {
		fmt.Fprintf(stderr, "Recovered %d files from archive: %s\n", len(result.Restored), runDir)
	}
	return nil
}
