package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"decoport/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "decoport [flags] <Python source files and directories...>",
	Short: "Back-port compiler for Python 3.9 relaxed decorator expressions",
	Long: `decoport rewrites Python sources that use the 3.9+ relaxed decorator
grammar (PEP 614) so they parse under older toolchains, hoisting each
non-conforming decorator expression into a binding before the decorated
definition. Conversion is in place; originals are archived first unless
archiving is disabled.`,
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.Version = version.String()

	flags := rootCmd.Flags()
	flags.BoolP("quiet", "q", false, "run in quiet mode")
	flags.IntP("concurrency", "C", 0, "worker pool size for conversion (0 = auto detect)")
	flags.Bool("dry-run", false, "report files and edits without converting or archiving")
	flags.StringP("simple", "s", "", "simple mode: convert one file (or stdin) to stdout, no archiving")
	flags.Lookup("simple").NoOptDefVal = "-"

	flags.Bool("no-archive", false, "do not archive original files before overwriting")
	flags.StringP("archive-path", "k", "", "root directory for archived originals")
	flags.StringP("recover", "r", "", "recover files from the given archive run directory")
	flags.Bool("r2", false, "remove restored archive files after recovery")
	flags.Bool("r3", false, "remove restored archive files after recovery, and archive directories if they become empty")

	flags.String("source-version", "", "parse source code as this Python version")
	flags.StringP("linesep", "l", "", "line separator for inserted code (LF, CRLF, CR)")
	flags.StringP("indentation", "t", "", "indentation style: a number of spaces, or 't'/'tab'")
	flags.Bool("no-pep8", false, "do not make code insertion PEP 8 compliant")
	flags.String("name-prefix", "", "base name for hoisted decorator bindings")

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintln(os.Stderr, "decoport:", err)
		os.Exit(1)
	}
}

var errorColor = color.New(color.FgRed, color.Bold)

// setupColor applies the --color flag; "auto" follows whether stderr is a
// terminal.
func setupColor(cmd *cobra.Command) {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stderr)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
