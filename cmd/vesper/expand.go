package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vesper/internal/diagfmt"
	"vesper/internal/driver"
	"vesper/internal/project"
)

var (
	expandJSON   bool
	expandReport string
	expandJobs   int
)

func init() {
	expandCmd.Flags().BoolVar(&expandJSON, "json", false, "emit diagnostics as JSON")
	expandCmd.Flags().StringVar(&expandReport, "report", "", "write the instantiation report to this path")
	expandCmd.Flags().IntVar(&expandJobs, "jobs", 0, "number of parallel workers (0 = GOMAXPROCS)")
}

var expandCmd = &cobra.Command{
	Use:   "expand [files...]",
	Short: "Instantiate every template use and report what was materialized",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		pkg := "main"
		reportPath := expandReport
		opts := driver.Options{MaxDiagnostics: maxDiagnostics(cmd)}

		if len(paths) == 0 {
			manifest, ok, err := project.LoadFrom(".")
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no vesper.toml found; pass source files explicitly, e.g.:\n  vesper expand src/main.vsp")
			}
			paths, err = manifest.SourcePaths()
			if err != nil {
				return err
			}
			pkg = manifest.Config.Package.Name
			opts.MaxDepth = int(manifest.Config.Limits.MaxDepth)
			opts.MaxDiagnostics = int(manifest.Config.Limits.MaxDiagnostics)
			if reportPath == "" {
				reportPath = manifest.Config.Expand.Report
			}
		}
		if len(paths) == 0 {
			return fmt.Errorf("nothing to expand")
		}

		comps, err := driver.CompileAll(cmd.Context(), paths, expandJobs, opts)
		if err != nil {
			return err
		}

		// Diagnostics render per compilation: file IDs are only meaningful
		// against their own file set.
		total, hadErrors := 0, false
		for _, c := range comps {
			if c.Bag.Len() == 0 {
				continue
			}
			total += c.Bag.Len()
			hadErrors = hadErrors || c.Bag.HasErrors()
			c.Bag.Sort()
			if expandJSON {
				if err := diagfmt.JSON(cmd.ErrOrStderr(), c.Bag, c.FileSet, diagfmt.JSONOpts{
					IncludePositions: true,
					IncludeNotes:     true,
				}); err != nil {
					return err
				}
			} else {
				diagfmt.Pretty(cmd.ErrOrStderr(), c.Bag, c.FileSet, diagfmt.PrettyOpts{
					Color:     colorEnabled(cmd),
					ShowNotes: true,
				})
			}
		}

		artifact := driver.BuildArtifact(pkg, comps)
		if reportPath != "" {
			if err := driver.SaveArtifact(reportPath, artifact); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d instantiation(s) across %d file(s)\n",
			len(artifact.Entries), len(comps))
		if hadErrors {
			return fmt.Errorf("expansion failed with %d diagnostic(s)", total)
		}
		return nil
	},
}
