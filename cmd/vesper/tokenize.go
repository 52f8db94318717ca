package main

import (
	"github.com/spf13/cobra"

	"vesper/internal/diagfmt"
	"vesper/internal/driver"
)

var tokenizeJSON bool

func init() {
	tokenizeCmd.Flags().BoolVar(&tokenizeJSON, "json", false, "emit tokens as JSON")
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file>",
	Short: "Dump the token stream of one source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := driver.Tokenize(args[0], maxDiagnostics(cmd))
		if err != nil {
			return err
		}
		if res.Bag.Len() > 0 {
			res.Bag.Sort()
			diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, diagfmt.PrettyOpts{
				Color: colorEnabled(cmd),
			})
		}
		if tokenizeJSON {
			return diagfmt.FormatTokensJSON(cmd.OutOrStdout(), res.Tokens)
		}
		return diagfmt.FormatTokensPretty(cmd.OutOrStdout(), res.Tokens, res.FileSet)
	},
}
