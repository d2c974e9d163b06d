package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/termlab/termpool/internal/pool"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Stats bool
}

// ParseResult is the success payload of the parse command.
type ParseResult struct {
	Term    string `json:"term"`
	Terms   int64  `json:"terms,omitempty"`
	Symbols int64  `json:"symbols,omitempty"`
}

func (r ParseResult) String() string {
	if r.Terms > 0 {
		return fmt.Sprintf("%s\nterms=%d symbols=%d", r.Term, r.Terms, r.Symbols)
	}
	return r.Term
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <term>",
		Short: "Parse a term and print its canonical rendering",
		Long: `Parse term text, intern it into a fresh pool, and print the canonical
rendering. Structurally equal subterms collapse onto shared records, so
the --stats output shows the true size of the term graph.

Example:
  termpool parse 'f(g(a),[1,2,3])'
  termpool parse --stats 'f(g(a),g(a))'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print term-graph statistics")

	return cmd
}

func runParse(opts *ParseOptions, text string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, err := opts.newPool()
	if err != nil {
		return err
	}
	sess := p.NewSession()
	defer sess.Close()

	term, err := sess.Parse(text)
	if err != nil {
		_ = formatter.Error(poolErrorCode(err), err.Error())
		return WrapExitError(ExitFailure, "failed to parse term", err)
	}

	result := ParseResult{Term: term.String()}
	if opts.Stats {
		m := p.Metrics()
		result.Terms = m.Terms
		result.Symbols = m.Symbols
	}
	return formatter.Success(result)
}

// poolErrorCode extracts the stable code from a pool error.
func poolErrorCode(err error) string {
	var pe *pool.Error
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return "command_error"
}
