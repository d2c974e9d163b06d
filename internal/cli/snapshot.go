package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/termlab/termpool/internal/store"
)

// SnapshotOptions holds flags for the snapshot subcommands.
type SnapshotOptions struct {
	*RootOptions
	Database string
	Name     string
}

// SnapshotResult is the success payload of the snapshot subcommands.
type SnapshotResult struct {
	Name string `json:"name"`
	Term string `json:"term"`
}

func (r SnapshotResult) String() string {
	return fmt.Sprintf("%s: %s", r.Name, r.Term)
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and load term-graph snapshots",
		Long: `Persist a term graph to a SQLite database and rebuild it later.
Loading re-interns every term, so shared subterms collapse back onto
shared records in the target pool.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.PersistentFlags().StringVar(&opts.Name, "name", "", "snapshot name (required)")
	_ = cmd.MarkPersistentFlagRequired("db")
	_ = cmd.MarkPersistentFlagRequired("name")

	cmd.AddCommand(newSnapshotSaveCommand(opts))
	cmd.AddCommand(newSnapshotLoadCommand(opts))

	return cmd
}

func newSnapshotSaveCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <term>",
		Short: "Parse a term and save it as a named snapshot",
		Long: `Parse term text and persist the resulting graph.

Example:
  termpool snapshot save --db terms.db --name rules 'f(g(a),[1,2,3])'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotSave(opts, args[0], cmd)
		},
	}
}

func newSnapshotLoadCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load a named snapshot and print its rendering",
		Long: `Rebuild a snapshot's term graph in a fresh pool and print it.

Example:
  termpool snapshot load --db terms.db --name rules`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotLoad(opts, cmd)
		},
	}
}

func runSnapshotSave(opts *SnapshotOptions, text string, cmd *cobra.Command) error {
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

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if err := st.SaveSnapshot(cmd.Context(), opts.Name, term); err != nil {
		return WrapExitError(ExitFailure, "failed to save snapshot", err)
	}
	return formatter.Success(SnapshotResult{Name: opts.Name, Term: term.String()})
}

func runSnapshotLoad(opts *SnapshotOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	p, err := opts.newPool()
	if err != nil {
		return err
	}
	sess := p.NewSession()
	defer sess.Close()

	term, err := st.LoadSnapshot(cmd.Context(), opts.Name, sess)
	if err != nil {
		_ = formatter.Error("command_error", err.Error())
		return WrapExitError(ExitFailure, "failed to load snapshot", err)
	}
	return formatter.Success(SnapshotResult{Name: opts.Name, Term: term.String()})
}
