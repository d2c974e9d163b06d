package harness

import (
	"errors"
	"fmt"

	"github.com/termlab/termpool/internal/pool"
)

// runState carries the mutable execution state of one scenario run.
type runState struct {
	pool     *pool.Pool
	sessions map[string]*pool.Session
	vars     map[string]*pool.Term
}

// Run executes a scenario against a fresh pool and returns the result.
// The pool runs with automatic collection disabled so occupancy depends
// only on the step sequence.
//
// Run returns an error for structural problems (unknown vars or
// sessions, unexpected step failures); assertion failures are reported
// through Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	st := &runState{
		pool:     pool.New(pool.WithAutomaticCollection(false)),
		sessions: make(map[string]*pool.Session),
		vars:     make(map[string]*pool.Term),
	}
	defer func() {
		for _, sess := range st.sessions {
			sess.Close()
		}
	}()

	result := NewResult()

	for i, step := range scenario.Steps {
		event := TraceEvent{Seq: i, Op: step.Op}

		term, err := st.runStep(&step, &event)
		if step.ExpectError != "" {
			switch {
			case err == nil:
				result.AddError("step %d (%s): expected error %s, got none", i, step.Op, step.ExpectError)
			case errorCode(err) != step.ExpectError:
				result.AddError("step %d (%s): expected error %s, got %s", i, step.Op, step.ExpectError, errorCode(err))
			default:
				event.Error = step.ExpectError
			}
		} else if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}

		if term != nil && step.Var != "" {
			st.vars[step.Var] = term
			event.Term = term.String()
		}
		result.Trace = append(result.Trace, event)
	}

	for i, assertion := range scenario.Assertions {
		if err := st.check(&assertion, result); err != nil {
			return nil, fmt.Errorf("assertions[%d] (%s): %w", i, assertion.Type, err)
		}
	}
	return result, nil
}

func (st *runState) runStep(step *Step, event *TraceEvent) (*pool.Term, error) {
	switch step.Op {
	case OpOpenSession:
		if _, ok := st.sessions[step.Session]; ok {
			return nil, fmt.Errorf("session %q already open", step.Session)
		}
		st.sessions[step.Session] = st.pool.NewSession()
		return nil, nil

	case OpCloseSession:
		sess, err := st.session(step.Session)
		if err != nil {
			return nil, err
		}
		sess.Close()
		delete(st.sessions, step.Session)
		return nil, nil

	case OpCollect:
		return nil, st.pool.Collect()

	case OpMetrics:
		m := st.pool.Metrics()
		event.Metrics = &MetricsEvent{
			Terms:       m.Terms,
			Capacity:    m.Capacity,
			Symbols:     m.Symbols,
			Collections: m.Collections,
		}
		return nil, nil
	}

	sess, err := st.session(step.Session)
	if err != nil {
		return nil, err
	}

	switch step.Op {
	case OpParse:
		return sess.Parse(step.Text)

	case OpApply:
		arity := len(step.Args)
		if step.Arity != nil {
			arity = *step.Arity
		}
		sym := sess.InternSymbol(step.Symbol, arity)
		args, err := st.resolve(step.Args)
		if err != nil {
			return nil, err
		}
		return sess.MakeApplication(sym, args...)

	case OpList:
		elems, err := st.resolve(step.Elems)
		if err != nil {
			return nil, err
		}
		return sess.MakeList(elems...), nil

	case OpInt:
		return sess.MakeInt(step.Value), nil

	case OpString:
		return sess.MakeString(step.Text), nil

	case OpRelease:
		t, ok := st.vars[step.Var]
		if !ok {
			return nil, fmt.Errorf("unknown var %q", step.Var)
		}
		sess.Release(t)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func (st *runState) session(name string) (*pool.Session, error) {
	sess, ok := st.sessions[name]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", name)
	}
	return sess, nil
}

func (st *runState) resolve(names []string) ([]*pool.Term, error) {
	terms := make([]*pool.Term, len(names))
	for i, name := range names {
		t, ok := st.vars[name]
		if !ok {
			return nil, fmt.Errorf("unknown var %q", name)
		}
		terms[i] = t
	}
	return terms, nil
}

func (st *runState) check(a *Assertion, result *Result) error {
	switch a.Type {
	case AssertTermText:
		t, ok := st.vars[a.Var]
		if !ok {
			return fmt.Errorf("unknown var %q", a.Var)
		}
		if got := t.String(); got != a.Text {
			result.AddError("term_text: var %s renders %q, want %q", a.Var, got, a.Text)
		}

	case AssertIdentical:
		terms, err := st.resolve(a.Vars)
		if err != nil {
			return err
		}
		for i := 1; i < len(terms); i++ {
			if terms[i] != terms[0] {
				result.AddError("identical: vars %s and %s are distinct records", a.Vars[0], a.Vars[i])
			}
		}

	case AssertDistinct:
		terms, err := st.resolve(a.Vars)
		if err != nil {
			return err
		}
		for i := 0; i < len(terms); i++ {
			for j := i + 1; j < len(terms); j++ {
				if terms[i] == terms[j] {
					result.AddError("distinct: vars %s and %s share a record", a.Vars[i], a.Vars[j])
				}
			}
		}

	case AssertPoolSize:
		if got := st.pool.Size(); got != a.Count {
			result.AddError("pool_size: pool holds %d live terms, want %d", got, a.Count)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// errorCode extracts the stable code from a pool error; other errors
// report their message.
func errorCode(err error) string {
	var pe *pool.Error
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return err.Error()
}
