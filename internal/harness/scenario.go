package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a sequence of pool
// operations followed by assertions on the vars and the pool.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps is the operation sequence. Steps run in order against a
	// fresh pool.
	Steps []Step `yaml:"steps"`

	// Assertions validate the bound vars and the final pool state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a single pool operation.
type Step struct {
	// Op names the operation, one of the Op* constants.
	Op string `yaml:"op"`

	// Session names the session the operation runs in. Required for
	// every op except collect and metrics.
	Session string `yaml:"session,omitempty"`

	// Var binds the created term for later steps and assertions.
	Var string `yaml:"var,omitempty"`

	// Text is the input for parse and string ops.
	Text string `yaml:"text,omitempty"`

	// Symbol is the function symbol name for apply.
	Symbol string `yaml:"symbol,omitempty"`

	// Arity overrides the symbol arity for apply. Defaults to the
	// argument count; set it differently to provoke ARITY_MISMATCH.
	Arity *int `yaml:"arity,omitempty"`

	// Args names previously bound vars used as application arguments.
	Args []string `yaml:"args,omitempty"`

	// Elems names previously bound vars forming a proper list.
	Elems []string `yaml:"elems,omitempty"`

	// Value is the payload for the int op.
	Value int64 `yaml:"value,omitempty"`

	// ExpectError, if set, requires the step to fail with this error
	// code. The step then binds no var.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates a var binding or the final pool state.
type Assertion struct {
	// Type specifies the assertion type, one of the Assert* constants.
	Type string `yaml:"type"`

	// Var names the term to check (term_text).
	Var string `yaml:"var,omitempty"`

	// Text is the expected rendering (term_text).
	Text string `yaml:"text,omitempty"`

	// Vars names the terms to compare (identical, distinct).
	Vars []string `yaml:"vars,omitempty"`

	// Count is the expected live-term count (pool_size).
	Count int `yaml:"count,omitempty"`
}

// Step operation constants.
const (
	OpOpenSession  = "open_session"
	OpCloseSession = "close_session"
	OpParse        = "parse"
	OpApply        = "apply"
	OpList         = "list"
	OpInt          = "int"
	OpString       = "string"
	OpRelease      = "release"
	OpCollect      = "collect"
	OpMetrics      = "metrics"
)

// Assertion type constants.
const (
	AssertTermText  = "term_text"
	AssertIdentical = "identical"
	AssertDistinct  = "distinct"
	AssertPoolSize  = "pool_size"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently validating nothing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpCollect, OpMetrics:
		return nil
	case OpOpenSession, OpCloseSession:
		if step.Session == "" {
			return fmt.Errorf("steps[%d]: session is required for %s", index, step.Op)
		}
		return nil
	case OpParse:
		if step.Text == "" {
			return fmt.Errorf("steps[%d]: text is required for parse", index)
		}
	case OpApply:
		if step.Symbol == "" {
			return fmt.Errorf("steps[%d]: symbol is required for apply", index)
		}
	case OpList, OpInt, OpString:
		// Payload fields may legitimately be zero values.
	case OpRelease:
		if step.Var == "" {
			return fmt.Errorf("steps[%d]: var is required for release", index)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	if step.Session == "" {
		return fmt.Errorf("steps[%d]: session is required for %s", index, step.Op)
	}
	if step.Var == "" && step.Op != OpRelease && step.ExpectError == "" {
		return fmt.Errorf("steps[%d]: var is required for %s", index, step.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTermText:
		if a.Var == "" {
			return fmt.Errorf("assertions[%d]: var is required for term_text", index)
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for term_text", index)
		}
	case AssertIdentical, AssertDistinct:
		if len(a.Vars) < 2 {
			return fmt.Errorf("assertions[%d]: at least two vars are required for %s", index, a.Type)
		}
	case AssertPoolSize:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pool_size", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
