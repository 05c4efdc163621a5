package quizgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Rule checks one aspect of a resolved question. Rules may normalize the
// question in place. Implementations should be stateless and safe for
// concurrent use.
type Rule interface {
	// Name returns a short identifier, e.g. "type-allowed".
	Name() string

	// Check returns nil if the question passes.
	Check(q *Question, req GenerationRequest) *RuleViolation
}

// RuleViolation describes why a question failed a rule.
type RuleViolation struct {
	Rule    string
	Reason  DiscardReason
	Message string
}

func (e *RuleViolation) Error() string {
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Message)
}

// ValidationResult is the output of one Validate call.
type ValidationResult struct {
	// Accepted holds the valid, unique questions in draft order.
	Accepted []Question

	Discarded DiscardCounts

	// Violations lists every rejection, for logging.
	Violations []*RuleViolation
}

// Validator turns drafts into questions. Its zero value is not usable; use
// NewValidator.
type Validator struct {
	rules []Rule
	newID func() string
}

// DefaultRules returns the standard rule chain.
func DefaultRules() []Rule {
	return []Rule{
		&TypeAllowedRule{},
		&StructureRule{},
	}
}

// NewValidator returns a Validator running rules in order. With no rules it
// uses DefaultRules.
func NewValidator(rules ...Rule) *Validator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Validator{rules: rules, newID: uuid.NewString}
}

// Validate resolves and checks drafts against req. seen holds the
// normalized prompts already accepted in this generation and is updated
// with every newly accepted question, so duplicates are caught across
// attempts as well as within one batch.
func (v *Validator) Validate(req GenerationRequest, drafts []QuestionDraft, seen map[string]struct{}) ValidationResult {
	res := ValidationResult{Discarded: DiscardCounts{}}

	for _, d := range drafts {
		q, violation := v.check(req, d)
		if violation == nil {
			key := normalizePrompt(q.Prompt)
			if _, dup := seen[key]; dup {
				violation = &RuleViolation{Rule: "dedup", Reason: DiscardDuplicate, Message: "prompt already used"}
			} else {
				seen[key] = struct{}{}
			}
		}
		if violation != nil {
			res.Discarded[violation.Reason]++
			res.Violations = append(res.Violations, violation)
			continue
		}
		q.ID = v.newID()
		res.Accepted = append(res.Accepted, q)
	}
	return res
}

func (v *Validator) check(req GenerationRequest, d QuestionDraft) (Question, *RuleViolation) {
	t, ok := ParseQuestionType(d.RawType)
	if !ok {
		return Question{}, &RuleViolation{Rule: "type", Reason: DiscardUnknownType,
			Message: fmt.Sprintf("unknown type %q", d.RawType)}
	}
	q := Question{
		Type:          t,
		Prompt:        strings.TrimSpace(d.Prompt),
		Options:       append([]string(nil), d.Options...),
		CorrectAnswer: strings.TrimSpace(d.CorrectAnswer),
		Explanation:   strings.TrimSpace(d.Explanation),
		Difficulty:    req.Difficulty(),
	}
	for _, r := range v.rules {
		if violation := r.Check(&q, req); violation != nil {
			return Question{}, violation
		}
	}
	return q, nil
}

// TypeAllowedRule rejects questions whose type was not requested.
type TypeAllowedRule struct{}

func (r *TypeAllowedRule) Name() string { return "type-allowed" }

func (r *TypeAllowedRule) Check(q *Question, req GenerationRequest) *RuleViolation {
	if !req.Allows(q.Type) {
		return &RuleViolation{
			Rule:    r.Name(),
			Reason:  DiscardTypeNotAllowed,
			Message: fmt.Sprintf("type %s not requested", q.Type),
		}
	}
	return nil
}

// StructureRule checks the per-type answer structure and normalizes
// options and answers.
type StructureRule struct{}

func (r *StructureRule) Name() string { return "structure" }

func (r *StructureRule) Check(q *Question, _ GenerationRequest) *RuleViolation {
	if q.Prompt == "" {
		return r.fail(DiscardMissingPrompt, "prompt is empty")
	}

	switch q.Type {
	case MultipleChoice:
		return r.checkChoice(q)
	case TrueFalse:
		return r.checkTrueFalse(q)
	default:
		q.Options = nil
	}
	return nil
}

func (r *StructureRule) checkChoice(q *Question) *RuleViolation {
	if len(q.Options) < 2 {
		return r.fail(DiscardInvalidStructure, fmt.Sprintf("multiple choice needs at least 2 options, got %d", len(q.Options)))
	}

	distinct := make(map[string]struct{}, len(q.Options))
	matches := 0
	for i, o := range q.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return r.fail(DiscardInvalidStructure, fmt.Sprintf("option %d is empty", i+1))
		}
		key := normalizePrompt(o)
		if _, dup := distinct[key]; dup {
			return r.fail(DiscardInvalidStructure, fmt.Sprintf("option %q is repeated", o))
		}
		distinct[key] = struct{}{}
		if key == normalizePrompt(q.CorrectAnswer) {
			matches++
			q.CorrectAnswer = o
		}
		q.Options[i] = o
	}
	if matches != 1 {
		return r.fail(DiscardInvalidStructure, "exactly one option must match the correct answer")
	}
	return nil
}

func (r *StructureRule) checkTrueFalse(q *Question) *RuleViolation {
	if len(q.Options) > 0 {
		if len(q.Options) != 2 {
			return r.fail(DiscardInvalidStructure, "true/false needs exactly 2 options")
		}
		a, okA := parseBool(q.Options[0])
		b, okB := parseBool(q.Options[1])
		if !okA || !okB || a == b {
			return r.fail(DiscardInvalidStructure, "true/false options must be True and False")
		}
	}

	answer, ok := parseBool(q.CorrectAnswer)
	if !ok {
		return r.fail(DiscardInvalidStructure, fmt.Sprintf("true/false answer %q is not a boolean", q.CorrectAnswer))
	}
	q.Options = []string{"True", "False"}
	q.CorrectAnswer = "False"
	if answer {
		q.CorrectAnswer = "True"
	}
	return nil
}

func (r *StructureRule) fail(reason DiscardReason, msg string) *RuleViolation {
	return &RuleViolation{Rule: r.Name(), Reason: reason, Message: msg}
}

func parseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes":
		return true, true
	case "false", "f", "no":
		return false, true
	}
	return false, false
}
