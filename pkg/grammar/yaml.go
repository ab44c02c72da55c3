package grammar

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrBadAction indicates a grammar description carried an action that does
// not resolve to exactly one of the three action shapes.
var ErrBadAction = errors.New("bad rule action")

// rawGrammar mirrors the compiled-grammar YAML document on disk. It is
// decoded as-is and then compiled into a Grammar. This codec consumes
// already-normalized grammar descriptions; it is not a validating grammar
// compiler, and state references are only checked defensively at tokenize
// time.
type rawGrammar struct {
	Name          string               `yaml:"name,omitempty"`
	Start         string               `yaml:"start"`
	DefaultToken  string               `yaml:"defaultToken,omitempty"`
	IgnoreCase    bool                 `yaml:"ignoreCase,omitempty"`
	MaxStackDepth int                  `yaml:"maxStackDepth,omitempty"`
	Brackets      []rawBracket         `yaml:"brackets,omitempty"`
	Attributes    map[string][]string  `yaml:"attributes,omitempty"`
	States        map[string][]rawRule `yaml:"states"`
}

type rawBracket struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
	Token string `yaml:"token"`
}

type rawRule struct {
	Name      string `yaml:"name,omitempty"`
	Match     string `yaml:"match"`
	LineStart bool   `yaml:"lineStart,omitempty"`

	rawAction `yaml:",inline"`
}

type rawAction struct {
	Token        string        `yaml:"token,omitempty"`
	Next         string        `yaml:"next,omitempty"`
	Switch       string        `yaml:"switch,omitempty"`
	GoBack       int           `yaml:"goBack,omitempty"`
	NestLanguage string        `yaml:"nestLanguage,omitempty"`
	Log          string        `yaml:"log,omitempty"`
	Parser       *rawDirective `yaml:"parser,omitempty"`
	Group        []rawAction   `yaml:"group,omitempty"`
	Cases        []rawCase     `yaml:"cases,omitempty"`
}

type rawDirective struct {
	Open  []string `yaml:"open,omitempty"`
	Start []string `yaml:"start,omitempty"`
	Close []string `yaml:"close,omitempty"`
	End   []string `yaml:"end,omitempty"`
}

type rawCase struct {
	Test    string `yaml:"test,omitempty"`
	In      string `yaml:"in,omitempty"`
	Eq      string `yaml:"eq,omitempty"`
	EOS     bool   `yaml:"eos,omitempty"`
	Default bool   `yaml:"default,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Negate  bool   `yaml:"negate,omitempty"`

	rawAction `yaml:",inline"`
}

// FromYAML decodes and compiles a grammar description.
func FromYAML(data []byte) (*Grammar, error) {
	var raw rawGrammar
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse grammar yaml: %w", err)
	}
	return compileRaw(&raw)
}

// ToYAML serializes the grammar back into its YAML description. The output
// round-trips through FromYAML.
func (g *Grammar) ToYAML() ([]byte, error) {
	raw := rawGrammar{
		Name:          g.Name,
		Start:         g.Start,
		DefaultToken:  g.DefaultToken,
		IgnoreCase:    g.IgnoreCase,
		MaxStackDepth: g.MaxStackDepth,
		Attributes:    g.Attributes,
	}
	for _, b := range g.Brackets {
		raw.Brackets = append(raw.Brackets, rawBracket(b))
	}
	if len(g.States) > 0 {
		raw.States = make(map[string][]rawRule, len(g.States))
	}
	for name, rules := range g.States {
		encoded := make([]rawRule, 0, len(rules))
		for _, r := range rules {
			encoded = append(encoded, rawRule{
				Name:      r.Name,
				Match:     r.PatternText,
				LineStart: r.LineStartOnly && !hasCaretPrefix(r.PatternText),
				rawAction: encodeAction(r.Action),
			})
		}
		raw.States[name] = encoded
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&raw); err != nil {
		return nil, fmt.Errorf("encode grammar: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func hasCaretPrefix(pattern string) bool {
	return len(pattern) > 0 && pattern[0] == '^'
}

func compileRaw(raw *rawGrammar) (*Grammar, error) {
	g := &Grammar{
		Name:          raw.Name,
		Start:         raw.Start,
		DefaultToken:  raw.DefaultToken,
		IgnoreCase:    raw.IgnoreCase,
		MaxStackDepth: raw.MaxStackDepth,
		Attributes:    raw.Attributes,
		States:        make(map[string][]Rule, len(raw.States)),
	}
	if g.Start == "" {
		return nil, errors.New("grammar has no start state")
	}
	for _, b := range raw.Brackets {
		g.Brackets = append(g.Brackets, Bracket(b))
	}

	for name, rawRules := range raw.States {
		rules := make([]Rule, 0, len(rawRules))
		for i, rr := range rawRules {
			action, err := compileAction(&rr.rawAction)
			if err != nil {
				return nil, fmt.Errorf("state %q rule %d: %w", name, i, err)
			}
			ruleName := rr.Name
			if ruleName == "" {
				ruleName = fmt.Sprintf("%s[%d]", name, i)
			}
			rule, err := CompileRule(ruleName, rr.Match, rr.LineStart, action, g.IgnoreCase)
			if err != nil {
				return nil, fmt.Errorf("state %q: %w", name, err)
			}
			rules = append(rules, rule)
		}
		g.States[name] = rules
	}

	if _, err := g.FindRules(g.Start); err != nil {
		return nil, err
	}
	return g, nil
}

func compileAction(raw *rawAction) (Action, error) {
	hasGroup := len(raw.Group) > 0
	hasCases := len(raw.Cases) > 0
	if hasGroup && hasCases {
		return Action{}, fmt.Errorf("%w: both group and cases present", ErrBadAction)
	}

	switch {
	case hasGroup:
		subs := make([]Action, 0, len(raw.Group))
		for i := range raw.Group {
			sub, err := compileAction(&raw.Group[i])
			if err != nil {
				return Action{}, err
			}
			if sub.Kind == ActionGroup {
				return Action{}, fmt.Errorf("%w: nested group action", ErrBadAction)
			}
			subs = append(subs, sub)
		}
		return GroupAct(subs...), nil

	case hasCases:
		branches := make([]CaseBranch, 0, len(raw.Cases))
		for i := range raw.Cases {
			rc := &raw.Cases[i]
			guard, err := compileGuard(rc)
			if err != nil {
				return Action{}, err
			}
			action, err := compileAction(&rc.rawAction)
			if err != nil {
				return Action{}, err
			}
			branches = append(branches, CaseBranch{Guard: guard, Action: action})
		}
		return CaseAct(branches...), nil

	default:
		return Action{
			Kind:         ActionToken,
			Token:        raw.Token,
			Next:         raw.Next,
			Switch:       raw.Switch,
			GoBack:       raw.GoBack,
			NestLanguage: raw.NestLanguage,
			Log:          raw.Log,
			Directive:    compileDirective(raw.Parser),
		}, nil
	}
}

func compileDirective(raw *rawDirective) *Directive {
	if raw == nil {
		return nil
	}
	return &Directive{Open: raw.Open, Start: raw.Start, Close: raw.Close, End: raw.End}
}

func compileGuard(raw *rawCase) (Guard, error) {
	count := 0
	if raw.Test != "" {
		count++
	}
	if raw.In != "" {
		count++
	}
	if raw.Eq != "" {
		count++
	}
	if raw.EOS {
		count++
	}
	if raw.Default {
		count++
	}
	if count != 1 {
		return Guard{}, fmt.Errorf("%w: exactly one of test/in/eq/eos/default required", ErrBadGuard)
	}

	switch {
	case raw.Test != "":
		return RegexGuard(raw.Subject, raw.Test, raw.Negate)
	case raw.In != "":
		return InGuard(raw.Subject, raw.In, raw.Negate), nil
	case raw.Eq != "":
		return EqGuard(raw.Subject, raw.Eq, raw.Negate), nil
	case raw.EOS:
		return Guard{Kind: GuardEOS, Subject: raw.Subject, Negate: raw.Negate}, nil
	default:
		return DefaultGuard(), nil
	}
}

func encodeAction(a Action) rawAction {
	switch a.Kind {
	case ActionGroup:
		group := make([]rawAction, 0, len(a.Subs))
		for _, sub := range a.Subs {
			group = append(group, encodeAction(sub))
		}
		return rawAction{Group: group}

	case ActionCase:
		cases := make([]rawCase, 0, len(a.Branches))
		for _, br := range a.Branches {
			rc := rawCase{
				Subject:   br.Guard.Subject,
				Negate:    br.Guard.Negate,
				rawAction: encodeAction(br.Action),
			}
			switch br.Guard.Kind {
			case GuardRegex:
				rc.Test = br.Guard.PatternText
			case GuardIn:
				rc.In = br.Guard.Set
			case GuardEq:
				rc.Eq = br.Guard.Value
			case GuardEOS:
				rc.EOS = true
			case GuardDefault:
				rc.Default = true
			}
			cases = append(cases, rc)
		}
		return rawAction{Cases: cases}

	default:
		return rawAction{
			Token:        a.Token,
			Next:         a.Next,
			Switch:       a.Switch,
			GoBack:       a.GoBack,
			NestLanguage: a.NestLanguage,
			Log:          a.Log,
			Parser:       encodeDirective(a.Directive),
		}
	}
}

func encodeDirective(d *Directive) *rawDirective {
	if d.Empty() {
		return nil
	}
	return &rawDirective{Open: d.Open, Start: d.Start, Close: d.Close, End: d.End}
}
