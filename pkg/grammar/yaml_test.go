package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gosyntax/pkg/grammar"
)

const demoYAML = `
name: demo
start: root
defaultToken: source
maxStackDepth: 50
brackets:
  - open: "{"
    close: "}"
    token: delimiter.curly
attributes:
  keywords: [if, else, return]
states:
  root:
    - name: keyword-or-ident
      match: '[a-zA-Z_]\w*'
      cases:
        - in: keywords
          token: keyword
        - default: true
          token: identifier
    - match: '"'
      token: string.quote
      next: string
    - match: '(\w+)(=)(\w+)'
      group:
        - token: attribute.name
        - token: delimiter
        - token: attribute.value
    - match: '^---$'
      token: meta.separator
  string:
    - match: '[^"]+'
      token: string
    - match: '"'
      token: string.quote
      next: "@pop"
      parser:
        end: [string-literal]
`

func TestFromYAML(t *testing.T) {
	t.Parallel()

	g, err := grammar.FromYAML([]byte(demoYAML))
	require.NoError(t, err)

	assert.Equal(t, "demo", g.Name)
	assert.Equal(t, "root", g.Start)
	assert.Equal(t, "source", g.DefaultToken)
	assert.Equal(t, 50, g.MaxStackDepth)
	require.Len(t, g.Brackets, 1)
	assert.Equal(t, "delimiter.curly", g.Brackets[0].Token)
	assert.True(t, g.InAttribute("keywords", "else"))

	root, err := g.FindRules("root")
	require.NoError(t, err)
	require.Len(t, root, 4)

	assert.Equal(t, grammar.ActionCase, root[0].Action.Kind)
	assert.Equal(t, "keyword-or-ident", root[0].Name)
	require.Len(t, root[0].Action.Branches, 2)
	assert.Equal(t, grammar.GuardIn, root[0].Action.Branches[0].Guard.Kind)
	assert.Equal(t, grammar.GuardDefault, root[0].Action.Branches[1].Guard.Kind)

	assert.Equal(t, "string", root[1].Action.Next)

	assert.Equal(t, grammar.ActionGroup, root[2].Action.Kind)
	require.Len(t, root[2].Action.Subs, 3)
	assert.Equal(t, "delimiter", root[2].Action.Subs[1].Token)

	assert.True(t, root[3].LineStartOnly)

	str, err := g.FindRules("string")
	require.NoError(t, err)
	require.Len(t, str, 2)
	require.NotNil(t, str[1].Action.Directive)
	assert.Equal(t, []string{"string-literal"}, str[1].Action.Directive.End)
}

func TestGrammarYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	g, err := grammar.FromYAML([]byte(demoYAML))
	require.NoError(t, err)

	first, err := g.ToYAML()
	require.NoError(t, err)

	reparsed, err := grammar.FromYAML(first)
	require.NoError(t, err)

	second, err := reparsed.ToYAML()
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestFromYAML_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name: "missing start state",
			yaml: `
states:
  root:
    - match: '\w+'
      token: identifier
`,
		},
		{
			name: "undefined start state",
			yaml: `
start: main
states:
  root:
    - match: '\w+'
      token: identifier
`,
			wantErr: grammar.ErrUndefinedState,
		},
		{
			name: "group and cases together",
			yaml: `
start: root
states:
  root:
    - match: '(a)(b)'
      group:
        - token: a
        - token: b
      cases:
        - default: true
          token: c
`,
			wantErr: grammar.ErrBadAction,
		},
		{
			name: "nested group",
			yaml: `
start: root
states:
  root:
    - match: '(ab)'
      group:
        - group:
            - token: a
`,
			wantErr: grammar.ErrBadAction,
		},
		{
			name: "guard with two conditions",
			yaml: `
start: root
states:
  root:
    - match: '\w+'
      cases:
        - eq: if
          in: keywords
          token: keyword
`,
			wantErr: grammar.ErrBadGuard,
		},
		{
			name: "guard with no condition",
			yaml: `
start: root
states:
  root:
    - match: '\w+'
      cases:
        - token: keyword
`,
			wantErr: grammar.ErrBadGuard,
		},
		{
			name: "bad rule pattern",
			yaml: `
start: root
states:
  root:
    - match: '(unclosed'
      token: x
`,
			wantErr: grammar.ErrBadPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := grammar.FromYAML([]byte(tt.yaml))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
