package tools

import (
	"github.com/ziadkadry99/testmorph/internal/analyzer"
)

// Kind identifies a tool variant. The orchestration contract only depends on
// this surface, so new kinds can be registered without touching the selector.
type Kind string

const (
	KindASTParser       Kind = "ast_parser"
	KindRegexMatcher    Kind = "regex_matcher"
	KindPatternAnalyzer Kind = "pattern_analyzer"
	KindSyntaxValidator Kind = "syntax_validator"
)

// Tool is a pluggable analysis/transform unit. CanHandle reports how
// confident the tool is that it applies to the given input, in [0,1].
type Tool interface {
	Kind() Kind
	CanHandle(inputCode string, tctx analyzer.Context) float64
	Execute(inputCode string, tctx analyzer.Context) (*Result, error)
}

// Result is the outcome of one tool execution. A non-empty ConvertedCode
// signals that downstream tools should operate on the transformed text
// instead of the original input.
type Result struct {
	Kind          Kind           `json:"kind"`
	Success       bool           `json:"success"`
	Payload       map[string]any `json:"payload,omitempty"`
	ConvertedCode string         `json:"converted_code,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// DefaultTools returns the standard registry: AST parser, regex matcher,
// pattern analyzer, and syntax validator.
func DefaultTools() []Tool {
	return []Tool{
		&ASTParser{},
		&RegexMatcher{},
		&PatternAnalyzer{},
		&SyntaxValidator{},
	}
}
