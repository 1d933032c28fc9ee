package session

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/danielpatrickdp/imitate/internal/registry"
)

// #region tokens

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokLParen
	tokRParen
	tokComma
	tokEquals
	tokSemi
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("(),;=", r)
}

// tokenize splits statement text into identifiers and punctuation. Anything
// that is not whitespace or punctuation is part of an identifier, so
// annotated names such as "~f" and synthetic aliases such as "__3" lex
// as single identifiers.
func tokenize(text string) []token {
	var tokens []token
	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case r == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case r == ',':
			tokens = append(tokens, token{tokComma, ","})
			i++
		case r == ';':
			tokens = append(tokens, token{tokSemi, ";"})
			i++
		case r == '=':
			tokens = append(tokens, token{tokEquals, "="})
			i++
		default:
			start := i
			for i < len(runes) && !isDelimiter(runes[i]) {
				i++
			}
			tokens = append(tokens, token{tokIdent, string(runes[start:i])})
		}
	}
	return append(tokens, token{tokEOF, ""})
}

// #endregion tokens

// #region syntax

// syntax is the unvalidated shape of a statement.
type syntax struct {
	alias    string
	function string
	args     []string
}

type syntaxParser struct {
	tokens []token
	pos    int
}

func (p *syntaxParser) peek() token { return p.tokens[p.pos] }

func (p *syntaxParser) peekAt(offset int) token {
	if p.pos+offset >= len(p.tokens) {
		return token{kind: tokEOF}
	}
	return p.tokens[p.pos+offset]
}

func (p *syntaxParser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func parseSyntax(text string) (syntax, error) {
	p := &syntaxParser{tokens: tokenize(text)}
	var out syntax

	if p.peek().kind == tokIdent && p.peekAt(1).kind == tokEquals {
		out.alias = p.next().text
		p.next()
	}

	switch p.peek().kind {
	case tokIdent:
		out.function = p.next().text
	case tokSemi, tokEOF:
		// missing function, reported by validation
	default:
		return syntax{}, fmt.Errorf("%w: unexpected %q in %q", ErrSyntax, p.peek().text, text)
	}

	args, err := p.arguments()
	if err != nil {
		return syntax{}, fmt.Errorf("%w in %q", err, text)
	}
	out.args = args

	if p.peek().kind == tokSemi {
		p.next()
	}
	if t := p.peek(); t.kind != tokEOF {
		return syntax{}, fmt.Errorf("%w: unexpected %q after statement %q", ErrSyntax, t.text, text)
	}
	return out, nil
}

// arguments reads aliases and parenthesized groups until a token that
// cannot start an argument.
func (p *syntaxParser) arguments() ([]string, error) {
	var args []string
	for {
		switch p.peek().kind {
		case tokIdent:
			args = append(args, p.next().text)
		case tokLParen:
			group, err := p.group()
			if err != nil {
				return nil, err
			}
			args = append(args, group...)
		default:
			return args, nil
		}
	}
}

func (p *syntaxParser) group() ([]string, error) {
	p.next() // (
	if p.peek().kind == tokRParen {
		p.next()
		return []string{}, nil
	}
	var items []string
	for {
		item, err := p.item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		switch t := p.next(); t.kind {
		case tokComma:
		case tokRParen:
			return items, nil
		default:
			return nil, fmt.Errorf("%w: expected ',' or ')' but found %q", ErrSyntax, t.text)
		}
	}
}

// item is either a bare alias or a nested statement, which contributes its
// canonical serialization.
func (p *syntaxParser) item() (string, error) {
	t := p.next()
	if t.kind != tokIdent {
		return "", fmt.Errorf("%w: expected argument but found %q", ErrSyntax, t.text)
	}
	if k := p.peek().kind; k != tokIdent && k != tokLParen {
		return t.text, nil
	}
	args, err := p.arguments()
	if err != nil {
		return "", err
	}
	return t.text + " (" + strings.Join(args, ", ") + ")", nil
}

// #endregion syntax

// #region namespace

// namespaced prefixes an alias with the sequence marker once per nesting
// depth. The text sentinel is shared by every namespace.
func namespaced(alias string, depth int) string {
	if depth == 0 || alias == Text || alias == "" {
		return alias
	}
	return strings.Repeat("__", depth) + alias
}

// #endregion namespace

// #region parser

// Parser turns statement text into a validated, unevaluated Statement bound
// to the argument statements it refers to.
type Parser struct {
	registry *registry.Registry
	memory   *Memory
}

// NewParser binds a parser to a registry and the working memory used to
// resolve arguments.
func NewParser(reg *registry.Registry, mem *Memory) *Parser {
	return &Parser{registry: reg, memory: mem}
}

// Parse validates text at nesting depth zero.
func (p *Parser) Parse(text string) (*Statement, error) {
	return p.parse(text, 0)
}

func (p *Parser) parse(text string, depth int) (*Statement, error) {
	syn, err := parseSyntax(text)
	if err != nil {
		return nil, err
	}

	syn.alias = namespaced(syn.alias, depth)
	for i, arg := range syn.args {
		if !strings.Contains(arg, "(") {
			syn.args[i] = namespaced(arg, depth)
		}
	}

	if syn.function == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingFunction, text)
	}
	if !p.registry.Has(syn.function) {
		return nil, fmt.Errorf("%w `%s'", ErrUnknownFunction, syn.function)
	}
	if p.registry.IsPure(syn.function) && syn.alias == "" {
		return nil, fmt.Errorf("%w: `%s'", ErrPureWithoutAlias, syn.function)
	}

	inputs := make([]*Statement, 0, len(syn.args))
	for _, arg := range syn.args {
		in := p.memory.Input(arg)
		if in == nil {
			return nil, fmt.Errorf("%w `%s'", ErrUnknownArgument, arg)
		}
		if !p.memory.InScope(arg) {
			return nil, fmt.Errorf("%w: `%s'", ErrOutOfScopeArgument, arg)
		}
		inputs = append(inputs, in)
	}

	if arity, _ := p.registry.Arity(syn.function); arity != len(syn.args) {
		return nil, fmt.Errorf("%w: %s takes %d argument(s), got %d",
			ErrArityMismatch, syn.function, arity, len(syn.args))
	}

	return &Statement{
		Function: syn.function,
		Args:     syn.args,
		Alias:    syn.alias,
		inputs:   inputs,
	}, nil
}

// #endregion parser
