// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"fmt"
	"strings"
)

// Parser turns configuration text into an [astConfig], see spec.md §4.3.
// It implements a pragmatic subset of the grammar sketch: declarations,
// connection chains with bracketed port indices, and `elementclass`
// compound definitions with positional `$variable` substitution. The
// `||` tee-port operator, `define`, and multi-class comma declarations
// mixed with connections are intentionally out of scope; see DESIGN.md.
type Parser struct {
	file string
	lex  *Lexer
}

// NewParser returns a parser over src, reporting file in error context.
func NewParser(file, src string) *Parser {
	return &Parser{file: file, lex: NewLexer(file, src)}
}

// ParseConfig parses an entire configuration document.
func (p *Parser) ParseConfig() (*astConfig, error) {
	cfg := &astConfig{}
	for {
		if err := p.skipSemis(); err != nil {
			return nil, err
		}
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokEOF {
			return cfg, nil
		}
		p.lex.Unlex(tok)
		if err := p.parseStmt(cfg); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) skipSemis() error {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return err
		}
		if tok.Kind != TokSemi {
			p.lex.Unlex(tok)
			return nil
		}
	}
}

func (p *Parser) parseStmt(cfg *astConfig) error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}

	if tok.Kind == TokKeyword {
		switch tok.Text {
		case "elementclass":
			return p.parseClassDef(cfg)
		case "require":
			return p.parseRequire(cfg)
		case "define":
			return p.skipToSemi()
		}
	}
	p.lex.Unlex(tok)
	return p.parseDeclOrConnection(cfg)
}

func (p *Parser) parseRequire(cfg *astConfig) error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	if tok.Kind == TokLParen {
		var b strings.Builder
		for {
			inner, err := p.lex.Next()
			if err != nil {
				return err
			}
			if inner.Kind == TokRParen || inner.Kind == TokEOF {
				break
			}
			b.WriteString(inner.Text)
			b.WriteByte(' ')
		}
		cfg.Requires = append(cfg.Requires, strings.TrimSpace(b.String()))
		return nil
	}
	p.lex.Unlex(tok)
	return p.skipToSemi()
}

func (p *Parser) skipToSemi() error {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return err
		}
		if tok.Kind == TokSemi || tok.Kind == TokEOF {
			return nil
		}
	}
}

func (p *Parser) parseClassDef(cfg *astConfig) error {
	name, err := p.expect(TokIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return err
	}

	body := &astConfig{}
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return err
		}
		if tok.Kind == TokRBrace {
			break
		}
		if tok.Kind == TokSemi {
			continue
		}
		if tok.Kind == TokEOF {
			return fmt.Errorf("unterminated elementclass %q", name.Text)
		}
		p.lex.Unlex(tok)
		if err := p.parseStmt(body); err != nil {
			return err
		}
	}

	cfg.ClassDefs = append(cfg.ClassDefs, astClassDef{
		Name:   name.Text,
		Params: collectVariables(body),
		Body:   body,
	})
	return nil
}

// collectVariables walks a compound element's body and returns every
// distinct `$name` referenced, in first-appearance order, forming the
// positional parameter list substituted at each instantiation (spec.md
// §4.3 step 2, "variable substitution").
func collectVariables(body *astConfig) []string {
	seen := map[string]bool{}
	var order []string
	note := func(args []string) {
		for _, a := range args {
			if strings.HasPrefix(a, "$") {
				name := a[1:]
				if !seen[name] {
					seen[name] = true
					order = append(order, name)
				}
			}
		}
	}
	for _, d := range body.Decls {
		note(d.Args)
	}
	return order
}

// parseDeclOrConnection handles the decl/connection ambiguity by parsing
// one port_decl first and branching on what follows, see spec.md §4.3
// grammar rules `decl` and `connection`.
func (p *Parser) parseDeclOrConnection(cfg *astConfig) error {
	first, classRef, args, err := p.parsePortDecl(cfg)
	if err != nil {
		return err
	}

	tok, err := p.lex.Next()
	if err != nil {
		return err
	}

	switch tok.Kind {
	case TokArrow:
		ports := []astPortDecl{first}
		for tok.Kind == TokArrow {
			next, classRef2, args2, err := p.parsePortDecl(cfg)
			if err != nil {
				return err
			}
			if classRef2 != "" {
				cfg.Decls = append(cfg.Decls, astDecl{Names: []string{next.Elem}, Class: classRef2, Args: args2})
			}
			ports = append(ports, next)
			tok, err = p.lex.Next()
			if err != nil {
				return err
			}
		}
		p.lex.Unlex(tok)
		if classRef != "" {
			cfg.Decls = append(cfg.Decls, astDecl{Names: []string{first.Elem}, Class: classRef, Args: args})
		}
		cfg.Connections = append(cfg.Connections, astConnection{Ports: ports})
		return nil

	case TokComma:
		names := []string{first.Elem}
		for tok.Kind == TokComma {
			name, err := p.expect(TokIdent)
			if err != nil {
				return err
			}
			names = append(names, name.Text)
			tok, err = p.lex.Next()
			if err != nil {
				return err
			}
		}
		if tok.Kind == TokDColon {
			classTok, err := p.expect(TokIdent)
			if err != nil {
				return err
			}
			classRef = classTok.Text
			if tok, err = p.lex.Next(); err == nil && tok.Kind == TokLParen {
				if args, err = p.parseArgs(); err == nil {
					tok, err = p.lex.Next()
				}
			}
			if err != nil {
				return err
			}
		}
		p.lex.Unlex(tok)
		cfg.Decls = append(cfg.Decls, astDecl{Names: names, Class: classRef, Args: args})
		return nil

	default:
		p.lex.Unlex(tok)
		if classRef != "" {
			cfg.Decls = append(cfg.Decls, astDecl{Names: []string{first.Elem}, Class: classRef, Args: args})
		}
		return nil
	}
}

// parsePortDecl parses one `'[' INT ']'? elementref ('::' class)?
// ('(' args ')')? '[' INT ']'?` production. The optional `::class(args)`
// suffix is not part of the grammar's port_decl proper but is accepted
// here so a connection can declare an element inline at first use
// (e.g. `Gen(100) -> Null -> Discard`), the idiom every example
// configuration in spec.md §8 relies on.
func (p *Parser) parsePortDecl(cfg *astConfig) (astPortDecl, string, []string, error) {
	port := astPortDecl{InIndex: -1, OutIndex: -1}

	tok, err := p.lex.Next()
	if err != nil {
		return port, "", nil, err
	}
	if tok.Kind == TokLBracket {
		idx, err := p.expectNumber()
		if err != nil {
			return port, "", nil, err
		}
		if _, err := p.expect(TokRBracket); err != nil {
			return port, "", nil, err
		}
		port.InIndex = idx
		tok, err = p.lex.Next()
		if err != nil {
			return port, "", nil, err
		}
	}

	if tok.Kind != TokIdent {
		return port, "", nil, fmt.Errorf("%s: expected element reference, got %s", tok.Pos(p.file), tok.Kind)
	}
	port.Elem = tok.Text

	var classRef string
	var args []string

	next, err := p.lex.Next()
	if err != nil {
		return port, "", nil, err
	}
	if next.Kind == TokDColon {
		classTok, err := p.expect(TokIdent)
		if err != nil {
			return port, "", nil, err
		}
		classRef = classTok.Text
		next, err = p.lex.Next()
		if err != nil {
			return port, "", nil, err
		}
	}

	if next.Kind == TokLParen {
		args, err = p.parseArgs()
		if err != nil {
			return port, "", nil, err
		}
		if classRef == "" {
			classRef = port.Elem
		}
		next, err = p.lex.Next()
		if err != nil {
			return port, "", nil, err
		}
	}

	if next.Kind == TokLBracket {
		idx, err := p.expectNumber()
		if err != nil {
			return port, "", nil, err
		}
		if _, err := p.expect(TokRBracket); err != nil {
			return port, "", nil, err
		}
		port.OutIndex = idx
	} else {
		p.lex.Unlex(next)
	}

	return port, classRef, args, nil
}

// parseArgs parses a parenthesized, comma-separated argument list. Each
// argument is rendered back to its literal source text (numbers,
// strings, identifiers, or `$variable` references) for the element's
// Configure to interpret.
func (p *Parser) parseArgs() ([]string, error) {
	var args []string
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokRParen {
		return args, nil
	}
	p.lex.Unlex(tok)

	for {
		arg, err := p.parseOneArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case TokComma:
			continue
		case TokRParen:
			return args, nil
		default:
			return nil, fmt.Errorf("%s: expected ',' or ')', got %s", tok.Pos(p.file), tok.Kind)
		}
	}
}

func (p *Parser) parseOneArg() (string, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return "", err
	}
	switch tok.Kind {
	case TokVariable:
		return "$" + tok.Text, nil
	case TokString, TokIdent, TokNumber:
		return tok.Text, nil
	default:
		return "", fmt.Errorf("%s: expected argument, got %s", tok.Pos(p.file), tok.Kind)
	}
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return tok, err
	}
	if tok.Kind != kind {
		return tok, fmt.Errorf("%s: expected %s, got %s", tok.Pos(p.file), kind, tok.Kind)
	}
	return tok, nil
}

func (p *Parser) expectNumber() (int, error) {
	tok, err := p.expect(TokNumber)
	if err != nil {
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(tok.Text, "%d", &n); err != nil {
		return 0, fmt.Errorf("%s: invalid port index %q", tok.Pos(p.file), tok.Text)
	}
	return n, nil
}
