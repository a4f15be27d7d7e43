// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer("test", src)
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Kind == TokEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerBasicTokens(t *testing.T) {
	toks := lexAll(t, `src :: Gen(100) -> q :: Queue(16) -> Discard;`)
	kinds := make([]TokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []TokenKind{
		TokIdent, TokDColon, TokIdent, TokLParen, TokNumber, TokRParen,
		TokArrow, TokIdent, TokDColon, TokIdent, TokLParen, TokNumber, TokRParen,
		TokArrow, TokIdent, TokSemi,
	}, kinds)
}

func TestLexerComments(t *testing.T) {
	toks := lexAll(t, "a // trailing\n/* block */ -> b")
	require.Len(t, toks, 4)
	assert.Equal(t, TokIdent, toks[0].Kind)
	assert.Equal(t, TokSemi, toks[1].Kind)
	assert.Equal(t, TokArrow, toks[2].Kind)
	assert.Equal(t, TokIdent, toks[3].Kind)
}

func TestLexerVariableAndEllipsis(t *testing.T) {
	toks := lexAll(t, `$rate ... elementclass`)
	require.Len(t, toks, 3)
	assert.Equal(t, TokVariable, toks[0].Kind)
	assert.Equal(t, "rate", toks[0].Text)
	assert.Equal(t, TokEllipsis, toks[1].Kind)
	assert.Equal(t, TokKeyword, toks[2].Kind)
}

func TestLexerString(t *testing.T) {
	toks := lexAll(t, `"hello \"world\""`)
	require.Len(t, toks, 1)
	assert.Equal(t, TokString, toks[0].Kind)
	assert.Equal(t, `hello "world"`, toks[0].Text)
}

func TestLexerUnlex(t *testing.T) {
	l := NewLexer("test", "a b")
	first, err := l.Next()
	require.NoError(t, err)
	l.Unlex(first)

	again, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, first, again)

	second, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", second.Text)
}

func TestLexerTracksPosition(t *testing.T) {
	l := NewLexer("cfg.click", "a\nb")
	_, err := l.Next() // a
	require.NoError(t, err)
	_, err = l.Next() // newline -> semi
	require.NoError(t, err)
	tok, err := l.Next() // b
	require.NoError(t, err)
	assert.Equal(t, "cfg.click:2:1", tok.Pos("cfg.click"))
}
