package token_test

import (
	"testing"

	"tmplc/internal/token"
)

func TestIsLiteral(t *testing.T) {
	lits := []token.Kind{token.IntLit, token.FloatLit, token.StringLit, token.KwTrue, token.KwNull}
	for _, k := range lits {
		if !(token.Token{Kind: k}).IsLiteral() {
			t.Fatalf("%v should be literal", k)
		}
	}
	non := []token.Kind{token.Ident, token.Var, token.Plus, token.LParen, token.KwAnd}
	for _, k := range non {
		if (token.Token{Kind: k}).IsLiteral() {
			t.Fatalf("%v must NOT be literal", k)
		}
	}
}

func TestLookupKeyword(t *testing.T) {
	if token.LookupKeyword("and") != token.KwAnd || token.LookupKeyword("andy") != token.Ident {
		t.Fatalf("keyword lookup broken")
	}
}
