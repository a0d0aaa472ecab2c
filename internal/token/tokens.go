package token

// Tokens is a Cursor over a fixed token sequence. It never fails; past
// the last token it reports EndDocument.
type Tokens struct {
	toks []Token
	pos  int
}

var _ Cursor = (*Tokens)(nil)

func NewTokens(toks ...Token) *Tokens {
	return &Tokens{toks: toks}
}

func (t *Tokens) Peek() (Token, error) {
	if t.pos >= len(t.toks) {
		return Token{Kind: EndDocument}, nil
	}
	return t.toks[t.pos], nil
}

func (t *Tokens) Advance() (Token, error) {
	tok, _ := t.Peek()
	if t.pos < len(t.toks) {
		t.pos++
	}
	return tok, nil
}

// Pos is the index of the current token.
func (t *Tokens) Pos() int {
	return t.pos
}

// Collect drains c and returns every token up to, but excluding,
// EndDocument.
func Collect(c Cursor) ([]Token, error) {
	var out []Token
	for {
		tok, err := c.Advance()
		if err != nil {
			return out, err
		}
		if tok.Kind == EndDocument {
			return out, nil
		}
		out = append(out, tok)
	}
}
