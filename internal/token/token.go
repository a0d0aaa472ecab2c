// Package token exposes a JSON document as a cursor over lexical tokens.
//
// A Cursor offers one token of lookahead (Peek) and consumption (Advance).
// Decoder implements Cursor over any io.Reader using encoding/json's
// tokenizer; Tokens implements it over a fixed token sequence.
package token

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed indicates invalid JSON syntax, a truncated document or a
	// closing delimiter without its opener.
	ErrMalformed = errors.New("token: malformed JSON structure")

	// ErrTooDeep indicates nesting beyond the decoder's depth limit.
	ErrTooDeep = errors.New("token: nesting too deep")
)

// Kind identifies the lexical class of a token.
type Kind uint8

const (
	Invalid Kind = iota
	BeginObject
	EndObject
	BeginArray
	EndArray
	Name
	String
	Number
	Bool
	Null
	EndDocument
)

var kindNames = [...]string{
	Invalid:     "Invalid",
	BeginObject: "BeginObject",
	EndObject:   "EndObject",
	BeginArray:  "BeginArray",
	EndArray:    "EndArray",
	Name:        "Name",
	String:      "String",
	Number:      "Number",
	Bool:        "Bool",
	Null:        "Null",
	EndDocument: "EndDocument",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsScalar reports whether k is a complete value on its own.
func (k Kind) IsScalar() bool {
	switch k {
	case String, Number, Bool, Null:
		return true
	default:
		return false
	}
}

// IsOpen reports whether k starts a container.
func (k Kind) IsOpen() bool {
	return k == BeginObject || k == BeginArray
}

// IsClose reports whether k ends a container.
func (k Kind) IsClose() bool {
	return k == EndObject || k == EndArray
}

// Closer returns the token kind that ends a container opened by k,
// or Invalid when k does not open one.
func (k Kind) Closer() Kind {
	switch k {
	case BeginObject:
		return EndObject
	case BeginArray:
		return EndArray
	default:
		return Invalid
	}
}

// Token is one lexical unit of a JSON document.
//
// Text holds the object member name for Name, the decoded string for
// String, the number literal exactly as written for Number, and
// "true", "false" or "null" for Bool and Null. It is empty for
// structural tokens.
type Token struct {
	Kind Kind
	Text string
}

func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// Cursor is a forward-only view of a token stream.
//
// Peek returns the current token without consuming it; repeated calls
// return the same token. Advance consumes the current token and returns
// it. Once the stream is exhausted both return an EndDocument token.
type Cursor interface {
	Peek() (Token, error)
	Advance() (Token, error)
}
