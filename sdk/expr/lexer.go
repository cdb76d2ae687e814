// Package expr 把使用者輸入的函數字串（例如 "14*x^3 - sin(x)"）編譯成可求值的語法樹。
//
// 只支援固定的文法：數字、變數 x、常數 pi / e、+ - * / ^、括號與一組白名單函數。
// 不執行任何程式碼，輸入字串只會被切成 token 再建樹。
package expr

import (
	"strings"
	"unicode"

	"github.com/zintix-labs/quadlab/errs"
)

const maxSourceLen = 4096

type tokenType int

const (
	tokNumber tokenType = iota
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokEOF
)

func (t tokenType) String() string {
	switch t {
	case tokNumber:
		return "number"
	case tokIdent:
		return "identifier"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokCaret:
		return "'^'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokEOF:
		return "end of input"
	default:
		return "unknown"
	}
}

type token struct {
	typ tokenType
	val string
	pos int
}

var singleCharTokens = map[byte]tokenType{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'^': tokCaret,
	'(': tokLParen,
	')': tokRParen,
}

// lex 切 token；"**" 視為 "^"。
func lex(src string) ([]token, error) {
	if len(src) > maxSourceLen {
		return nil, errs.InvalidArgument("expr", "expression longer than %d bytes", maxSourceLen)
	}
	var tokens []token
	i := 0
	for i < len(src) {
		ch := src[i]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++

		case isDigit(ch) || (ch == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			i = scanNumber(src, i)
			tokens = append(tokens, token{typ: tokNumber, val: src[start:i], pos: start})

		case ch == '_' || unicode.IsLetter(rune(ch)):
			start := i
			for i < len(src) && (src[i] == '_' || isDigit(src[i]) || unicode.IsLetter(rune(src[i]))) {
				i++
			}
			tokens = append(tokens, token{typ: tokIdent, val: strings.ToLower(src[start:i]), pos: start})

		case ch == '*' && i+1 < len(src) && src[i+1] == '*':
			tokens = append(tokens, token{typ: tokCaret, val: "^", pos: i})
			i += 2

		default:
			typ, ok := singleCharTokens[ch]
			if !ok {
				return nil, errs.InvalidArgument("expr", "unexpected char %q at %d", ch, i)
			}
			tokens = append(tokens, token{typ: typ, val: string(ch), pos: i})
			i++
		}
	}
	tokens = append(tokens, token{typ: tokEOF, pos: len(src)})
	return tokens, nil
}

// scanNumber 讀取 123、1.5、.5、1e-3、2.5E+10
func scanNumber(src string, i int) int {
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
