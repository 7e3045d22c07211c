package noise

// Token is the tagged variant: exactly one of E, S, EE, ES, SE, SS, or the
// Empty sentinel that pads a fixed-width matrix row.
//
// TokenEmpty is the zero value so an uninitialized [maxTokensPerMessage]Token
// row is, by construction, all-Empty — the fixed-width pattern matrix
// relies on this.
type Token int

const (
	TokenEmpty Token = iota
	TokenE
	TokenS
	TokenEE
	TokenES
	TokenSE
	TokenSS
)

func (self Token) String() string {
	switch self {
	case TokenE:
		return "e"
	case TokenS:
		return "s"
	case TokenEE:
		return "ee"
	case TokenES:
		return "es"
	case TokenSE:
		return "se"
	case TokenSS:
		return "ss"
	default:
		return ""
	}
}

// HandshakePattern is the enumerated pattern identifier.
type HandshakePattern string

const (
	PatternN  HandshakePattern = "N"
	PatternK  HandshakePattern = "K"
	PatternX  HandshakePattern = "X"
	PatternNN HandshakePattern = "NN"
	PatternKN HandshakePattern = "KN"
	PatternNK HandshakePattern = "NK"
	PatternKK HandshakePattern = "KK"
	PatternNX HandshakePattern = "NX"
	PatternKX HandshakePattern = "KX"
	PatternXN HandshakePattern = "XN"
	PatternIN HandshakePattern = "IN"
	PatternXK HandshakePattern = "XK"
	PatternIK HandshakePattern = "IK"
	PatternXX HandshakePattern = "XX"
	PatternIX HandshakePattern = "IX"
)

// resolvedPattern is the output of the pattern resolver: a pre-message row
// per role and a fixed 10x10 message-token matrix, Empty terminated/padded.
type resolvedPattern struct {
	name         string
	preInitiator [2]Token
	preResponder [2]Token
	messages     [maxMessages][maxTokensPerMessage]Token
	messageCount int
}

var patternTable map[HandshakePattern]resolvedPattern

// resolvePattern is the pattern resolver: a pure function of the pattern
// enumerant. It returns the canonical name fragment, both pre-message rows
// and the message matrix.
//
// Every pre-message token this table emits is E or S; a future pattern
// needing a DH token in a pre-message row must be rejected here, not by
// HandshakeState (which assumes it can never see one).
func resolvePattern(pattern HandshakePattern) (resolvedPattern, error) {
	rp, found := patternTable[pattern]
	if !found {
		return resolvedPattern{}, wrapError(ErrPatternUnknown, ErrPatternUnknown, "%s", pattern)
	}
	return rp, nil
}

// row builds a fixed maxTokensPerMessage-wide matrix row from tokens,
// padding the remainder with TokenEmpty.
func row(tokens ...Token) [maxTokensPerMessage]Token {
	var r [maxTokensPerMessage]Token
	if len(tokens) > maxTokensPerMessage {
		panic("noise: message pattern row exceeds maxTokensPerMessage")
	}
	copy(r[:], tokens)
	return r
}

func register(name string, preI, preR [2]Token, rows ...[maxTokensPerMessage]Token) {
	if len(rows) > maxMessages {
		panic("noise: pattern has more than maxMessages rows")
	}
	rp := resolvedPattern{name: name, preInitiator: preI, preResponder: preR, messageCount: len(rows)}
	copy(rp.messages[:], rows)
	patternTable[HandshakePattern(name)] = rp
}

func init() {
	patternTable = make(map[HandshakePattern]resolvedPattern, 15)

	e := TokenE
	s := TokenS
	ee, es, se, ss := TokenEE, TokenES, TokenSE, TokenSS
	none := [2]Token{}
	preS := [2]Token{s}

	// one-way patterns
	register("N", none, preS,
		row(e, es),
	)
	register("K", preS, preS,
		row(e, es, ss),
	)
	register("X", none, preS,
		row(e, es, s, ss),
	)

	// interactive patterns
	register("NN", none, none,
		row(e),
		row(e, ee),
	)
	register("KN", preS, none,
		row(e),
		row(e, ee, se),
	)
	register("NK", none, preS,
		row(e, es),
		row(e, ee),
	)
	register("KK", preS, preS,
		row(e, es, ss),
		row(e, ee, se),
	)
	register("NX", none, none,
		row(e),
		row(e, ee, s, es),
	)
	register("KX", preS, none,
		row(e),
		row(e, ee, se, s, es),
	)
	register("XN", none, none,
		row(e),
		row(e, ee),
		row(s, se),
	)
	register("IN", none, none,
		row(e, s),
		row(e, ee, se),
	)
	register("XK", none, preS,
		row(e, es),
		row(e, ee),
		row(s, se),
	)
	register("IK", none, preS,
		row(e, es, s, ss),
		row(e, ee, se),
	)
	register("XX", none, none,
		row(e),
		row(e, ee, s, es),
		row(s, se),
	)
	register("IX", none, none,
		row(e, s),
		row(e, ee, se, s, es),
	)
}
