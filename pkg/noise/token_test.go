package noise

import (
	"errors"
	"testing"
)

func TestResolvePatternKnown(t *testing.T) {
	names := []HandshakePattern{
		PatternN, PatternK, PatternX,
		PatternNN, PatternKN, PatternNK, PatternKK, PatternNX, PatternKX,
		PatternXN, PatternIN, PatternXK, PatternIK, PatternXX, PatternIX,
	}
	for _, name := range names {
		t.Run(string(name), func(t *testing.T) {
			rp, err := resolvePattern(name)
			if nil != err {
				t.Fatalf("failed resolving %s: %v", name, err)
			}
			if rp.name != string(name) {
				t.Errorf("name = %q, want %q", rp.name, name)
			}
			if rp.messageCount == 0 || rp.messageCount > maxMessages {
				t.Errorf("messageCount = %d, out of range", rp.messageCount)
			}
			// every emitted row must be Empty-terminated
			for i := 0; i < rp.messageCount; i++ {
				row := rp.messages[i]
				sawEmpty := false
				for _, tkn := range row {
					if TokenEmpty == tkn {
						sawEmpty = true
						continue
					}
					if sawEmpty {
						t.Errorf("row %d has a non-Empty token after an Empty one", i)
					}
				}
			}
		})
	}
}

func TestResolvePatternUnknown(t *testing.T) {
	_, err := resolvePattern(HandshakePattern("BOGUS"))
	if nil == err {
		t.Fatal("expected an error resolving an unknown pattern")
	}
	if !errors.Is(err, ErrPatternUnknown) {
		t.Errorf("expected ErrPatternUnknown, got %v", err)
	}
}

func TestXXPatternTokens(t *testing.T) {
	rp, err := resolvePattern(PatternXX)
	if nil != err {
		t.Fatalf("failed resolving XX: %v", err)
	}
	if rp.messageCount != 3 {
		t.Fatalf("XX should have 3 messages, got %d", rp.messageCount)
	}
	expect := [][]Token{
		{TokenE},
		{TokenE, TokenEE, TokenS, TokenES},
		{TokenS, TokenSE},
	}
	for i, want := range expect {
		for j, tkn := range want {
			if rp.messages[i][j] != tkn {
				t.Errorf("message %d token %d = %v, want %v", i, j, rp.messages[i][j], tkn)
			}
		}
		if rp.messages[i][len(want)] != TokenEmpty {
			t.Errorf("message %d should end after %d tokens", i, len(want))
		}
	}
}

func TestIKPreMessage(t *testing.T) {
	rp, err := resolvePattern(PatternIK)
	if nil != err {
		t.Fatalf("failed resolving IK: %v", err)
	}
	if rp.preInitiator[0] != TokenEmpty {
		t.Error("IK initiator has no pre-message")
	}
	if rp.preResponder[0] != TokenS {
		t.Error("IK responder pre-message should be s")
	}
}
