package noise

import (
	"regexp"
)

var protoNameRe = regexp.MustCompile(
	`^Noise(PSK)?_([A-Z]+)_([A-Za-z0-9]+)_([A-Za-z0-9]+)_([A-Za-z0-9]+)$`,
)

// NoiseProto holds the parsed components of a protocol name of the form
// "Noise[PSK]_<PATTERN>_<DH>_<HASH>_<CIPHER>".
type NoiseProto struct {
	Name       string
	Psk        bool
	Pattern    HandshakePattern
	DhAlgo     string
	HashAlgo   string
	CipherAlgo string
}

// ParseProtocol extracts the components of protoName into proto. It errors
// if protoName does not match the byte-exact protocol name grammar.
func ParseProtocol(protoName string, proto *NoiseProto) error {
	parts := protoNameRe.FindStringSubmatch(protoName)
	if nil == parts {
		return wrapError(ErrInvalidProtocolName, ErrInvalidProtocolName, "%s", protoName)
	}
	if nil == proto {
		return nil
	}
	proto.Name = protoName
	proto.Psk = "PSK" == parts[1]
	proto.Pattern = HandshakePattern(parts[2])
	proto.DhAlgo = parts[3]
	proto.HashAlgo = parts[4]
	proto.CipherAlgo = parts[5]
	return nil
}

// buildProtocolName assembles the protocol name in the prescribed order:
// "Noise[PSK]_" prefix, pattern name, DH name, hash name, cipher name, each
// "_" separated.
func buildProtocolName(psk bool, patternName, dhName, hashName, cipherName string) string {
	prefix := "Noise_"
	if psk {
		prefix = "NoisePSK_"
	}
	return prefix + patternName + "_" + dhName + "_" + hashName + "_" + cipherName
}

// Config holds the resolved capabilities a HandshakeState is constructed
// with: the handshake pattern and the DH/Hash/Cipher algorithms.
type Config struct {
	Pattern HandshakePattern
	DH      DH
	Hash    Hash
	Cipher  CipherFactory
	Psk     bool
}

// Load resolves protoName into cfg's fields, looking up each named
// algorithm in its registry. It errors if protoName is malformed or names
// an algorithm that was never registered.
func (self *Config) Load(protoName string) error {
	var proto NoiseProto
	if err := ParseProtocol(protoName, &proto); nil != err {
		return wrapError(err, nil, "failed ParseProtocol")
	}

	if _, err := resolvePattern(proto.Pattern); nil != err {
		return wrapError(err, nil, "failed resolving pattern %s", proto.Pattern)
	}

	dh, err := GetDH(proto.DhAlgo)
	if nil != err {
		return wrapError(err, nil, "failed retrieving DH algorithm")
	}

	hash, err := GetHash(proto.HashAlgo)
	if nil != err {
		return wrapError(err, nil, "failed retrieving Hash algorithm")
	}

	cipherFactory, err := GetCipherFactory(proto.CipherAlgo)
	if nil != err {
		return wrapError(err, nil, "failed retrieving Cipher algorithm")
	}

	self.Pattern = proto.Pattern
	self.DH = dh
	self.Hash = hash
	self.Cipher = cipherFactory
	self.Psk = proto.Psk

	return nil
}

// ProtocolName returns the byte-exact protocol name for cfg.
func (self Config) ProtocolName() (string, error) {
	rp, err := resolvePattern(self.Pattern)
	if nil != err {
		return "", wrapError(err, nil, "failed resolving pattern %s", self.Pattern)
	}
	if nil == self.DH || nil == self.Hash || nil == self.Cipher {
		return "", newError(nil, "incomplete Config, missing DH, Hash or Cipher")
	}
	return buildProtocolName(self.Psk, rp.name, self.DH.Name(), self.Hash.Name(), self.Cipher.Name()), nil
}
