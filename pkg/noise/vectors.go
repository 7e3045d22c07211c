package noise

import (
	"encoding/json"
	"os"

	"code.noisecore.dev/golang/internal/utils"
)

// TestVector holds one handshake test vector, in the shape published by
// the noise-c/snow/cacophony vector suites: enough material for both sides
// to run the handshake and for a verifier to check transcript, keys and
// per-message ciphertexts.
type TestVector struct {
	ProtocolName string `json:"protocol_name"`

	InitPrologue        utils.HexBinary `json:"init_prologue"`
	InitEphemeral       utils.HexBinary `json:"init_ephemeral"`
	InitStatic          utils.HexBinary `json:"init_static"`
	InitRemoteEphemeral utils.HexBinary `json:"init_remote_ephemeral,omitempty"`
	InitRemoteStatic    utils.HexBinary `json:"init_remote_static,omitempty"`
	InitPsk             utils.HexBinary `json:"init_psk,omitempty"`
	RespPrologue        utils.HexBinary `json:"resp_prologue"`
	RespEphemeral       utils.HexBinary `json:"resp_ephemeral"`
	RespStatic          utils.HexBinary `json:"resp_static"`
	RespRemoteEphemeral utils.HexBinary `json:"resp_remote_ephemeral,omitempty"`
	RespRemoteStatic    utils.HexBinary `json:"resp_remote_static,omitempty"`
	RespPsk             utils.HexBinary `json:"resp_psk,omitempty"`

	HandshakeHash utils.HexBinary `json:"handshake_hash"`
	Messages      []TestMessage   `json:"messages"`
}

// TestMessage holds one handshake (or transport) message's plaintext
// payload and the ciphertext it should produce/consume.
type TestMessage struct {
	Payload    utils.HexBinary `json:"payload"`
	Ciphertext utils.HexBinary `json:"ciphertext"`
}

// LoadTestVectors loads test vectors from a JSON file at srcPath, in the
// `{"vectors": [...]}` envelope used by the noise-c/cacophony vector suites.
func LoadTestVectors(srcPath string) ([]TestVector, error) {
	src, err := os.Open(srcPath)
	if nil != err {
		return nil, wrapError(err, nil, "failed opening file %s", srcPath)
	}
	defer src.Close()

	dec := json.NewDecoder(src)
	envelope := struct {
		Vectors []TestVector `json:"vectors"`
	}{}
	if err := dec.Decode(&envelope); nil != err {
		return nil, wrapError(err, nil, "failed decoding json test vectors from %s", srcPath)
	}
	return envelope.Vectors, nil
}
