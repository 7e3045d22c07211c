package main

import (
	"bytes"
	crand "crypto/rand"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"code.noisecore.dev/golang/internal/utils"
	"code.noisecore.dev/golang/pkg/noise"
)

// payloadRng seeds transport payload content; it does not need to be
// cryptographically unpredictable, only to vary message lengths across a
// generation run.
var payloadRng *rand.ChaCha8

func init() {
	var seed [32]byte
	copy(seed[:], []byte("noise-vectors-payload-rng-seed."))
	payloadRng = rand.NewChaCha8(seed)
}

// fillVector runs one full handshake for protoName on both sides and
// records every exchanged message, for use as a TestVector fixture. log
// receives Debug traces of both sides' HandshakeState message processing.
func fillVector(protoName string, log *slog.Logger) (noise.TestVector, error) {
	var cfg noise.Config
	if err := cfg.Load(protoName); nil != err {
		return noise.TestVector{}, fmt.Errorf("failed Config.Load(%s): %w", protoName, err)
	}

	initStatic, err := cfg.DH.Generate(crand.Reader)
	if nil != err {
		return noise.TestVector{}, fmt.Errorf("failed generating initiator static key: %w", err)
	}
	respStatic, err := cfg.DH.Generate(crand.Reader)
	if nil != err {
		return noise.TestVector{}, fmt.Errorf("failed generating responder static key: %w", err)
	}
	initEphem, err := cfg.DH.Generate(crand.Reader)
	if nil != err {
		return noise.TestVector{}, fmt.Errorf("failed generating initiator ephemeral key: %w", err)
	}
	respEphem, err := cfg.DH.Generate(crand.Reader)
	if nil != err {
		return noise.TestVector{}, fmt.Errorf("failed generating responder ephemeral key: %w", err)
	}

	var psk []byte
	if cfg.Psk {
		psk = make([]byte, 32)
		if _, err := crand.Read(psk); nil != err {
			return noise.TestVector{}, fmt.Errorf("failed generating psk: %w", err)
		}
	}

	prologue := []byte("noise-vectors")

	initiator, err := noise.NewHandshakeState(noise.HandshakeParams{
		Cfg: cfg, Initiator: true, Prologue: prologue,
		StaticKeypair: initStatic, EphemeralKeypair: initEphem,
		RemoteStaticKey: respStatic.PublicKey(), Psk: psk,
		Logger: log.With("role", "initiator"),
	})
	if nil != err {
		return noise.TestVector{}, fmt.Errorf("failed constructing initiator for %s: %w", protoName, err)
	}
	responder, err := noise.NewHandshakeState(noise.HandshakeParams{
		Cfg: cfg, Initiator: false, Prologue: prologue,
		StaticKeypair: respStatic, EphemeralKeypair: respEphem,
		RemoteStaticKey: initStatic.PublicKey(), Psk: psk,
		Logger: log.With("role", "responder"),
	})
	if nil != err {
		return noise.TestVector{}, fmt.Errorf("failed constructing responder for %s: %w", protoName, err)
	}

	vect := noise.TestVector{
		ProtocolName:  protoName,
		InitPrologue:  utils.HexBinary(prologue),
		InitEphemeral: utils.HexBinary(initEphem.Bytes()),
		InitStatic:    utils.HexBinary(initStatic.Bytes()),
		RespPrologue:  utils.HexBinary(prologue),
		RespEphemeral: utils.HexBinary(respEphem.Bytes()),
		RespStatic:    utils.HexBinary(respStatic.Bytes()),
	}
	if cfg.Psk {
		vect.InitPsk = utils.HexBinary(psk)
		vect.RespPsk = utils.HexBinary(psk)
	}

	sender, receiver := initiator, responder
	for i := 0; !sender.Finished() || !receiver.Finished(); i++ {
		payload := make([]byte, 4+payloadRng.IntN(12))
		payloadRng.Read(payload)

		var buf bytes.Buffer
		sender.WriteMessage(payload, &buf)

		var out bytes.Buffer
		if _, _, err := receiver.ReadMessage(buf.Bytes(), &out); nil != err {
			return noise.TestVector{}, fmt.Errorf("failed ReadMessage at step %d for %s: %w", i, protoName, err)
		}

		vect.Messages = append(vect.Messages, noise.TestMessage{
			Payload:    utils.HexBinary(payload),
			Ciphertext: utils.HexBinary(buf.Bytes()),
		})

		sender, receiver = receiver, sender
	}

	vect.HandshakeHash = utils.HexBinary(initiator.HandshakeHash())
	return vect, nil
}
