// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

package bytecode

import (
	"fmt"

	"github.com/jedisct1/go-minisign"
)

// ErrBadSignature is returned by LoadSigned when the minisign signature
// does not verify against the supplied public key.
var ErrBadSignature = fmt.Errorf("%w: signature verification failed", ErrBadBytecode)

// VerifySigned checks a base64-encoded minisign signature (sigB64) of raw
// against a base64-encoded minisign public key (pubKeyB64), without parsing
// the image. This supports the plug-in/event-handler embedding use case
// from spec.md §1, where an image may arrive from an untrusted source and
// the embedder wants authenticity before spending any cycles on
// structural validation.
func VerifySigned(raw []byte, sigB64, pubKeyB64 string) error {
	pub, err := minisign.NewPublicKey(pubKeyB64)
	if err != nil {
		return fmt.Errorf("%w: bad public key: %v", ErrBadArg, err)
	}
	sig, err := minisign.DecodeSignature(sigB64)
	if err != nil {
		return fmt.Errorf("%w: bad signature encoding: %v", ErrBadArg, err)
	}
	ok, err := pub.Verify(raw, sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !ok {
		return ErrBadSignature
	}
	return nil
}

// LoadSigned verifies raw against sigB64/pubKeyB64 before delegating to
// Load. It is strictly additive: Load itself remains the primary,
// spec-mandated entry point and performs no signature check.
func LoadSigned(raw []byte, sigB64, pubKeyB64 string) (*Image, error) {
	if err := VerifySigned(raw, sigB64, pubKeyB64); err != nil {
		return nil, err
	}
	return Load(raw)
}
