// SPDX-License-Identifier: GPL-3.0-only

package apikeys

import "errors"

var (
	// ErrInvalidKey covers unknown secrets and revoked keys alike, so a
	// caller cannot distinguish the two.
	ErrInvalidKey = errors.New("access key not found or inactive")

	// ErrIdentityMismatch is returned when a redeemed key is presented
	// with an identity other than the one that won the redemption.
	ErrIdentityMismatch = errors.New("access key is bound to a different identity")

	// ErrKeyExpired marks use of a redeemed key past its expiration.
	ErrKeyExpired = errors.New("access key is expired")

	// ErrAlreadyRevoked reports a revocation of an already inactive key.
	ErrAlreadyRevoked = errors.New("access key is already revoked")

	ErrInvalidArgument = errors.New("invalid argument")
	ErrPersistence     = errors.New("persistence failure")
)
