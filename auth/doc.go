// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth implements the household pattern-lock gate.

# Pattern Lock

The unlock pattern is a sequence of distinct cells on a 3x3 grid, numbered 1-9
left to right, top to bottom. Configuration stores only a bcrypt hash of the
pattern rendered as "1-2-3-6-9":

	hash, err := auth.HashPattern([]int{1, 2, 3, 6, 9}, bcrypt.DefaultCost)
	err = auth.CheckPattern(hash, submitted)

# Gate Tokens

A successful unlock issues an HS256 JWT that the router stores in a cookie:

	token, err := auth.IssueGateToken(secret, 30*24*time.Hour)
	claims, err := auth.ParseGateToken(secret, token)

Expired, tampered or foreign tokens return ErrInvalidGateToken.

# IP Hashing

Failed unlock attempts are logged with a salted hash instead of the raw address:

	hash := auth.HashIP(ipAddress, salt)
*/
package auth
