// Package token implements Hub's compact signed token codec.
//
// Every token Hub issues — RefreshToken, AccessToken, PlayerIdentityToken —
// is a JWT signed with EdDSA over the process's Ed25519 keypair
// (cmd/security/keys). Claim sets are fixed per token type rather than a
// single shared struct, matching the three distinct lifetimes and claim
// shapes the Hub protocol defines.
package token
