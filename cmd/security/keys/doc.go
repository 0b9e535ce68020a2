// Package keys holds Hub's Ed25519 signing key material.
//
// A single keypair signs every RefreshToken, AccessToken, and
// PlayerIdentityToken issued by this process. The public half is exposed
// at GET /pubkey in hex and PEM form so game servers and other clients
// can verify PlayerIdentityTokens without talking back to the Hub.
package keys
