// Package tokencache persists the conferencing API token in an encrypted
// local file.
//
// The API issues a token when the user first pairs the bridge and may
// rotate it later through a token refresh message. The cache loads the
// file at startup, serves the token for the connection URL and writes
// every refreshed token back to disk.
//
// File layout:
//
//	magic "T2MQ" | version (1 byte) | salt (16 bytes) | nonce (24 bytes) | ciphertext
//
// The key is derived with Argon2id from the machine identity and an
// optional configured secret. The token is sealed with XChaCha20-Poly1305
// using the header as additional data, so any modification of the file is
// detected on load.
package tokencache
