// Package credential implements the cryptographic core of the PrivateDiploma
// protocol: commitments to private student data, certificate hashes, and
// single-use nullifiers.
//
// Overview:
//   - A diploma is committed with MiMC: cm = Com(fields || rho, r), so the
//     issuer binds itself to the student record without revealing it
//   - The public certificate hash is a BLAKE3 digest of issuer, subject, and
//     issuance time; it is the unique ledger key for the credential
//   - Nullifiers are single-use random tokens consumed on verification to
//     prevent proof replay
//
// Security Model:
//   - MiMC over the BW6-761 scalar field for commitments and PRFs
//   - BLAKE3 (256-bit) for public identifiers
//   - All randomness comes from crypto/rand; if the source fails, token
//     generation fails loudly instead of degrading
//
// The private DiplomaData (the witness) never leaves the caller; only digests
// derived from it are stored or transmitted.
package credential
