// Package diploma orchestrates the PrivateDiploma workflow: institutions
// issue credentials, holders assemble proofs of possession, and verifying
// parties check proofs against ledger state. The package ties together the
// credential core, the ledger store, the wallet manager, and the transaction
// status simulator, and exposes the whole workflow over a small REST API.
package diploma
