// Package votepipeline implements the vote-transaction submission pipeline
// inside the ledger-core context.
//
// The module owns credential derivation from passphrases, sender/requester
// account resolution, multisignature authorization policy, vote-transaction
// assembly and signing, and the FIFO sequencer that serializes submissions
// against shared account state. It keeps business rules in application/domain
// layers and isolates the ledger store, transaction pool, and broadcast bus
// behind ports and adapters.
package votepipeline
