// Package ledger implements the Payment Ledger collaborator.
//
// The ledger owns fungible payment-token balances with approve-then-transfer
// authorization. The marketplace consumes it through the Ledger interface;
// InMemory is the deterministic in-process implementation.
package ledger
