// Package models defines the core domain values of the ledger.
//
// # Values
//
//   - Party: a group of participants plus the ordered list of chunk references
//     holding its expense history
//   - Expense: one spending event with its payers and allocation rules
//   - Chunk: a bounded, append-oriented bucket of a party's expenses
//   - BalancesByParticipant: per-participant balance rows computed over some set
//     of expenses (typically one chunk)
//
// # Design Principles
//
//  1. Everything here is a value. The ledger core reads snapshots and returns new
//     snapshots; only the storage layer persists them.
//  2. Relationships use ID strings, never pointers.
//  3. Amounts coming out of documents are float64 (JSON numbers). They must hold
//     integer minor currency units and are validated by the calculator before use.
package models
