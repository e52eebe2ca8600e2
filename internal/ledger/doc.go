// Package ledger tracks a shared integer score per client identity and
// republishes the aggregate (mean + grouped median) through a broadcast hub
// the ledger owns. Monitor channels join that hub to observe the aggregate
// stream without taking part in chat.
package ledger
