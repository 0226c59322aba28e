// Package core provides observable state and the observation engine.
//
// State lives in [Slot]s. Reading a slot inside an observation records a
// dependency; writing a slot schedules every dependent observation on the
// slot's [Runtime], which re-invokes it during the next [Runtime.Flush].
//
// # Observable State
//
//	rt := core.NewRuntime()
//	count := core.NewSlot(rt, 0)
//
//	tok := core.Observe(rt, func(tx transaction.Transaction) {
//	    fmt.Println("count is", count.Value())
//	})
//	defer tok.Cancel()
//
//	count.Set(1)
//	rt.Flush() // prints "count is 1"
//
// # Scoped Observation
//
// [ObserveChange] splits an observation in two: a selector that only reads
// (and so only defines dependencies) and an onChange callback that performs
// effects. Effects never subscribe to what they read, which keeps an effect
// that writes state from re-triggering itself:
//
//	core.ObserveChange(rt,
//	    func() *Detail { return model.Destination.Value() },
//	    func(tx transaction.Transaction) { reconcile(tx) },
//	)
//
// # Transactions
//
// [WithTransaction] pushes a transaction for the duration of a call. Writes
// capture the ambient transaction and deliver it to the observers they
// schedule:
//
//	core.WithTransaction(rt, transaction.New().WithAnimation(animation.Default()), func() struct{} {
//	    model.Destination.Set(&Detail{ID: "42"})
//	    return struct{}{}
//	})
//
// # Threading
//
// A Runtime is a single execution context, like a UI thread. Slots are not
// thread-safe; only [Runtime.Dispatch] may be called from other goroutines.
//
// # Lifetimes
//
// Observations live as long as their [Token]. Group tokens in a [Scope] to
// release them together, or use [ScopeOf] to attach a scope to an object
// without changing its type.
package core
