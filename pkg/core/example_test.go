package core_test

import (
	"fmt"

	"github.com/go-drift/navsync/pkg/animation"
	"github.com/go-drift/navsync/pkg/core"
	"github.com/go-drift/navsync/pkg/transaction"
)

// This example shows a slot read inside an observation. The observation
// re-runs during Flush after the slot is written.
func ExampleObserve() {
	rt := core.NewRuntime()
	count := core.NewSlot(rt, 0)

	tok := core.Observe(rt, func(transaction.Transaction) {
		fmt.Println("count is", count.Value())
	})
	defer tok.Cancel()

	// Two writes in one pass coalesce into one re-invocation.
	count.Set(1)
	count.Set(2)
	rt.Flush()

	// Output:
	// count is 0
	// count is 2
}

// This example shows how ObserveChange keeps effects out of dependency
// tracking. The effect writes a slot it also reads without re-triggering.
func ExampleObserveChange() {
	rt := core.NewRuntime()
	selection := core.NewSlot(rt, "")
	history := core.NewSlot(rt, []string(nil))

	tok := core.ObserveChange(rt,
		func() string { return selection.Value() },
		func(transaction.Transaction) {
			history.Set(append(history.Peek(), selection.Value()))
			fmt.Println("history:", history.Value())
		},
	)
	defer tok.Cancel()

	selection.Set("inbox")
	rt.Flush()
	selection.Set("archive")
	rt.Flush()

	// Output:
	// history: [inbox]
	// history: [inbox archive]
}

// This example shows how a write carries the ambient transaction to the
// observers it schedules.
func ExampleWithTransaction() {
	rt := core.NewRuntime()
	open := core.NewSlot(rt, false)

	tok := core.ObserveChange(rt,
		func() bool { return open.Value() },
		func(tx transaction.Transaction) {
			fmt.Println("open:", open.Value(), "animated:", tx.IsAnimated())
		},
	)
	defer tok.Cancel()

	core.WithTransaction(rt, transaction.New().WithAnimation(animation.Default()), func() struct{} {
		open.Set(true)
		return struct{}{}
	})
	rt.Flush()

	open.Set(false)
	rt.Flush()

	// Output:
	// open: true animated: true
	// open: false animated: false
}
