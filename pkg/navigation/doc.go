// Package navigation keeps presentation surfaces in sync with state.
//
// Application state describes what is shown as an optional value or one case
// of a tagged union. A [Presenter] observes that value and drives a
// [Surface] with Begin and End calls:
//
//	m := &model{destination: core.NewSlot[Destination](rt, nil)}
//	host := navigation.NewModalHost("root")
//
//	p := navigation.Present(rt, host,
//	    binding.FromSlot(m.destination),
//	    binding.CaseOf[Destination, EditItem]("edit"),
//	    navigation.Options[EditItem]{Kind: navigation.KindSheet},
//	)
//
//	m.destination.Set(EditItem{ID: "42"}) // begins a sheet on the next Flush
//	host.Dismiss(transaction.New())       // user swipe: destination becomes nil
//
// # Identity
//
// Each presentation is tied to the identity of the item it was created
// for. Writing an item with the same identity updates content in place;
// writing one with a different identity ends the old presentation and then
// begins the new one. A dismissal reported for an identity the state has
// already moved past is ignored.
//
// # Surfaces
//
// [ModalHost] shows one modal at a time. [Stack] is a drill-down stack.
// Both start ready unless created with their Deferred constructors, in
// which case presenters queue work until MarkReady.
//
// # Observability
//
// Presenters count transitions with Prometheus collectors ([Metrics]),
// trace each transition with OpenTelemetry spans that end when the surface
// finishes animating, and log transitions at debug level through slog.
package navigation
