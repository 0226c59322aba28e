package navigation

// Kind is the style of a presentation, chosen by the call site.
type Kind int

const (
	// KindSheet is a card-style modal that partially covers its host.
	KindSheet Kind = iota
	// KindFullScreenCover is a modal that covers the whole host.
	KindFullScreenCover
	// KindPopover is a modal anchored to a source element.
	KindPopover
	// KindAlert is a modal alert with actions.
	KindAlert
	// KindConfirmationDialog is a modal action sheet.
	KindConfirmationDialog
	// KindMenu is an inline menu.
	KindMenu
	// KindPush is a drill-down onto a navigation stack.
	KindPush
)

func (k Kind) String() string {
	switch k {
	case KindSheet:
		return "sheet"
	case KindFullScreenCover:
		return "fullScreenCover"
	case KindPopover:
		return "popover"
	case KindAlert:
		return "alert"
	case KindConfirmationDialog:
		return "confirmationDialog"
	case KindMenu:
		return "menu"
	case KindPush:
		return "push"
	default:
		return "unknown"
	}
}

// IsModal reports whether presentations of this kind occupy a modal slot.
// A host shows one modal at a time; pushes stack instead.
func (k Kind) IsModal() bool {
	return k != KindPush
}

// ParseKind returns the kind named s, as produced by Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindSheet; k <= KindPush; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
