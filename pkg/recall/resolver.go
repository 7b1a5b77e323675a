package recall

// IsVisible reports whether the message body is visible to the viewer.
//
//	none: visible to all
//	self: visible to everyone except the sender
//	all:  visible to nobody, sender included
func IsVisible(viewerID int64, m *Message) bool {
	switch m.Scope {
	case ScopeSelf:
		return viewerID != m.SenderID
	case ScopeAll:
		return false
	default:
		return true
	}
}

// Render returns the body the viewer should see. Hidden bodies render as the
// tombstone placeholder.
func Render(viewerID int64, m *Message) string {
	if IsVisible(viewerID, m) {
		return m.Body
	}
	return Tombstone
}
