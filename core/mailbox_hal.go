package core

// Mailbox is the RF transmit register pair the reader collects results from.
type Mailbox interface {
	// WriteLength writes the byte-wide length field
	WriteLength(n uint8)

	// WriteWord appends one word to the response
	WriteWord(w uint16)
}

// Global singleton used by core code.
var mailbox Mailbox

// SetMailbox is called by target-specific code to register its driver.
func SetMailbox(m Mailbox) {
	mailbox = m
}

// MustMailbox returns the configured mailbox or panics if missing.
func MustMailbox() Mailbox {
	if mailbox == nil {
		panic("Mailbox not configured")
	}
	return mailbox
}
