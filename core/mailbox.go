package core

import "tagpatch/protocol"

// Reply writes the single mailbox message of a command:
// length, echoed command, payload.
func Reply(code uint8, payload uint16) {
	mb := MustMailbox()
	mb.WriteLength(protocol.ReplyLength)
	mb.WriteWord(uint16(code))
	mb.WriteWord(payload)

	RecordTrace(TraceReply, payload)
	if debugEnabled {
		DebugPrintln("reply " + protocol.CommandName(code) + " " + hex16(payload))
	}
}
