package otterreceiver

import "fmt"

// Some replay clients send event verbs newer than this receiver
// understands (future OMPT extensions the wire format grew after this
// build was cut). Rather than buffering per-connection state for a
// stream it can never fully interpret, reject it as soon as the verb is
// seen rather than discovering the gap mid-run.

type UnsupportedEventError struct {
	Event string
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("rejecting replay event not supported by this receiver: '%s'", e.Event)
}

var unsupportedReplayEvents = map[string]bool{
	"target_begin":    true,
	"target_end":      true,
	"target_map":      true,
	"target_data_op":  true,
}

// IsUnsupportedEvent reports whether event names a verb this receiver
// knows about but deliberately does not service.
func IsUnsupportedEvent(event string) error {
	if unsupportedReplayEvents[event] {
		return &UnsupportedEventError{Event: event}
	}
	return nil
}
