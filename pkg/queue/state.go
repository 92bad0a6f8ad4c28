package queue

// State is the lifecycle position of a Consumer.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateChannelOpening
	StateDeclaring
	StateSettingQos
	StateSubscribing
	StateConsuming
	StateCancelling
	StateClosingChannel
	StateClosingConnection
	StateClosed
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateConnecting:        "connecting",
	StateChannelOpening:    "channel_opening",
	StateDeclaring:         "declaring",
	StateSettingQos:        "setting_qos",
	StateSubscribing:       "subscribing",
	StateConsuming:         "consuming",
	StateCancelling:        "cancelling",
	StateClosingChannel:    "closing_channel",
	StateClosingConnection: "closing_connection",
	StateClosed:            "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

// IsTerminal reports whether the state machine finished.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// isTearingDown reports whether the consumer already left the opening sequence
// and the running subscription for good.
func (s State) isTearingDown() bool {
	return s >= StateCancelling
}
