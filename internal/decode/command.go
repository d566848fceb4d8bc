package decode

// Command is a playback command delivered from the UI thread to the decode
// driver. Commands are queued and consumed non-blocking between packet
// reads, never mid-packet.
type Command interface {
	isCommand()
}

// SeekRelative moves playback by Seconds relative to the current audio
// position. Negative values seek backward to the nearest keyframe at or
// before the target; positive values seek forward to the nearest at or
// after.
type SeekRelative struct {
	Seconds float64
}

func (SeekRelative) isCommand() {}
