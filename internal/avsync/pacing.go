package avsync

import "time"

// DelayFor returns how long the display must wait before draining a queue
// buffered below target: the shortfall, or zero once the queue holds enough.
// Waiting beats starving, so video output is delayed until the buffer fills.
func DelayFor(buffered, target time.Duration) time.Duration {
	if buffered < target {
		return target - buffered
	}
	return 0
}

// SleepFor returns how long the decode loop may sleep when both queues hold
// more than target: the surplus, or zero. Sleeping the surplus stops the
// loop from busy-waiting ahead of the consumers.
func SleepFor(buffered, target time.Duration) time.Duration {
	if buffered > target {
		return buffered - target
	}
	return 0
}

// SleepForDrift converts a drift measurement into the sleep the decode
// driver should take when it is running ahead of the audio device. The
// threshold is subtracted as buffer room so the driver never oversleeps.
func SleepForDrift(drift time.Duration) time.Duration {
	if ahead := -drift; ahead > DriftThreshold {
		return ahead - DriftThreshold
	}
	return 0
}
