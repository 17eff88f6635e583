package app

import "time"

// DepositCountdown reports how long remains until the deposit deadline.
// ok is false when the escrow carries no deadline. The returned duration is
// advisory only; the authoritative state is always the next chain read.
func DepositCountdown(e Escrow, now time.Time) (remaining time.Duration, ok bool) {
	if e.DepositDeadline.IsZero() {
		return 0, false
	}
	remaining = e.DepositDeadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// NextPoll returns the wait before the next advisory re-read, polling faster
// as the deadline approaches. The client never enacts a transition locally;
// it only re-reads more often around the time one is expected.
func NextPoll(remaining time.Duration) time.Duration {
	switch {
	case remaining > 10*time.Minute:
		return time.Minute
	case remaining > time.Minute:
		return 15 * time.Second
	default:
		return 5 * time.Second
	}
}
