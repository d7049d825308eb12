package notify

// CardField is one key/value line of a card message.
type CardField struct {
	Label string
	Value string
}

// Notifier sends job outcome notifications to a chat channel.
// Implementations must never let a delivery failure affect the job
// being reported on; callers log and move on.
type Notifier interface {
	SendText(text string) error
	SendCard(title string, fields []CardField) error
}

// Multi fans a notification out to several channels, returning the last error.
type Multi []Notifier

func (m Multi) SendText(text string) error {
	var lastErr error
	for _, n := range m {
		if err := n.SendText(text); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (m Multi) SendCard(title string, fields []CardField) error {
	var lastErr error
	for _, n := range m {
		if err := n.SendCard(title, fields); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
