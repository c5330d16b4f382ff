package service

import "sync"

type Severity int

const (
	SeverityNormal Severity = iota
	SeverityDestructive
)

func (s Severity) String() string {
	if s == SeverityDestructive {
		return "destructive"
	}
	return "normal"
}

// Notifier 用户侧的瞬时提示通道
// Fire-and-forget: the core calls this for every non-fatal degradation and
// never for routine success.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Notification is one user-visible transient message.
type Notification struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// MemoryNotifier keeps the most recent notifications for the UI to poll and
// mirrors every one to the app log.
type MemoryNotifier struct {
	mu     sync.Mutex
	recent []Notification
	limit  int
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{limit: 20}
}

func (n *MemoryNotifier) Notify(message string, severity Severity) {
	if severity == SeverityDestructive {
		logger.Warnf("[notify] %s", message)
	} else {
		logger.Infof("[notify] %s", message)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.recent = append(n.recent, Notification{Message: message, Severity: severity.String()})
	if len(n.recent) > n.limit {
		n.recent = n.recent[len(n.recent)-n.limit:]
	}
}

// Recent returns the buffered notifications, newest last, and clears them.
func (n *MemoryNotifier) Recent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.recent
	n.recent = nil
	return out
}
