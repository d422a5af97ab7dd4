package alerts

import (
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"farmops/internal/model/messages"
)

// Notifier mirrors alerts into a Slack channel. A nil Notifier is a
// no-op, which is how the feature stays off when no token is set.
type Notifier struct {
	api     *slack.Client
	channel string
	log     *zap.SugaredLogger
}

// NewNotifier returns nil unless both token and channel are configured.
func NewNotifier(token, channel string, log *zap.SugaredLogger) *Notifier {
	if token == "" || channel == "" {
		log.Info("slack notifier disabled")
		return nil
	}
	return &Notifier{api: slack.New(token), channel: channel, log: log}
}

func (n *Notifier) Notify(alert messages.AlertEvent) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("[%s] %s %s/%s: %s",
		alert.Severity, alert.Kind, alert.FarmID, alert.RefID, alert.Note)
	if _, _, err := n.api.PostMessage(n.channel, slack.MsgOptionText(text, false)); err != nil {
		n.log.Errorf("slack post: %v", err)
	}
}
