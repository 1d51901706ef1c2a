package notifier

import (
	"log/slog"

	"github.com/slack-go/slack"
)

type SlackSender interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type SlackNotifier struct {
	SlackSender
	ChannelID string
	Logger    *slog.Logger
}

var _ Notifier = &SlackNotifier{}

func (s *SlackNotifier) Notify(message string) {
	_, _, err := s.PostMessage(s.ChannelID, slack.MsgOptionAttachments(slack.Attachment{
		Color: "good",
		Title: "splitmon",
		Text:  message,
	}))
	if err != nil {
		s.Logger.Error("failed to post to slack", slog.Any("err", err))
	}
}
