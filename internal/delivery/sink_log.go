package delivery

import (
	"context"

	logx "classbell/pkg/logx"
)

// LogSink writes fired reminders to the structured log. Default sink for
// headless deployments without a chat target.
type LogSink struct {
	Log logx.Logger
}

func (s LogSink) Notify(ctx context.Context, title, body string) error {
	_ = ctx
	s.Log.Info("reminder", logx.String("title", title), logx.String("body", body))
	return nil
}
