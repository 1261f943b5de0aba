package local

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier delivers account links. Mail delivery lives outside this
// module; the default notifier only logs them.
type Notifier interface {
	PasswordReset(ctx context.Context, email, code string) error
	EmailVerification(ctx context.Context, email, code string) error
}

type LogNotifier struct {
	log *logrus.Entry
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(l *logrus.Logger) *LogNotifier {
	return &LogNotifier{
		log: l.WithFields(map[string]interface{}{
			"from": "identity-notifier",
		}),
	}
}

func (n *LogNotifier) PasswordReset(_ context.Context, email, code string) error {
	n.log.WithFields(logrus.Fields{
		"email": email,
		"code":  code,
	}).Info("password reset requested")
	return nil
}

func (n *LogNotifier) EmailVerification(_ context.Context, email, code string) error {
	n.log.WithFields(logrus.Fields{
		"email": email,
		"code":  code,
	}).Info("email verification requested")
	return nil
}
