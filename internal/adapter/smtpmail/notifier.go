// Package smtpmail emails alert notifications to affected users and keeps
// an audit row per attempt. A failed send never aborts the rest of the
// batch or the alert that triggered it.
package smtpmail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Arkie13/agrialert/internal/domain"
	"github.com/Arkie13/agrialert/internal/observability"
	"github.com/Arkie13/agrialert/internal/store"
)

const (
	batchSize   = 10
	batchPacing = 200 * time.Millisecond
)

// AuditLog persists one row per send attempt and answers whether a user
// was already emailed for an alert.
type AuditLog interface {
	Record(ctx context.Context, log *store.NotificationLog) error
	AlreadyNotified(ctx context.Context, alertID, userID uint) (bool, error)
}

// sendFunc matches smtp.SendMail so tests can intercept delivery.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier delivers alert emails over SMTP in small paced batches.
type Notifier struct {
	host     string
	port     string
	username string
	password string
	from     string

	audit   AuditLog
	send    sendFunc
	pacing  time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewNotifier(host, port, username, password, from string, audit AuditLog, logger *slog.Logger, metrics *observability.Metrics) *Notifier {
	return &Notifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		audit:    audit,
		send:     smtp.SendMail,
		pacing:   batchPacing,
		logger:   logger,
		metrics:  metrics,
	}
}

var alertBody = template.Must(template.New("alert").Parse(`
<html>
<body>
<h2>Agricultural Weather Alert</h2>
<p>Hello {{.Name}},</p>
<p><strong>{{.Type}}</strong> alert ({{.Severity}} severity) issued {{.IssuedAt}}:</p>
<p>{{.Description}}</p>
<p>Please review your crops and take appropriate precautions.</p>
<hr>
<p>AgriAlert Notification Service</p>
</body>
</html>
`))

type bodyData struct {
	Name        string
	Type        string
	Severity    string
	Description string
	IssuedAt    string
}

// NotifyAlert emails every linked user in batches, pacing sends so a burst
// of alerts does not trip provider rate limits. Users already emailed for
// this alert are skipped.
func (n *Notifier) NotifyAlert(ctx context.Context, alert store.Alert, users []store.User) {
	for start := 0; start < len(users); start += batchSize {
		end := start + batchSize
		if end > len(users) {
			end = len(users)
		}
		for i, user := range users[start:end] {
			if ctx.Err() != nil {
				n.logger.Warn("notification batch interrupted",
					"alert_id", alert.ID, "remaining", len(users)-(start+i))
				return
			}
			n.notifyOne(ctx, alert, user)
			if start+i < len(users)-1 && n.pacing > 0 {
				time.Sleep(n.pacing)
			}
		}
	}
}

func (n *Notifier) notifyOne(ctx context.Context, alert store.Alert, user store.User) {
	done, err := n.audit.AlreadyNotified(ctx, alert.ID, user.ID)
	if err != nil {
		n.logger.Error("checking notification history failed",
			"alert_id", alert.ID, "user_id", user.ID, "error", err)
		return
	}
	if done {
		return
	}

	sendErr := n.deliver(alert, user)

	logRow := &store.NotificationLog{
		ID:      uuid.NewString(),
		AlertID: alert.ID,
		UserID:  user.ID,
		Email:   user.Email,
		Status:  "sent",
		SentAt:  domain.Now(),
	}
	if sendErr != nil {
		logRow.Status = "failed"
		logRow.Error = sendErr.Error()
		n.metrics.NotificationsFailed.Inc()
		n.logger.Error("sending alert email failed",
			"alert_id", alert.ID, "user_id", user.ID, "email", user.Email, "error", sendErr)
	} else {
		n.metrics.NotificationsSent.Inc()
		n.logger.Info("alert email sent",
			"alert_id", alert.ID, "user_id", user.ID, "email", user.Email)
	}

	if err := n.audit.Record(ctx, logRow); err != nil {
		n.logger.Error("recording notification failed",
			"alert_id", alert.ID, "user_id", user.ID, "error", err)
	}
}

func (n *Notifier) deliver(alert store.Alert, user store.User) error {
	subject := fmt.Sprintf("[%s] %s alert for your area", strings.ToUpper(alert.Severity), alert.Type)

	var buf bytes.Buffer
	data := bodyData{
		Name:        user.Name,
		Type:        alert.Type,
		Severity:    alert.Severity,
		Description: alert.Description,
		IssuedAt:    alert.CreatedAt.Format("Jan 2, 2006 15:04 MST"),
	}
	if err := alertBody.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering email body: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", user.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", domain.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(buf.Bytes())

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}
	addr := fmt.Sprintf("%s:%s", n.host, n.port)
	if err := n.send(addr, auth, n.from, []string{user.Email}, msg.Bytes()); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
