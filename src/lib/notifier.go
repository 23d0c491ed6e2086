package lib

import (
	"encoding/json"
	"log"
	"os"
)

// LogNotifier is the development dispatcher: events go to the log and
// nowhere else.
type LogNotifier struct{}

func (n *LogNotifier) Notify(event string, payload map[string]any) error {
	b, _ := json.Marshal(payload)
	log.Printf("[notify] %s: %s\n", event, string(b))
	return nil
}

// MailNotifier delivers booking lifecycle events over SMTP. The recipient
// is expected in payload["email"]; events without one are logged and
// dropped.
type MailNotifier struct {
	From     string
	FromName string
}

func NewMailNotifier() *MailNotifier {
	return &MailNotifier{
		From:     os.Getenv("MAIL_FROM"),
		FromName: os.Getenv("MAIL_FROM_NAME"),
	}
}

func (n *MailNotifier) Notify(event string, payload map[string]any) error {
	email, ok := payload["email"].(string)
	if !ok || email == "" {
		log.Printf("[notify] %s: no recipient email in payload, skipping\n", event)
		return nil
	}
	subject, _ := payload["subject"].(string)
	if subject == "" {
		subject = event
	}
	body, _ := json.Marshal(payload)
	return SendMail(&SendMailInput{
		From:     n.From,
		FromName: n.FromName,
		To:       []string{email},
		Subject:  subject,
		Body:     string(body),
	})
}
