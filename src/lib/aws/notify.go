package aws

import (
	"encoding/json"
	"log"
	"os"
)

// SNSNotifier fans booking events out to an SNS topic for downstream
// consumers (admin console feeds, analytics).
type SNSNotifier struct {
	publisher *SNSPublisher
}

func NewSNSNotifier(topic string) *SNSNotifier {
	return &SNSNotifier{publisher: NewSNSPublisher(topic)}
}

func (n *SNSNotifier) Notify(event string, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = n.publisher.Publish(event, string(b))
	return err
}

// SESNotifier delivers lifecycle emails through SES instead of SMTP.
type SESNotifier struct {
	From string
}

func NewSESNotifier() *SESNotifier {
	return &SESNotifier{From: os.Getenv("MAIL_FROM")}
}

func (n *SESNotifier) Notify(event string, payload map[string]any) error {
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
	return SESSendEmail(n.From, email, subject, string(body))
}
