package aws

import (
	"context"
	"fmt"
	"log"

	"vbs/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESSendEmail delivers a single plain-text email. The returned error lets
// the notifier report undelivered lifecycle mail instead of swallowing it.
func SESSendEmail(from, to, subject, body string) error {
	client := lib.AWSGetSESClient()
	if client == nil {
		return fmt.Errorf("ses client unavailable")
	}
	out, err := client.SendEmail(context.TODO(), &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		log.Printf("Error sending email to %s: %s\n", to, err.Error())
		return err
	}
	log.Printf("Sent email with id: %s\n", *out.MessageId)
	return nil
}
