package aws

import (
	"context"
	"log"

	"vbs/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SNSPublisher struct {
	Name  string
	inner *sns.Client
}

func NewSNSPublisher(topic string) *SNSPublisher {
	inner := lib.AWSGetSNSClient()
	new := SNSPublisher{
		Name:  topic,
		inner: inner,
	}
	return &new
}

func (s *SNSPublisher) Publish(subject, message string) (*string, error) {
	topicArn := lib.GetTopicArn(s.Name)
	output, err := s.inner.Publish(context.TODO(), &sns.PublishInput{
		TopicArn: aws.String(topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		log.Printf("Error publishing to topic [%s]: %s\n", s.Name, err.Error())
		return nil, err
	}
	return output.MessageId, nil
}
