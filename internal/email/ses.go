package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/stwalsh4118/hoadues/internal/config"
	"github.com/stwalsh4118/hoadues/internal/logger"
)

const charset = "UTF-8"

// sesAPI is the subset of the SES v2 client used for delivery.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers mail through Amazon SES.
type SESSender struct {
	client        sesAPI
	sender        string
	testRecipient string
	log           *logger.Logger
}

// NewSESSender builds an SES client from the email configuration.
// Static credentials are used when configured; otherwise the default AWS
// credential chain applies. Endpoint overrides target local SES emulators.
func NewSESSender(ctx context.Context, cfg config.EmailConfig, log *logger.Logger) (*SESSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newSESSender(client, cfg.SenderAddress, cfg.TestRecipient, log), nil
}

func newSESSender(client sesAPI, sender, testRecipient string, log *logger.Logger) *SESSender {
	return &SESSender{
		client:        client,
		sender:        sender,
		testRecipient: testRecipient,
		log:           log.WithComponent("email"),
	}
}

// Send submits the message and waits for SES to accept or reject it.
// When a test recipient is configured it replaces every real recipient.
func (s *SESSender) Send(ctx context.Context, msg Message) (Result, error) {
	recipients := msg.Recipients
	if s.testRecipient != "" {
		s.log.Debug("Redirecting message to test recipient", map[string]interface{}{
			"recipients":     recipients,
			"test_recipient": s.testRecipient,
		})
		recipients = []string{s.testRecipient}
	}
	if len(recipients) == 0 {
		return Result{Status: StatusFailed}, errors.New("message has no recipients")
	}

	sender := msg.Sender
	if sender == "" {
		sender = s.sender
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(sender),
		Destination: &types.Destination{
			ToAddresses: recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String(charset)},
				},
			},
		},
	})
	if err != nil {
		return Result{Status: StatusFailed}, fmt.Errorf("ses send failed: %w", err)
	}

	return Result{
		Status:    StatusSucceeded,
		MessageID: aws.ToString(out.MessageId),
	}, nil
}
