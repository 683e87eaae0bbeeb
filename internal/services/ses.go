package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"

	"puppy-adoption-notifier/internal/models"
)

// SESAPI is the subset of the SES v2 client used by the notifier
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifier delivers a rendered report and returns the provider message id
type Notifier interface {
	Send(ctx context.Context, from string, to []string, report *models.RenderedReport) (string, error)
}

// SESNotifier sends reports through Amazon SES
type SESNotifier struct {
	client SESAPI
}

// NewSESNotifier creates a notifier using the default AWS configuration chain
func NewSESNotifier(ctx context.Context) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESNotifierWithClient(sesv2.NewFromConfig(cfg)), nil
}

// NewSESNotifierWithClient wraps an existing SES client
func NewSESNotifierWithClient(client SESAPI) *SESNotifier {
	return &SESNotifier{client: client}
}

// Send submits the report as a multipart (HTML + text) message. Provider
// rejections come back as *DeliveryError.
func (n *SESNotifier) Send(ctx context.Context, from string, to []string, report *models.RenderedReport) (string, error) {
	if report == nil {
		return "", &DeliveryError{Reason: "no report to send"}
	}
	if len(to) == 0 {
		return "", &DeliveryError{Reason: "no recipients"}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(report.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(report.HTML), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(report.Text), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	output, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return "", classifySendError(ctx, err)
	}

	return aws.ToString(output.MessageId), nil
}

// classifySendError turns an SES failure into a *DeliveryError, or an
// ErrTimeout-wrapped error when the invocation ran out of time
func classifySendError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return timeoutOr(ctx, fmt.Errorf("email send interrupted: %w", err))
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		reason := apiErr.ErrorMessage()
		if reason == "" {
			reason = apiErr.ErrorCode()
		}
		if hint := deliveryHint(apiErr.ErrorCode(), reason); hint != "" {
			reason = reason + " (" + hint + ")"
		}
		return &DeliveryError{Code: apiErr.ErrorCode(), Reason: reason, Err: err}
	}

	return &DeliveryError{Reason: err.Error(), Err: err}
}

func deliveryHint(code, message string) string {
	switch {
	case code == "MessageRejected" && strings.Contains(strings.ToLower(message), "not verified"):
		return "sandbox mode: sender and recipients must be verified identities"
	case code == "MailFromDomainNotVerifiedException":
		return "verify the sender domain in SES"
	case code == "SendingPausedException", code == "AccountSuspendedException":
		return "sending is disabled for this account"
	case code == "LimitExceededException", code == "TooManyRequestsException":
		return "sending quota exceeded"
	}
	return ""
}
