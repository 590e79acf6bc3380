package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rotisserie/eris"
)

// SESAPI is the subset of the SES v2 client used to send mail.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Email sends failure notifications as plain text mail.
type Email struct {
	api  SESAPI
	from string
	to   []string
}

// NewEmail creates an Email notifier.
func NewEmail(api SESAPI, from string, to []string) *Email {
	return &Email{api: api, from: from, to: to}
}

// Notify implements Notifier.
func (e *Email) Notify(ctx context.Context, f Failure) error {
	_, err := e.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.from),
		Destination:      &types.Destination{ToAddresses: e.to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(emailBody(f)), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return eris.Wrap(err, "notify: send email")
	}
	return nil
}

func emailBody(f Failure) string {
	return fmt.Sprintf("Time:    %s\nRequest: %s\nRoute:   %s %s\nError:   %s\n",
		f.Timestamp.Format(time.RFC3339), f.RequestID, f.Method, f.Route, f.Error)
}
