package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/aussiebroadwan/cliq/internal/invites/domain"
	"github.com/aussiebroadwan/cliq/pkg/slogx"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SendEmailAPI is the part of the SES client the notifier uses.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends notices through Amazon SES.
type SES struct {
	Client   SendEmailAPI
	From     string
	FromName string
	// BaseURL prefixes links in emails, e.g. https://cliq.example.com
	BaseURL string
}

// NewSES loads the default AWS credential chain for region.
func NewSES(ctx context.Context, region, from, fromName, baseURL string) (*SES, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("notify: load AWS config: %w", err)
	}
	return &SES{
		Client:   sesv2.NewFromConfig(cfg),
		From:     from,
		FromName: fromName,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

var approvalHTML = template.Must(template.New("approval").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi,</p>
	{{if .CliqName}}
	<p>{{.ChildFirstName}} {{.ChildLastName}} was invited by {{.InviterName}} to join <strong>{{.CliqName}}</strong> on Cliq.</p>
	{{else}}
	<p>{{.ChildFirstName}} {{.ChildLastName}} would like to create a Cliq account.</p>
	{{end}}
	<p>A parent or guardian has to approve before the account can be used.</p>
	<p><a href="{{.Link}}">Review the request</a></p>
	<p style="font-size: 12px; color: #666;">This link expires {{.Expires}}. If you don't know this child, ignore this email.</p>
</body>
</html>`))

var approvalText = texttemplate.Must(texttemplate.New("approval").Parse(`Hi,

{{if .CliqName}}{{.ChildFirstName}} {{.ChildLastName}} was invited by {{.InviterName}} to join {{.CliqName}} on Cliq.{{else}}{{.ChildFirstName}} {{.ChildLastName}} would like to create a Cliq account.{{end}}

A parent or guardian has to approve before the account can be used:
{{.Link}}

This link expires {{.Expires}}. If you don't know this child, ignore this email.
`))

type approvalView struct {
	domain.ApprovalNotice
	Link    string
	Expires string
}

func (s *SES) SendParentApproval(ctx context.Context, n domain.ApprovalNotice) error {
	view := approvalView{
		ApprovalNotice: n,
		Link:           s.BaseURL + "/parent-approval/respond?token=" + url.QueryEscape(n.Token),
		Expires:        n.ExpiresAt.UTC().Format(time.RFC1123),
	}

	var html, text bytes.Buffer
	if err := approvalHTML.Execute(&html, view); err != nil {
		return fmt.Errorf("notify: render approval: %w", err)
	}
	if err := approvalText.Execute(&text, view); err != nil {
		return fmt.Errorf("notify: render approval: %w", err)
	}

	subject := "Approve " + n.ChildFirstName + "'s Cliq account"
	if n.CliqName != "" {
		subject = "Approve " + n.ChildFirstName + " joining " + n.CliqName
	}

	if err := s.send(ctx, n.ParentEmail, subject, html.String(), text.String()); err != nil {
		return err
	}
	slogx.FromContext(ctx).Debug("parent approval email sent", slog.String("approval_id", n.ApprovalID))
	return nil
}

func (s *SES) SendVerificationCode(ctx context.Context, n domain.VerificationNotice) error {
	text := fmt.Sprintf("Your Cliq verification code is %s. It expires %s.\n", n.Code, n.ExpiresAt.UTC().Format(time.RFC1123))
	html := "<p>Your Cliq verification code is <strong>" + template.HTMLEscapeString(n.Code) + "</strong>.</p>"
	return s.send(ctx, n.Email, "Your Cliq verification code", html, text)
}

func (s *SES) send(ctx context.Context, to, subject, html, text string) error {
	from := s.From
	if s.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.FromName, s.From)
	}

	_, err := s.Client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(html),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(text),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: ses send: %w", err)
	}
	return nil
}
