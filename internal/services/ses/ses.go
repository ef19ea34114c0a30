// Package ses provides email notification services via AWS SES
package ses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	appConfig "loan-underwriting-engine/internal/config"
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/utils"
)

// ErrSenderNotConfigured is returned when SES_SENDER_EMAIL is empty.
var ErrSenderNotConfigured = errors.New("SES sender email not configured")

// EmailAPI is the subset of the SES client the service uses.
type EmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Service handles SES email operations
type Service struct {
	client    EmailAPI
	fromEmail string
	logger    *zap.Logger
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service
func NewService(ctx context.Context, cfg *appConfig.Config) (*Service, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewServiceWithClient(ses.NewFromConfig(awsCfg), cfg.SESSenderEmail), nil
}

// NewServiceWithClient wraps an existing client.
func NewServiceWithClient(client EmailAPI, fromEmail string) *Service {
	return &Service{client: client, fromEmail: fromEmail, logger: utils.GetLogger()}
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	if s.fromEmail == "" {
		return nil, ErrSenderNotConfigured
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	messageID := aws.ToString(result.MessageId)
	s.logger.Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", messageID),
	)

	return &SendEmailResult{
		MessageID: messageID,
		SentAt:    time.Now(),
	}, nil
}

// SendDecisionSummary emails the outcome of an evaluation to the applicant.
func (s *Service) SendDecisionSummary(ctx context.Context, to string, ev *models.Evaluation) (*SendEmailResult, error) {
	htmlBody, err := RenderDecisionHTML(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       to,
		Subject:  DecisionSubject(ev),
		HTMLBody: htmlBody,
		TextBody: RenderDecisionText(ev),
	})
}

// DecisionSubject returns the email subject for an evaluation.
func DecisionSubject(ev *models.Evaluation) string {
	if ev.Decision.Approved {
		return fmt.Sprintf("Your %s application has been approved", productName(ev.ProductLine))
	}
	return fmt.Sprintf("An update on your %s application", productName(ev.ProductLine))
}

func productName(p models.ProductLine) string {
	return strings.ReplaceAll(string(p), "-", " ")
}

const decisionTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { padding: 24px; border-radius: 10px 10px 0 0; color: white; text-align: center; }
        .approved { background: #28a745; }
        .rejected { background: #6c757d; }
        .content { background: #f9f9f9; padding: 24px; border-radius: 0 0 10px 10px; }
        .figure { display: flex; justify-content: space-between; border-bottom: 1px solid #eee; padding: 6px 0; }
        .footer { text-align: center; margin-top: 24px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header {{.Decision.Status}}">
        <h1>{{if .Decision.Approved}}Approved{{else}}Not approved{{end}}</h1>
        <p>Reference {{.ID}}</p>
    </div>
    <div class="content">
        <div class="figure"><span>Monthly payment</span><strong>{{printf "%.0f" .Amortization.MonthlyPayment}}</strong></div>
        <div class="figure"><span>Total interest</span><strong>{{printf "%.0f" .Amortization.TotalInterest}}</strong></div>
        <div class="figure"><span>Debt-to-income</span><strong>{{printf "%.1f" .DTI}}%</strong></div>
        {{if .LTV}}<div class="figure"><span>Loan-to-value</span><strong>{{printf "%.1f" (deref .LTV)}}%</strong></div>{{end}}

        {{if .Decision.RejectionReasons}}
        <h3>Why</h3>
        <ul>{{range .Decision.RejectionReasons}}<li>{{.}}</li>{{end}}</ul>
        {{end}}

        {{if .Decision.ApprovalConditions}}
        <h3>Conditions</h3>
        <ul>{{range .Decision.ApprovalConditions}}<li>{{.}}</li>{{end}}</ul>
        {{end}}

        {{if .Decision.RecommendedLenders}}
        <h3>Recommended lenders</h3>
        <ul>{{range .Decision.RecommendedLenders}}<li>{{.Name}}: {{printf "%.2f" .Rate}}%, {{printf "%.0f" .MonthlyPayment}} per month</li>{{end}}</ul>
        {{end}}
    </div>
    <div class="footer">
        <p>This email was sent by Loan Underwriting Engine</p>
    </div>
</body>
</html>`

var decisionTmpl = template.Must(template.New("decision").Funcs(template.FuncMap{
	"deref": func(v *float64) float64 { return *v },
}).Parse(decisionTemplate))

// RenderDecisionHTML renders the HTML email body.
func RenderDecisionHTML(ev *models.Evaluation) (string, error) {
	var buf bytes.Buffer
	if err := decisionTmpl.Execute(&buf, ev); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderDecisionText renders the plain text version.
func RenderDecisionText(ev *models.Evaluation) string {
	var buf bytes.Buffer

	if ev.Decision.Approved {
		buf.WriteString(fmt.Sprintf("Your %s application has been approved.\n\n", productName(ev.ProductLine)))
	} else {
		buf.WriteString(fmt.Sprintf("Your %s application was not approved.\n\n", productName(ev.ProductLine)))
	}
	buf.WriteString(fmt.Sprintf("Reference: %s\n", ev.ID))
	buf.WriteString(fmt.Sprintf("Monthly payment: %s\n", utils.FormatAmount(ev.Amortization.MonthlyPayment)))
	buf.WriteString(fmt.Sprintf("Debt-to-income: %s%%\n\n", utils.FormatPercent(ev.DTI)))

	for _, reason := range ev.Decision.RejectionReasons {
		buf.WriteString(fmt.Sprintf("- %s\n", reason))
	}
	for _, cond := range ev.Decision.ApprovalConditions {
		buf.WriteString(fmt.Sprintf("Condition: %s\n", cond))
	}
	for i, offer := range ev.Decision.RecommendedLenders {
		buf.WriteString(fmt.Sprintf("%d. %s at %.2f%%, %s per month\n",
			i+1, offer.Name, offer.Rate, utils.FormatAmount(offer.MonthlyPayment)))
	}

	buf.WriteString("\nBest regards,\nLoan Underwriting Engine Team\n")
	return buf.String()
}
