package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fichaje.balance/internal/core/hours"
	"fichaje.balance/pkg/telemetry"
)

// MonthSummary is the content of a monthly balance e-mail.
type MonthSummary struct {
	EmployeeName     string
	Year             int
	Month            time.Month
	ActualHours      float64
	TheoreticalHours float64
	BalanceHours     float64
}

type EmailService interface {
	SendMonthSummary(ctx context.Context, to string, summary MonthSummary) error
}

// SESClient is the subset of the SES client used to send mail.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

var monthNames = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
	"agosto", "septiembre", "octubre", "noviembre", "diciembre"}

func monthName(m time.Month) string {
	if m < time.January || m > time.December {
		return fmt.Sprintf("mes %d", int(m))
	}
	return monthNames[m-1]
}

// Subject renders the e-mail subject line.
func (m MonthSummary) Subject() string {
	return fmt.Sprintf("Resumen de horas de %s %d", monthName(m.Month), m.Year)
}

// Body renders the plain text body of the e-mail.
func (m MonthSummary) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\n\n", m.EmployeeName)
	fmt.Fprintf(&b, "Este es tu resumen de %s %d:\n\n", monthName(m.Month), m.Year)
	fmt.Fprintf(&b, "  Horas trabajadas: %s\n", hours.FormatHours(m.ActualHours))
	fmt.Fprintf(&b, "  Horas teóricas:   %s\n", hours.FormatHours(m.TheoreticalHours))
	fmt.Fprintf(&b, "  Saldo:            %s\n", hours.FormatBalance(m.BalanceHours))
	return b.String()
}

func (s *SESEmailService) SendMonthSummary(ctx context.Context, to string, summary MonthSummary) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != "" {
		span.SetAttributes(attribute.String("app.employeeId", empID))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(summary.Subject()),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(summary.Body()),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
