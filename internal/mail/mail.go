// Package mail delivers contact form messages over SMTP or Amazon SES.
package mail

import (
	"context"
	"fmt"
	"log"
	"mime"
	"net/smtp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/pkg/errors"

	"github.com/kydev/portfolio/internal/config"
)

// ErrNotConfigured is returned by senders missing credentials.
var ErrNotConfigured = errors.New("mail not configured")

// Message is a contact form submission.
type Message struct {
	Name   string
	Email  string
	Body   string
	Locale string
}

// Mailer sends contact messages to the site owner.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Enabled() bool
}

// New builds the mailer selected by cfg.Provider.
func New(ctx context.Context, cfg config.MailConfig, debug bool) (Mailer, error) {
	switch cfg.Provider {
	case config.MailNone, "":
		log.Println("mail: delivery disabled, contact messages will be logged and dropped")
		return Disabled{}, nil
	case config.MailSMTP:
		return NewSMTP(cfg), nil
	case config.MailSES:
		return NewSES(ctx, cfg, debug)
	}
	return nil, errors.Errorf("unknown mail provider %q", cfg.Provider)
}

func subject(msg Message) string {
	return "Portfolio Contact: " + headerSafe(msg.Name)
}

// encodedSubject is subject as an RFC 2047 header value; ASCII passes through.
func encodedSubject(msg Message) string {
	return mime.QEncoding.Encode("utf-8", subject(msg))
}

func textBody(msg Message) string {
	return fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Language: %s
Message:
%s

---
Sent from your portfolio contact form
`, headerSafe(msg.Name), headerSafe(msg.Email), msg.Locale, msg.Body)
}

// headerSafe strips line breaks so user input cannot add headers.
func headerSafe(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// Disabled drops every message after logging it.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Send(_ context.Context, msg Message) error {
	log.Printf("mail: skipping send (delivery disabled): message from %s", headerSafe(msg.Email))
	return nil
}

// SMTP sends through an authenticated SMTP relay.
type SMTP struct {
	host, port string
	user, pass string
	from, to   string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg config.MailConfig) *SMTP {
	from := cfg.From
	if from == "" {
		from = cfg.SMTP.User
	}
	return &SMTP{
		host: cfg.SMTP.Host,
		port: cfg.SMTP.Port,
		user: cfg.SMTP.User,
		pass: cfg.SMTP.Password,
		from: from,
		to:   cfg.To,
		send: smtp.SendMail,
	}
}

func (s *SMTP) Enabled() bool { return true }

func (s *SMTP) Send(_ context.Context, msg Message) error {
	if s.user == "" || s.pass == "" {
		return errors.Wrap(ErrNotConfigured, "SMTP credentials")
	}
	raw := []byte("To: " + s.to + "\r\n" +
		"Subject: " + encodedSubject(msg) + "\r\n" +
		"From: " + s.from + "\r\n" +
		"Reply-To: " + headerSafe(msg.Email) + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		textBody(msg) + "\r\n")

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	if err := s.send(s.host+":"+s.port, auth, s.from, []string{s.to}, raw); err != nil {
		return errors.Wrap(err, "sending via SMTP")
	}
	log.Printf("mail: sent contact message from %s via SMTP", headerSafe(msg.Email))
	return nil
}

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends through Amazon SES v2.
type SES struct {
	client   sesAPI
	from, to string
	debug    bool
}

// NewSES loads the default AWS credential chain for cfg.SES.Region.
func NewSES(ctx context.Context, cfg config.MailConfig, debug bool) (*SES, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SES.Region))
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	if debug {
		log.Printf("[DEBUG] mail: SES client for region %s, from=%s", cfg.SES.Region, cfg.From)
	}
	return &SES{client: sesv2.NewFromConfig(awsCfg), from: cfg.From, to: cfg.To, debug: debug}, nil
}

func (s *SES) Enabled() bool { return true }

func (s *SES) Send(ctx context.Context, msg Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{s.to},
		},
		ReplyToAddresses: []string{headerSafe(msg.Email)},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject(msg)),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(textBody(msg)),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return errors.Wrap(err, "sending via SES")
	}
	if s.debug && out.MessageId != nil {
		log.Printf("[DEBUG] mail: SES message id %s", *out.MessageId)
	}
	log.Printf("mail: sent contact message from %s via SES", headerSafe(msg.Email))
	return nil
}
