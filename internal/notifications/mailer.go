package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/studioveld/storefront-backend/pkg/config"
	"github.com/studioveld/storefront-backend/pkg/logger"
)

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer sends transactional email through Sendgrid. All sends are
// best-effort: callers log failures and move on.
type Mailer struct {
	client   sender
	from     string
	adminTo  string
	siteName string
	logger   *logger.Logger
}

// MailerParams groups dependencies for the mailer.
type MailerParams struct {
	Config   config.SendgridConfig
	AdminTo  string
	SiteName string
	Logger   *logger.Logger
}

// NewMailer builds a Sendgrid-backed mailer. A missing API key disables
// sending rather than failing startup.
func NewMailer(params MailerParams) (*Mailer, error) {
	if params.Config.APIKey != "" && params.Config.DefaultFrom == "" {
		return nil, errors.New("from address is required")
	}
	m := &Mailer{
		from:     params.Config.DefaultFrom,
		adminTo:  params.AdminTo,
		siteName: params.SiteName,
		logger:   params.Logger,
	}
	if params.Config.APIKey != "" {
		m.client = sendgrid.NewSendClient(params.Config.APIKey)
	}
	return m, nil
}

// NotifyRegistration emails the shop admin that a new account is waiting for
// approval. Errors are returned for the caller to log; they never block the
// registration itself.
func (m *Mailer) NotifyRegistration(ctx context.Context, customerEmail string) error {
	if m == nil || m.client == nil || m.adminTo == "" {
		return nil
	}

	subject := fmt.Sprintf("%s: new account pending approval", m.siteName)
	body := fmt.Sprintf("A new customer registered with %s and is waiting for approval.", customerEmail)

	message := mail.NewSingleEmail(
		mail.NewEmail(m.siteName, m.from),
		subject,
		mail.NewEmail("", m.adminTo),
		body,
		body,
	)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
