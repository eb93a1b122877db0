// Package smtp delivers transactional email over plain SMTP. Sends run on a
// worker pool and failures are logged, never returned: the flows that send
// mail must not fail because the mail server is down.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"
	"github.com/valyala/bytebufferpool"

	"github.com/peladahub/pelada-api/internal/platform/logging"
	"github.com/peladahub/pelada-api/internal/usecase"
)

const defaultWorkers = 4

type Config struct {
	Host            string
	Port            int
	Username        string
	Password        string
	From            string
	FrontendBaseURL string
	Workers         int
}

type Mailer struct {
	cfg    Config
	logger *logging.Logger
	sender *ants.Pool
}

func NewMailer(cfg Config, logger *logging.Logger) (*Mailer, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	sender, err := ants.NewPool(workers)
	if err != nil {
		return nil, crerr.Wrap(err, "create mail worker pool")
	}

	cfg.FrontendBaseURL = strings.TrimRight(cfg.FrontendBaseURL, "/")
	return &Mailer{cfg: cfg, logger: logger, sender: sender}, nil
}

func (m *Mailer) Close() {
	m.sender.Release()
}

func (m *Mailer) AccountConfirmation(ctx context.Context, email, name, token string) {
	link := fmt.Sprintf("%s/confirm-account?token=%s", m.cfg.FrontendBaseURL, token)
	body := "Olá!\n\n" +
		"Recebemos um pedido de criação de conta para este e-mail. " +
		"Confirme seu cadastro acessando o link a seguir:\n" +
		link + "\n\n" +
		"Se você não solicitou este cadastro, ignore esta mensagem."
	m.sendAsync(ctx, email, "Confirme sua conta", body)
}

func (m *Mailer) PasswordReset(ctx context.Context, email, name, token string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.cfg.FrontendBaseURL, token)
	body := "Olá!\n\n" +
		"Recebemos um pedido para redefinir sua senha. " +
		"Conclua o processo acessando o link:\n" +
		link + "\n\n" +
		"Se você não solicitou a redefinição, apenas ignore esta mensagem."
	m.sendAsync(ctx, email, "Redefinição de senha", body)
}

// Invitations fans one mail per invitee out on a bounded batch, then hands
// the batch to the worker pool so the HTTP request returns immediately.
func (m *Mailer) Invitations(ctx context.Context, mails []usecase.InvitationMail) {
	if len(mails) == 0 {
		return
	}

	batch := append([]usecase.InvitationMail(nil), mails...)
	m.submit(ctx, func() {
		p := pool.New().WithMaxGoroutines(defaultWorkers)
		for _, mail := range batch {
			mail := mail
			p.Go(func() {
				link := fmt.Sprintf("%s/register?token=%s", m.cfg.FrontendBaseURL, mail.Token)
				body := fmt.Sprintf("Olá, %s!\n\n", mail.Name) +
					fmt.Sprintf("Você foi convidado para participar do grupo %s. ", mail.GroupName) +
					"Complete seu cadastro acessando o link abaixo:\n" +
					link + "\n\n" +
					"Este link expira em breve.\n\n" +
					"Após concluir o cadastro, você poderá confirmar presença nas partidas e receber convocações.\n" +
					"Se não reconhece este convite, ignore esta mensagem."
				m.send(ctx, mail.Email, "Convite para a pelada", body)
			})
		}
		p.Wait()
	})
}

func (m *Mailer) sendAsync(ctx context.Context, to, subject, body string) {
	m.submit(ctx, func() {
		m.send(ctx, to, subject, body)
	})
}

func (m *Mailer) submit(ctx context.Context, task func()) {
	if err := m.sender.Submit(task); err != nil {
		m.logger.ErrorContext(ctx, "submit mail task", "error", err)
	}
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) {
	if m.cfg.Host == "" || m.cfg.From == "" {
		m.logger.WarnContext(ctx, "smtp not configured, skipping email", "to", to, "subject", subject)
		return
	}

	msg := bytebufferpool.Get()
	defer bytebufferpool.Put(msg)

	_, _ = msg.WriteString("From: " + m.cfg.From + "\r\n")
	_, _ = msg.WriteString("To: " + to + "\r\n")
	_, _ = msg.WriteString("Subject: " + subject + "\r\n")
	_, _ = msg.WriteString("MIME-Version: 1.0\r\n")
	_, _ = msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	_, _ = msg.WriteString("\r\n")
	_, _ = msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	start := time.Now()
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg.Bytes()); err != nil {
		m.logger.ErrorContext(ctx, "send email", "to", to, "subject", subject, "error", crerr.Wrap(err, "smtp send"))
		return
	}
	m.logger.InfoContext(ctx, "email sent", "to", to, "subject", subject, "duration_ms", time.Since(start).Milliseconds())
}
