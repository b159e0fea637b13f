package alert

import (
	"fmt"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/zenithwms/zenith/internal/observability/logger"
)

// SMTPNotifier implementa Notifier via e-mail.
type SMTPNotifier struct {
	Host     string
	Port     int
	From     string
	To       string
	Username string
	Password string
}

// NewSMTPNotifier cria o notifier de e-mail.
func NewSMTPNotifier(host string, port int, from, to, user, pass string) *SMTPNotifier {
	return &SMTPNotifier{
		Host:     host,
		Port:     port,
		From:     from,
		To:       to,
		Username: user,
		Password: pass,
	}
}

const maxSubjectLen = 50

// NotifyError envia o alerta de forma assíncrona. O envio nunca bloqueia
// nem derruba a requisição que originou o erro.
func (n *SMTPNotifier) NotifyError(summary, detail string) {
	go func() {
		log := logger.L().With(logger.Component("alert.smtp"))

		subj := summary
		if len(subj) > maxSubjectLen {
			subj = subj[:maxSubjectLen]
		}

		m := mail.NewMessage()
		m.SetHeader("From", n.From)
		m.SetHeader("To", n.To)
		m.SetHeader("Subject", fmt.Sprintf("🚨 Alerta de Erro no WMS Zenith: %s", subj))
		m.SetBody("text/plain", fmt.Sprintf(
			"Um erro não tratado ocorreu no WMS Zenith em %s.\n\n%s\n\n%s",
			time.Now().Format("02/01/2006 15:04:05"), summary, detail,
		))

		d := mail.NewDialer(n.Host, n.Port, n.Username, n.Password)
		if err := d.DialAndSend(m); err != nil {
			log.Error("falha ao enviar alerta de erro", logger.Err(err))
			return
		}
		log.Info("alerta de erro enviado aos operadores")
	}()
}
