package notifications

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"eventoensina-backend/internal/models"

	"github.com/rs/zerolog/log"
	gomail "gopkg.in/gomail.v2"
)

// Transport delivers a fully composed message. Fronted by an interface so
// tests can record messages instead of dialing SMTP.
type Transport interface {
	Send(m *gomail.Message) error
}

// SMTPTransport delivers messages through an SMTP dialer.
type SMTPTransport struct {
	Dialer *gomail.Dialer
}

func NewSMTPTransport(host string, port int, user, password string) *SMTPTransport {
	return &SMTPTransport{Dialer: gomail.NewDialer(host, port, user, password)}
}

func (t *SMTPTransport) Send(m *gomail.Message) error {
	return t.Dialer.DialAndSend(m)
}

// ComposeMessage builds the outgoing message for a job: plain body, optional
// HTML alternative, and attachments. Attachment files are read up front; an
// unreadable file is skipped so one broken path never sinks the whole
// message. Image attachments with a content id are embedded inline for cid:
// references in the HTML body.
func ComposeMessage(from string, job *models.EmailJob) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", job.ToEmail)
	m.SetHeader("Subject", job.Subject)
	m.SetBody("text/plain", job.TextBody)
	if job.HTMLBody != "" {
		m.AddAlternative("text/html", job.HTMLBody)
	}

	for _, att := range job.Attachments {
		data, err := os.ReadFile(att.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", att.Path).Msg("skipping unreadable attachment")
			continue
		}
		name := att.Name
		if name == "" {
			name = filepath.Base(att.Path)
		}
		ctype := att.MimeType
		if ctype == "" {
			ctype = mime.TypeByExtension(filepath.Ext(att.Path))
		}
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		copyFunc := func(data []byte) gomail.FileSetting {
			return gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			})
		}
		if att.CID != "" && strings.HasPrefix(ctype, "image/") {
			m.Embed(att.CID, copyFunc(data), gomail.SetHeader(map[string][]string{"Content-Type": {ctype}}))
		} else {
			m.Attach(name, copyFunc(data), gomail.SetHeader(map[string][]string{"Content-Type": {ctype}}))
		}
	}
	return m
}
