package notifications

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"eventoensina-backend/internal/models"
	"eventoensina-backend/internal/storage"
)

// QueueCertificateReady queues the "your certificate is available" email for
// one participant, attaching the PDF when it is reachable on storage.
func (s *Service) QueueCertificateReady(ctx context.Context, p *models.Participant, cert *models.Certificate, event *models.Event, certURL string) (*models.EmailJob, error) {
	if p == nil || p.Email == "" {
		return nil, nil
	}

	subject := "Seu certificado está disponível"
	eventTitle := ""
	if event != nil {
		eventTitle = event.Title
		subject += " - " + event.Title
	}

	firstName := firstName(p.FullName)
	text := fmt.Sprintf(
		"Olá %s,\n\nSeu certificado%s já está disponível.\n\nAcesse: %s\n\n— EventoEnsina",
		firstName, titleSuffix(eventTitle), certURL)

	content := fmt.Sprintf(`
    <h1>Seu certificado está pronto, %s!</h1>
    <p>O certificado%s já está disponível para download e verificação.</p>
    <center><a href="%s" class="ee-button">Ver certificado</a></center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">O documento em PDF também segue em anexo.</p>
`, html.EscapeString(firstName), titleSuffix(html.EscapeString(eventTitle)), certURL)

	var attachments []models.Attachment
	if storage.Exists(cert.PDFPath) {
		attachments = append(attachments, models.Attachment{
			Path:     cert.PDFPath,
			Name:     filepath.Base(cert.PDFPath),
			MimeType: "application/pdf",
		})
	}

	return s.Enqueue(ctx, EnqueueParams{
		To:          p.Email,
		Subject:     subject,
		TextBody:    text,
		HTMLBody:    EmailLayout(content),
		Attachments: attachments,
	})
}

// QueueWelcome queues the welcome/confirmation email for a new participant.
func (s *Service) QueueWelcome(ctx context.Context, p *models.Participant, confirmURL string) (*models.EmailJob, error) {
	if p == nil || p.Email == "" {
		return nil, nil
	}

	firstName := firstName(p.FullName)
	subject := fmt.Sprintf("Bem-vindo ao EventoEnsina, %s! Confirme seu cadastro", firstName)
	text := fmt.Sprintf(
		"Olá %s,\n\nSua conta foi criada. Confirme seu cadastro:\n\n%s\n\n— EventoEnsina",
		firstName, confirmURL)

	content := fmt.Sprintf(`
    <h1>Bem-vindo, %s!</h1>
    <p>Sua conta no <strong>EventoEnsina</strong> foi criada. Confirme seu cadastro para começar a participar dos eventos.</p>
    <center><a href="%s" class="ee-button">Confirmar cadastro</a></center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">Se você não criou esta conta, ignore este email.</p>
`, html.EscapeString(firstName), confirmURL)

	return s.Enqueue(ctx, EnqueueParams{
		To:       p.Email,
		Subject:  subject,
		TextBody: text,
		HTMLBody: EmailLayout(content),
	})
}

// QueuePasswordRecovery sends the access-recovery email synchronously so the
// requesting flow learns about transport failures immediately.
func (s *Service) QueuePasswordRecovery(ctx context.Context, p *models.Participant, loginURL string) error {
	if p == nil || p.Email == "" || loginURL == "" {
		return nil
	}

	firstName := firstName(p.FullName)
	text := fmt.Sprintf(
		"Olá %s,\n\nUse o link abaixo para recuperar o acesso à sua conta:\n\n%s\n\n— EventoEnsina",
		firstName, loginURL)

	content := fmt.Sprintf(`
    <h1>Recuperação de acesso</h1>
    <p>Olá %s, recebemos um pedido de recuperação de acesso para a sua conta.</p>
    <center><a href="%s" class="ee-button">Acessar minha conta</a></center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">Se você não fez este pedido, ignore este email.</p>
`, html.EscapeString(firstName), loginURL)

	_, err := s.Enqueue(ctx, EnqueueParams{
		To:       p.Email,
		Subject:  "Recuperação de acesso — EventoEnsina",
		TextBody: text,
		HTMLBody: EmailLayout(content),
		SendNow:  true,
	})
	return err
}

func firstName(full string) string {
	if full == "" {
		return "participante"
	}
	return strings.Fields(full)[0]
}

func titleSuffix(title string) string {
	if title == "" {
		return ""
	}
	return " do evento " + title
}
