package mailer

import (
	"errors"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

var ErrUnknownMailType = errors.New("unknown mail type")

type kind struct {
	template string
	subject  string
}

var kinds = map[string]kind{
	domain.MailTypeCreateWorker:  {template: "create_worker.html", subject: "Showbase - Your account"},
	domain.MailTypeResetPassword: {template: "reset_password.html", subject: "Showbase - Reset your password"},
	domain.MailTypeCrewOffer:     {template: "crew_offer.html", subject: "Showbase - New crew offer"},
}

// Builder turns queued mail messages into ready to send go-mail messages.
type Builder struct {
	from      string
	templates map[string]*template.Template
}

// NewBuilder parses every known template from dir up front.
func NewBuilder(from, dir string) (*Builder, error) {
	b := &Builder{
		from:      from,
		templates: make(map[string]*template.Template, len(kinds)),
	}

	for mailType, k := range kinds {
		tmpl, err := template.ParseFiles(filepath.Join(dir, k.template))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", k.template, err)
		}
		b.templates[mailType] = tmpl
	}

	return b, nil
}

func (b *Builder) Build(message *domain.MailMessage) (*mail.Msg, error) {
	k, ok := kinds[message.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMailType, message.Type)
	}

	msg := mail.NewMsg()
	if err := msg.From(b.from); err != nil {
		return nil, err
	}
	if err := msg.To(message.To); err != nil {
		return nil, err
	}
	msg.Subject(k.subject)

	if err := msg.SetBodyHTMLTemplate(b.templates[message.Type], message.Data); err != nil {
		return nil, err
	}

	return msg, nil
}
