package reminders

import (
	"bytes"
	htmltemplate "html/template"
	"strconv"
	texttemplate "text/template"
	"time"

	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/models"
	"github.com/upadhyay07ritesh/LMS-GreenArcCommune-sub001/internal/notify"
)

const htmlBody = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2933">
<p>Hi {{.Name}},</p>
<p>Your live session <strong>{{.Title}}</strong> starts in {{.Lead}}, at {{.When}}.</p>
<p><a href="{{.JoinLink}}" style="background:#2f855a;color:#fff;padding:10px 18px;border-radius:4px;text-decoration:none">Join session</a></p>
<p style="font-size:12px;color:#7b8794">If the button does not work, open {{.JoinLink}}</p>
<p>{{.AppName}}</p>
</body></html>`

const textBody = `Hi {{.Name}},

Your live session "{{.Title}}" starts in {{.Lead}}, at {{.When}}.

Join here: {{.JoinLink}}

{{.AppName}}
`

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.New("reminder.html").Parse(htmlBody))
	textTmpl = texttemplate.Must(texttemplate.New("reminder.txt").Parse(textBody))
)

type messageData struct {
	Name     string
	Title    string
	Lead     string
	When     string
	JoinLink string
	AppName  string
}

func renderReminder(s *models.LiveSession, r models.Recipient, lead time.Duration, appName string) (notify.Message, error) {
	name := r.FullName
	if name == "" {
		name = "there"
	}
	data := messageData{
		Name:     name,
		Title:    s.Title,
		Lead:     leadText(lead),
		When:     s.ScheduledAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST"),
		JoinLink: s.JoinLink,
		AppName:  appName,
	}

	var html, text bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return notify.Message{}, err
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return notify.Message{}, err
	}
	return notify.Message{
		To:      r.Email,
		Name:    r.FullName,
		Subject: "Starting soon: " + s.Title,
		HTML:    html.String(),
		Text:    text.String(),
		Kind:    models.EmailTypeSessionReminder,
		Ref:     s.ID.String(),
	}, nil
}

func leadText(lead time.Duration) string {
	m := int(lead.Round(time.Minute) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return strconv.Itoa(m) + " minutes"
}
