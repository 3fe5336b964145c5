package mailer

import (
	"bytes"
	"html/template"
	"net/url"
)

var (
	verificationTmpl = template.Must(template.New("verify").Parse(
		`<p>Hello {{.Name}},</p>
<p>Thanks for signing up with Shop2Host. Please confirm your email address by clicking the link below:</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>If you did not create an account, you can ignore this message.</p>`))

	ticketReplyTmpl = template.Must(template.New("reply").Parse(
		`<p>Our support team replied to your ticket <strong>{{.Subject}}</strong>:</p>
<blockquote>{{.Message}}</blockquote>
<p>You can view the conversation on your <a href="{{.Link}}">support page</a>.</p>`))
)

const (
	VerificationSubject = "Email Verification - Shop2Host"
	TicketReplySubject  = "Re: %s - Shop2Host Support"
)

// VerificationLink is the callback a new user follows to confirm ownership
// of their address.
func VerificationLink(baseURL, email, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return baseURL + "/verify-email?" + q.Encode()
}

func VerificationBody(name, link string) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, map[string]string{"Name": name, "Link": link})
	return buf.String(), err
}

func TicketReplyBody(subject, message, link string) (string, error) {
	var buf bytes.Buffer
	err := ticketReplyTmpl.Execute(&buf, map[string]string{"Subject": subject, "Message": message, "Link": link})
	return buf.String(), err
}
