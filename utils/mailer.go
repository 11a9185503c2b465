package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

// Mailer is the outbound email dependency injected into controllers and the
// autoresponder worker. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends mail over a plain SMTP connection using gomail.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

// NewSMTPMailer builds a mailer from SMTP credentials.
func NewSMTPMailer(host string, port int, username, password, fromName, fromEmail string) *SMTPMailer {
	dialer := gomail.NewDialer(host, port, username, password)
	dialer.SSL = port == 465

	return &SMTPMailer{
		dialer:    dialer,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email to %s: %v", to, err)
	}
	return nil
}

// TemplateData is passed to every email template.
type TemplateData struct {
	Subject string
	Email   string
	Year    int
	Data    interface{}
}

// Embedded email templates, keyed by the template references used in the
// sequence registry and the sales notification path.
var emailTemplates = map[string]string{
	"nurture_welcome": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Welcome aboard</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>Thanks for subscribing. Over the next two weeks we'll send you a short series
        covering everything you need to know about the Singapore property market —
        buying guides, financing rules, and the launches worth watching.</p>
        <p>No spam, and you can unsubscribe with one click at any time.</p>
    </div>

    <div class="footer">
        <p>© {{.Year}} PropertyPulse. All rights reserved.</p>
        <p><a href="https://propertypulse.sg/unsubscribe?email={{.Email}}">Unsubscribe</a></p>
    </div>
</body>
</html>`,

	"nurture_buying_guide": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Buying property in Singapore, step by step</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>From Option to Purchase to key collection, here's the full timeline of a
        Singapore property purchase — including stamp duties, the cooling measures
        that may apply to you, and the paperwork at each stage.</p>
        <p><a href="https://propertypulse.sg/guides/buying">Read the full guide</a></p>
    </div>

    <div class="footer">
        <p>© {{.Year}} PropertyPulse. All rights reserved.</p>
        <p><a href="https://propertypulse.sg/unsubscribe?email={{.Email}}">Unsubscribe</a></p>
    </div>
</body>
</html>`,

	"nurture_financing": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>TDSR, LTV and your real budget</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>The Total Debt Servicing Ratio caps your monthly repayments at 55% of gross
        income, and loan-to-value limits decide your minimum downpayment. We break
        down what that means in dollars for each budget band.</p>
        <p><a href="https://propertypulse.sg/guides/financing">See the numbers</a></p>
    </div>

    <div class="footer">
        <p>© {{.Year}} PropertyPulse. All rights reserved.</p>
        <p><a href="https://propertypulse.sg/unsubscribe?email={{.Email}}">Unsubscribe</a></p>
    </div>
</body>
</html>`,

	"nurture_new_launches": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>New launches worth a look</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>Our editors round up this month's launches — indicative pricing, unit mix
        and our honest take on each development.</p>
        <p><a href="https://propertypulse.sg/new-launches">Browse the launches</a></p>
    </div>

    <div class="footer">
        <p>© {{.Year}} PropertyPulse. All rights reserved.</p>
        <p><a href="https://propertypulse.sg/unsubscribe?email={{.Email}}">Unsubscribe</a></p>
    </div>
</body>
</html>`,

	"nurture_valuation": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>What's your home worth today?</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>Recent transactions in your district are the best guide to a realistic asking
        price. Request a free valuation and we'll send you the comparables.</p>
        <p><a href="https://propertypulse.sg/valuation">Request a valuation</a></p>
    </div>

    <div class="footer">
        <p>© {{.Year}} PropertyPulse. All rights reserved.</p>
        <p><a href="https://propertypulse.sg/unsubscribe?email={{.Email}}">Unsubscribe</a></p>
    </div>
</body>
</html>`,

	"nurture_consult": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .button { display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Book a free consultation</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>If you'd like a second pair of eyes on your shortlist — or just a sense of
        where the market is heading — our consultants are happy to help, no strings
        attached.</p>
        <p style="text-align: center;">
            <a href="https://propertypulse.sg/consult" class="button">Pick a time</a>
        </p>
    </div>

    <div class="footer">
        <p>© {{.Year}} PropertyPulse. All rights reserved.</p>
        <p><a href="https://propertypulse.sg/unsubscribe?email={{.Email}}">Unsubscribe</a></p>
    </div>
</body>
</html>`,

	"lead_notification": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .score { font-size: 24px; font-weight: bold; color: #e74c3c; }
        table { border-collapse: collapse; width: 100%; }
        td { border: 1px solid #eee; padding: 8px; }
    </style>
</head>
<body>
    <div class="header">
        <h2>{{.Data.Category}} lead: {{.Data.Name}}</h2>
    </div>

    <p>Total score: <span class="score">{{.Data.Total}}</span></p>

    <table>
        <tr><td>Email</td><td>{{.Data.Email}}</td></tr>
        <tr><td>Phone</td><td>{{.Data.Phone}}</td></tr>
        <tr><td>Journey stage</td><td>{{.Data.JourneyStage}} ({{.Data.JourneyScore}} pts)</td></tr>
        <tr><td>Budget</td><td>{{.Data.Budget}} ({{.Data.BudgetScore}} pts)</td></tr>
        <tr><td>Financing</td><td>{{.Data.FinancingStatus}} ({{.Data.FinancingScore}} pts)</td></tr>
        <tr><td>Timeline</td><td>{{.Data.Timeline}} ({{.Data.TimelineScore}} pts)</td></tr>
    </table>
</body>
</html>`,
}

// RenderEmailTemplate renders one of the embedded templates with the given
// data. Unknown template references are an error so callers can skip the step
// and move on.
func RenderEmailTemplate(name, subject, email string, data interface{}) (string, error) {
	tmplContent, ok := emailTemplates[name]
	if !ok {
		return "", fmt.Errorf("template '%s' not found", name)
	}

	tmpl, err := template.New(name).Parse(tmplContent)
	if err != nil {
		return "", fmt.Errorf("error parsing template '%s': %v", name, err)
	}

	var body bytes.Buffer
	err = tmpl.Execute(&body, TemplateData{
		Subject: subject,
		Email:   email,
		Year:    time.Now().Year(),
		Data:    data,
	})
	if err != nil {
		return "", fmt.Errorf("error executing template '%s': %v", name, err)
	}
	return body.String(), nil
}
