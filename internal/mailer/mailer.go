// Package mailer renders the digest email and delivers it over authenticated
// SMTP.
package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	mail "github.com/wneessen/go-mail"

	"KeywordDigest/internal/config"
	"KeywordDigest/internal/domain"
	"KeywordDigest/internal/ports"
)

// Mailer implements ports.Mailer over SMTP with mandatory STARTTLS.
type Mailer struct {
	cfg      config.SMTPConfig
	keyword  string
	timezone string
}

var _ ports.Mailer = (*Mailer)(nil)

// NewMailer wires SMTP settings plus the keyword/timezone shown in the
// digest header.
func NewMailer(cfg config.SMTPConfig, keyword, timezone string) *Mailer {
	return &Mailer{cfg: cfg, keyword: keyword, timezone: timezone}
}

// SendDigest builds the HTML digest and submits it to every recipient. An
// empty article list still produces a mail with a distinct "no new results"
// body.
func (m *Mailer) SendDigest(ctx context.Context, runAt time.Time, articles []domain.SummarizedArticle) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Sender); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(m.cfg.Recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(BuildSubject(runAt, m.keyword))
	msg.SetBodyString(mail.TypeTextHTML, BuildHTMLBody(runAt, m.timezone, m.keyword, articles))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.AppPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	return nil
}

// BuildSubject renders the digest subject line with the run date.
func BuildSubject(runAt time.Time, keyword string) string {
	return fmt.Sprintf("[Daily Digest] %s - %s", runAt.Format("2006-01-02"), keyword)
}

// BuildHTMLBody renders the full digest. Every externally-sourced string is
// escaped before it reaches the markup.
func BuildHTMLBody(runAt time.Time, timezone, keyword string, articles []domain.SummarizedArticle) string {
	var b strings.Builder

	b.WriteString("<h2>Daily Crawl Digest</h2>")
	b.WriteString(fmt.Sprintf("<p><b>Run time:</b> %s</p>", runAt.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("<p><b>Timezone:</b> %s</p>", html.EscapeString(timezone)))
	b.WriteString(fmt.Sprintf("<p><b>Core keyword:</b> %s</p>", html.EscapeString(keyword)))
	b.WriteString(fmt.Sprintf("<p><b>Total items:</b> %d</p><hr>", len(articles)))

	if len(articles) == 0 {
		b.WriteString("<p>오늘은 신규 결과가 없습니다. 중복 제거 또는 검색 결과 부족으로 판단됩니다.</p>")
		return b.String()
	}

	for i, article := range articles {
		writeArticle(&b, i+1, article)
	}

	return b.String()
}

func writeArticle(b *strings.Builder, index int, article domain.SummarizedArticle) {
	escapedURL := html.EscapeString(article.URL)

	b.WriteString(fmt.Sprintf("<h3>%d. %s</h3>", index, html.EscapeString(article.Title)))
	b.WriteString(fmt.Sprintf("<p><b>URL:</b> <a href='%s'>%s</a></p>", escapedURL, escapedURL))
	b.WriteString(fmt.Sprintf("<p><b>Relevance score:</b> %d</p>", article.Score))
	if article.PublishedAt != "" {
		b.WriteString(fmt.Sprintf("<p><b>Published:</b> %s</p>", html.EscapeString(article.PublishedAt)))
	}
	b.WriteString(fmt.Sprintf("<p>%s</p>", nl2br(article.Summary)))
	b.WriteString("<hr>")
}

func nl2br(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
