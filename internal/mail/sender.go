package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"

	"crewdesk/config"
	"crewdesk/internal/logger"
	"crewdesk/internal/metrics"
	"crewdesk/internal/models"

	"go.uber.org/zap"
)

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a transient outbound email; it is constructed, sent, discarded.
type Message struct {
	From        string
	To          []string
	CC          []string
	BCC         []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Stats are cumulative for the process lifetime and reset on restart.
type Stats struct {
	Sent      uint64 `json:"sent"`
	Failed    uint64 `json:"failed"`
	Queued    uint64 `json:"queued"`
	Delivered uint64 `json:"delivered"`
	LastError string `json:"last_error,omitempty"`
}

// Sender is the single outbound email component: one transport, one template
// registry, one set of counters.
type Sender struct {
	cfg       *config.MailConfig
	transport Transport
	connected bool

	mu        sync.Mutex
	stats     Stats
	queue     []Message
	templates map[string]models.EmailTemplate
}

// NewSender probes the transport once at startup. If the handshake fails the
// sender keeps running on a no-op transport: sends return false instead of
// blocking on a dead relay.
func NewSender(cfg *config.MailConfig) *Sender {
	t := NewSMTPTransport(cfg)
	connected := true
	if err := t.Verify(); err != nil {
		logger.L().Warn("mail transport handshake failed, sends will be dropped",
			zap.String("host", cfg.Host), zap.Error(err))
		t = noopTransport{}
		connected = false
	}
	return newSender(cfg, t, connected)
}

// NewSenderWithTransport injects a transport directly; used by tests and by
// deployments with a custom relay client.
func NewSenderWithTransport(cfg *config.MailConfig, t Transport, connected bool) *Sender {
	return newSender(cfg, t, connected)
}

func newSender(cfg *config.MailConfig, t Transport, connected bool) *Sender {
	s := &Sender{
		cfg:       cfg,
		transport: t,
		connected: connected,
		templates: make(map[string]models.EmailTemplate),
	}
	for _, tmpl := range DefaultTemplates() {
		s.templates[tmpl.Name] = tmpl
	}
	return s
}

func (s *Sender) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// TestConnection performs a transport handshake without sending mail.
func (s *Sender) TestConnection() bool {
	ok := s.transport.Verify() == nil
	s.mu.Lock()
	s.connected = ok
	s.mu.Unlock()
	return ok
}

// SendEmail transmits the message. It never returns an error: transport
// failures become a false return and a failed counter.
func (s *Sender) SendEmail(msg Message) bool {
	if msg.From == "" {
		msg.From = s.fromHeader()
	}
	raw, err := buildMIME(msg)
	if err == nil {
		err = s.transport.Send(s.cfg.FromAddress, allRecipients(msg), raw)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.stats.Failed++
		s.stats.LastError = err.Error()
		metrics.EmailsFailed.Inc()
		logger.L().Error("email send failed",
			zap.Strings("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		return false
	}
	s.stats.Sent++
	s.stats.Delivered++
	metrics.EmailsSent.Inc()
	logger.L().Info("email sent",
		zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return true
}

// QueueEmail holds the message for a later manual drain.
func (s *Sender) QueueEmail(msg Message) {
	s.mu.Lock()
	s.queue = append(s.queue, msg)
	s.stats.Queued++
	s.mu.Unlock()
}

// DrainQueue sends everything queued so far and reports how many succeeded.
func (s *Sender) DrainQueue() (sent, failed int) {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, msg := range pending {
		if s.SendEmail(msg) {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed
}

func (s *Sender) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Sender) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// RegisterTemplate adds or replaces a template in the registry.
func (s *Sender) RegisterTemplate(t models.EmailTemplate) {
	s.mu.Lock()
	s.templates[t.Name] = t
	s.mu.Unlock()
}

func (s *Sender) RemoveTemplate(name string) {
	s.mu.Lock()
	delete(s.templates, name)
	s.mu.Unlock()
}

func (s *Sender) TemplateNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	return names
}

// SendTemplateEmail renders a registered template and sends it. Placeholders
// with no matching variable stay verbatim in the output.
func (s *Sender) SendTemplateEmail(name string, to []string, vars map[string]string) bool {
	s.mu.Lock()
	tmpl, ok := s.templates[name]
	s.mu.Unlock()
	if !ok {
		logger.L().Warn("unknown email template", zap.String("template", name))
		return false
	}
	subject, body := RenderTemplate(&tmpl, vars)
	return s.SendEmail(Message{
		To:      to,
		Subject: subject,
		HTML:    body,
	})
}

func (s *Sender) SendWelcomeEmail(to, userName string) bool {
	return s.SendTemplateEmail("welcome", []string{to}, map[string]string{
		"userName": userName,
		"loginUrl": s.cfg.AppBaseURL + "/login",
	})
}

func (s *Sender) SendPasswordResetEmail(to, userName, resetToken string) bool {
	return s.SendTemplateEmail("password_reset", []string{to}, map[string]string{
		"userName": userName,
		"resetUrl": s.cfg.AppBaseURL + "/reset-password?token=" + resetToken,
	})
}

func (s *Sender) SendTaskAssignmentEmail(to, userName, taskTitle, projectName, dueDate string, taskID uint) bool {
	return s.SendTemplateEmail("task_assignment", []string{to}, map[string]string{
		"userName":    userName,
		"taskTitle":   taskTitle,
		"projectName": projectName,
		"dueDate":     dueDate,
		"taskUrl":     fmt.Sprintf("%s/tasks/%d", s.cfg.AppBaseURL, taskID),
	})
}

func (s *Sender) SendTeamInvitationEmail(to, inviterName, projectName, inviteToken string) bool {
	return s.SendTemplateEmail("team_invitation", []string{to}, map[string]string{
		"inviterName": inviterName,
		"projectName": projectName,
		"inviteUrl":   s.cfg.AppBaseURL + "/invitations/" + inviteToken,
	})
}

func (s *Sender) fromHeader() string {
	name := s.cfg.FromName
	if name == "" {
		name = "CrewDesk"
	}
	return fmt.Sprintf("%s <%s>", name, s.cfg.FromAddress)
}

func allRecipients(msg Message) []string {
	out := make([]string, 0, len(msg.To)+len(msg.CC)+len(msg.BCC))
	out = append(out, msg.To...)
	out = append(out, msg.CC...)
	out = append(out, msg.BCC...)
	return out
}

// buildMIME assembles the wire form of the message. Plain messages get a
// single part; attachments switch to multipart/mixed.
func buildMIME(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	contentType, body := "text/html; charset=UTF-8", msg.HTML
	if body == "" {
		contentType, body = "text/plain; charset=UTF-8", msg.Text
	}

	if len(msg.Attachments) == 0 {
		fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n", contentType)
		buf.WriteString(body)
		return buf.Bytes(), nil
	}

	w := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", w.Boundary())
	part, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {contentType}})
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return nil, err
	}
	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr := textproto.MIMEHeader{
			"Content-Type":              {ct},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.Filename)},
		}
		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, err
		}
		enc := base64.StdEncoding.EncodeToString(a.Content)
		if _, err := part.Write([]byte(enc)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
