package handler

import (
	"net/http"

	"crewdesk/internal/mail"
	"crewdesk/internal/models"
	"crewdesk/internal/repository"
	"crewdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	sender       *mail.Sender
	templateRepo *repository.TemplateRepository
	queue        *service.DeliveryQueue
}

func NewEmailHandler(sender *mail.Sender, templateRepo *repository.TemplateRepository, queue *service.DeliveryQueue) *EmailHandler {
	return &EmailHandler{sender: sender, templateRepo: templateRepo, queue: queue}
}

type SendEmailRequest struct {
	To      []string `json:"to" binding:"required,min=1,dive,email"`
	CC      []string `json:"cc" binding:"omitempty,dive,email"`
	BCC     []string `json:"bcc" binding:"omitempty,dive,email"`
	Subject string   `json:"subject" binding:"required"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

func (r SendEmailRequest) message() mail.Message {
	return mail.Message{
		To:      r.To,
		CC:      r.CC,
		BCC:     r.BCC,
		Subject: r.Subject,
		Text:    r.Text,
		HTML:    r.HTML,
	}
}

func (h *EmailHandler) Send(c *gin.Context) {
	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok := h.sender.SendEmail(req.message())
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

type SendTemplateRequest struct {
	Template  string            `json:"template" binding:"required"`
	To        []string          `json:"to" binding:"required,min=1,dive,email"`
	Variables map[string]string `json:"variables"`
}

func (h *EmailHandler) SendTemplate(c *gin.Context) {
	var req SendTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok := h.sender.SendTemplateEmail(req.Template, req.To, req.Variables)
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

func (h *EmailHandler) Queue(c *gin.Context) {
	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.sender.QueueEmail(req.message())
	c.JSON(http.StatusAccepted, gin.H{"queued": h.sender.QueueLength()})
}

func (h *EmailHandler) DrainQueue(c *gin.Context) {
	sent, failed := h.sender.DrainQueue()
	c.JSON(http.StatusOK, gin.H{"sent": sent, "failed": failed})
}

// Status reports service health: transport connectivity, queue depths,
// registered templates, and the lifetime counters.
func (h *EmailHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected":      h.sender.Connected(),
		"queue_length":   h.sender.QueueLength(),
		"delivery_queue": h.queue.TotalLen(),
		"templates":      h.sender.TemplateNames(),
		"stats":          h.sender.GetStats(),
	})
}

func (h *EmailHandler) TestConnection(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connected": h.sender.TestConnection()})
}

func (h *EmailHandler) ListTemplates(c *gin.Context) {
	list, err := h.templateRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": list})
}

type UpsertTemplateRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=64"`
	Subject   string `json:"subject" binding:"required"`
	HTMLBody  string `json:"html_body" binding:"required"`
	Variables string `json:"variables"`
}

func (h *EmailHandler) UpsertTemplate(c *gin.Context) {
	var req UpsertTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t := models.EmailTemplate{
		Name:      req.Name,
		Subject:   req.Subject,
		HTMLBody:  req.HTMLBody,
		Variables: req.Variables,
	}
	if err := h.templateRepo.Upsert(&t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	h.sender.RegisterTemplate(t)
	c.JSON(http.StatusOK, gin.H{"template": t})
}

func (h *EmailHandler) DeleteTemplate(c *gin.Context) {
	name := c.Param("name")
	if err := h.templateRepo.DeleteByName(name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	h.sender.RemoveTemplate(name)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
