package pageshandler

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/loanflow-dev/loanflow/internal/domain"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

//go:embed index.html
var indexHTML string

type PagesHandler struct {
	index *template.Template
	log   *zap.Logger
}

func NewPagesHandler(log *zap.Logger) *PagesHandler {
	return &PagesHandler{
		index: template.Must(template.New("index").Parse(indexHTML)),
		log:   log,
	}
}

// Index handles GET /, rendering the application form with the fixed set of
// loan types.
func (h *PagesHandler) Index(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.index.Execute(&buf, fiber.Map{"LoanTypes": domain.LoanTypes}); err != nil {
		h.log.Error("Failed to render index page", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
