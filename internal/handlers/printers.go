package handlers

import (
	"errors"
	"net/http"
	"strings"

	"thermal_printer/internal/models"
	"thermal_printer/internal/service"
	"thermal_printer/internal/templates"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errListEntries     = "failed to load printer entries"
	errGetEntry        = "failed to load printer entry"
	errRemoveEntry     = "failed to remove printer entry"
	errPrintFailed     = "failed to print content"
	errPrinterNotFound = "printer not found"
	errEntryNotFound   = "printer entry not found"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// CreateEntryRequest is the setup form of a network printer.
type CreateEntryRequest struct {
	// IPv4/IPv6 address or host name of the printer
	IPAddress string `json:"ip_address" binding:"required" example:"192.168.1.50"`
	// Raw ESC/POS port; 9100 when omitted
	Port int `json:"port,omitempty" example:"9100"`
}

// PrintRequest carries either raw content or a template with its data.
type PrintRequest struct {
	// Markdown-like content: "# " header, "## " subheader, "* " bullet, "QR:" code
	Content string `json:"content,omitempty" example:"# Order 42\n* Soup\nQR:https://example.com/42"`
	// Template name, e.g. kanban or inquiry
	Template string `json:"template,omitempty" example:"kanban"`
	// Placeholder values for the template
	Data map[string]any `json:"data,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": statusOK}
	if h.services.Registry != nil {
		resp["printers"] = h.services.Registry.Len()
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      List printer entries
// @Tags         entries
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, entries"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/entries [get]
// @Security     BearerAuth
func (h *Handler) listEntries(c *gin.Context) {
	entries, err := h.services.Setup.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListEntries, "entries_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}

// @Summary      Configure a printer
// @Description  The printer must answer a status query before it is stored. Form errors come back as {"errors":{"base":code}} with code cannot_connect, unknown, already_configured or invalid_address.
// @Tags         entries
// @Accept       json
// @Produce      json
// @Param        body  body      CreateEntryRequest  true  "Printer address"
// @Success      201   {object}  models.PrinterEntry
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/entries [post]
// @Security     BearerAuth
func (h *Handler) createEntry(c *gin.Context) {
	var req CreateEntryRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	entry, err := h.services.Setup.Create(c.Request.Context(), service.EntryParams{
		IPAddress: req.IPAddress,
		Port:      req.Port,
	})
	if err != nil {
		h.formError(c, "entry_create_rejected", req, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// @Summary      Check a printer address
// @Description  Runs the same status query as setup without storing anything. Form errors come back as {"errors":{"base":code}}.
// @Tags         entries
// @Accept       json
// @Produce      json
// @Param        body  body      CreateEntryRequest  true  "Printer address"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/entries/validate [post]
// @Security     BearerAuth
func (h *Handler) validateEntry(c *gin.Context) {
	var req CreateEntryRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	err := h.services.Setup.Validate(c.Request.Context(), service.EntryParams{
		IPAddress: req.IPAddress,
		Port:      req.Port,
	})
	if err != nil {
		h.formError(c, "entry_validate_rejected", req, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// formError answers a rejected setup form with its error code.
func (h *Handler) formError(c *gin.Context, logKey string, req CreateEntryRequest, err error) {
	code, ok := service.FormErrorCode(err)
	if !ok {
		code = service.ErrUnknown.Error()
	}
	if h.log != nil {
		h.log.Infow(logKey, "ip_address", req.IPAddress, "port", req.Port, "code", code, "err", err)
	}
	c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"base": code}})
}

// @Summary      Get a printer entry
// @Tags         entries
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  models.PrinterEntry
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/entries/{id} [get]
// @Security     BearerAuth
func (h *Handler) getEntry(c *gin.Context) {
	id := c.Param("id")
	entry, err := h.services.Setup.Get(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, entry)
	case errors.Is(err, service.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errEntryNotFound})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errGetEntry, "entry_get_failed", err, "entry_id", id)
	}
}

// @Summary      Remove a printer
// @Tags         entries
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/entries/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteEntry(c *gin.Context) {
	id := c.Param("id")
	err := h.services.Setup.Remove(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "removed", "id": id})
	case errors.Is(err, service.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errEntryNotFound})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errRemoveEntry, "entry_remove_failed", err, "entry_id", id)
	}
}

// @Summary      List printer status
// @Tags         printers
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, printers"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/printers [get]
// @Security     BearerAuth
func (h *Handler) listPrinters(c *gin.Context) {
	printers := h.services.ListStatus(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"count": len(printers), "printers": printers})
}

// @Summary      Get printer status
// @Description  Last known status; does not query the printer.
// @Tags         printers
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  models.PrinterStatus
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/printers/{id}/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStatusError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Refresh printer status
// @Description  Queries the printer now and returns the new status.
// @Tags         printers
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  models.PrinterStatus
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/printers/{id}/refresh [post]
// @Security     BearerAuth
func (h *Handler) refreshStatus(c *gin.Context) {
	st, err := h.services.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStatusError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) respondStatusError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrPrinterNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": errPrinterNotFound})
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, "failed to load status", "status_failed", err, "entry_id", c.Param("id"))
}

// @Summary      Print
// @Description  Prints content, or a template filled with data. A device failure answers 502 without retrying; the printer status is refreshed.
// @Tags         printers
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Entry ID"
// @Param        body  body      PrintRequest  true  "Print job"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/printers/{id}/print [post]
// @Security     BearerAuth
func (h *Handler) print(c *gin.Context) {
	var req PrintRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	id := c.Param("id")
	err := h.services.Print(c.Request.Context(), id, models.PrintRequest{
		Content:  req.Content,
		Template: strings.TrimSpace(req.Template),
		Data:     req.Data,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "printed"})
	case errors.Is(err, service.ErrPrinterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errPrinterNotFound})
	case errors.Is(err, service.ErrEmptyJob):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, templates.ErrMissingPlaceholder), errors.Is(err, templates.ErrMalformed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPrintFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": errPrintFailed})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errPrintFailed, "print_failed", err, "entry_id", id)
	}
}

// @Summary      List templates
// @Tags         printers
// @Produce      json
// @Success      200  {object}  map[string][]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/templates [get]
// @Security     BearerAuth
func (h *Handler) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": h.services.Templates()})
}
