package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"skull_controller/internal/console"
	"skull_controller/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errGetState        = "failed to load state"
	errInvalidBodyPref = "invalid body: "
	errEmptyLine       = "empty command line"
	errLineBreak       = "command line must not contain line breaks"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// CommandRequest is one console line to run.
type CommandRequest struct {
	// Line as typed on the console, without a terminator
	Line string `json:"line" binding:"required" example:"setlimit rot 500 2600"`
	// Explain successful commands
	Verbose bool `json:"verbose,omitempty" example:"true"`
}

// CommandResponse carries what the console wrote. Lines end with the
// *OK or *ERR marker.
type CommandResponse struct {
	Outcome string   `json:"outcome" example:"ok"`
	Lines   []string `json:"lines"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get controller state
// @Description  Actuator positions, calibration, preferences and uncommitted keys. The network secret is never included.
// @Tags         controller
// @Produce      json
// @Success      200  {object}  models.ControllerState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	var (
		st  models.ControllerState
		err error
	)
	// snapshot between commands
	h.console.Do(func() {
		st, err = h.services.Monitoring.GetState(c.Request.Context())
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "controller_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Run console command
// @Description  Runs one line through the same command table as the serial console. A failed command still answers 200 with outcome "failed" and the error lines.
// @Tags         controller
// @Accept       json
// @Produce      json
// @Param        body  body      CommandRequest  true  "Command line"
// @Success      200   {object}  CommandResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/commands [post]
// @Security     BearerAuth
func (h *Handler) runCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if strings.ContainsAny(req.Line, "\r\n") {
		c.JSON(http.StatusBadRequest, gin.H{"error": errLineBreak})
		return
	}
	// same limit as a typed line: one slot is the terminator
	if len(req.Line) >= h.opts.ConsoleCapacity {
		c.JSON(http.StatusBadRequest, gin.H{"error": console.ErrLineTooLong.Error()})
		return
	}

	var out bytes.Buffer
	sess := console.NewSession(h.console, &out, console.SessionOptions{
		Capacity: h.opts.ConsoleCapacity,
		Verbose:  req.Verbose || h.opts.ConsoleVerbose,
	})
	outcome := sess.ExecLine(req.Line)
	if outcome == console.OutcomeEmpty {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyLine})
		return
	}
	if h.log != nil {
		h.log.Infow("http_command", "operator_id", operatorID(c), "line", req.Line, "outcome", outcome.String())
	}

	c.JSON(http.StatusOK, CommandResponse{
		Outcome: outcome.String(),
		Lines:   splitResponse(out.String()),
	})
}

// splitResponse turns console output into lines without terminators.
func splitResponse(s string) []string {
	s = strings.TrimSuffix(s, console.Newline)
	if s == "" {
		return []string{}
	}
	return strings.Split(s, console.Newline)
}
