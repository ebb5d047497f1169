package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/pricecast-go/internal/middleware"
)

// manualRunTimeout stays under the HTTP server WriteTimeout so the summary of
// a slow run still reaches the caller.
const manualRunTimeout = 25 * time.Second

// AdminHandler exposes operator actions behind the admin role.
type AdminHandler struct {
	updater    PriceUpdateRunner
	logger     logrus.FieldLogger
	runTimeout time.Duration
}

func NewAdminHandler(updater PriceUpdateRunner, logger logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{updater: updater, logger: logger, runTimeout: manualRunTimeout}
}

// UpdatePrices handles POST /admin/prices/update and runs the updater once.
// The run is detached from the request so a dropped connection does not
// abort it. A run cut short by the timeout answers with its partial summary.
func (h *AdminHandler) UpdatePrices(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.runTimeout)
	defer cancel()

	summary, err := h.updater.UpdatePrices(ctx)
	if err != nil && summary == nil {
		respondError(c, err)
		return
	}

	fields := logrus.Fields{
		"subject": c.GetString(middleware.ContextSubject),
		"updated": summary.Updated,
		"failed":  summary.Failed,
	}
	if err != nil {
		h.logger.WithFields(fields).WithError(err).Warn("Manual price update interrupted")
	} else {
		h.logger.WithFields(fields).Info("Manual price update finished")
	}

	c.JSON(http.StatusOK, summary)
}
