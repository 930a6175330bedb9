package account

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GSA/notifications-admin-sub001/internal/middleware"
	"github.com/GSA/notifications-admin-sub001/internal/storage"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
)

// PrefixDeleter bulk-deletes objects; satisfied by *storage.Store bound to
// the logo bucket.
type PrefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

type Handler struct {
	logos  PrefixDeleter
	logger *logger.Logger
}

func NewHandler(logos PrefixDeleter, log *logger.Logger) *Handler {
	return &Handler{logos: logos, logger: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/sign-out", h.SignOut)
}

// SignOut clears the session cookie and sweeps the user's temporary logo
// uploads out of the logo bucket. A failed sweep does not block sign-out;
// the objects are retried on the next one.
func (h *Handler) SignOut(c *gin.Context) {
	user := middleware.CurrentUser(c)

	deleted, err := h.logos.DeleteByPrefix(c.Request.Context(), storage.TempUploadPrefix(user.ID))
	if err != nil {
		h.logger.Error(err, "failed to sweep temp uploads", "user_id", user.ID)
	} else if deleted > 0 {
		h.logger.Info("swept temp uploads", "user_id", user.ID, "deleted", deleted)
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", true, true)
	c.Redirect(http.StatusFound, "/")
}
