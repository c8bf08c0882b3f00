package notify

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mediastore/storefront/internal/apiclient"
	"github.com/mediastore/storefront/internal/checkout"
	"github.com/mediastore/storefront/pkg/logger"
	"go.uber.org/zap"
)

// LogNotifier writes user-facing notifications to the structured log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: logger.OrNop(log).Named("notify")}
}

func (n *LogNotifier) Success(msg string) {
	n.log.Info(msg, zap.String("kind", "success"))
}

func (n *LogNotifier) Info(msg string) {
	n.log.Info(msg, zap.String("kind", "info"))
}

func (n *LogNotifier) Warning(msg string) {
	n.log.Warn(msg, zap.String("kind", "warning"))
}

func (n *LogNotifier) Failure(err error) {
	n.log.Error(MessageFor(err), zap.String("kind", "error"), zap.Error(err))
}

// MessageFor turns an error into the message shown to the user.
func MessageFor(err error) string {
	if err == nil {
		return ""
	}

	var incomplete *checkout.IncompleteFormError
	if errors.As(err, &incomplete) {
		return "Please complete the required fields: " + strings.Join(incomplete.Fields, ", ")
	}
	if errors.Is(err, checkout.ErrEmptyCart) {
		return "Your cart is empty"
	}

	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		return statusMessage(httpErr)
	}
	if errors.Is(err, apiclient.ErrNetwork) {
		return "Unable to reach the server. Check your connection."
	}
	return "An unexpected error occurred"
}

func statusMessage(e *apiclient.HTTPError) string {
	switch e.Status {
	case http.StatusBadRequest:
		return orDefault(e.Message, "Bad request")
	case http.StatusUnauthorized:
		return "Unauthorized. Please log in."
	case http.StatusForbidden:
		return "You do not have permission to perform this action"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		return "Conflict: " + orDefault(e.Message, "the resource already exists")
	case http.StatusUnprocessableEntity:
		return "Validation error"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return fmt.Sprintf("Error %d: %s", e.Status, orDefault(e.Message, http.StatusText(e.Status)))
	}
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
