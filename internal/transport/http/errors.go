package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/ballot"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/dto"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/middleware"
)

const otpFailureMessage = "Invalid or expired OTP"

var kindStatus = map[domain.Kind]int{
	domain.KindNotRegistered:               http.StatusNotFound,
	domain.KindNotVerified:                 http.StatusForbidden,
	domain.KindChallengeExpiredOrInvalid:   http.StatusUnauthorized,
	domain.KindSignatureVerificationFailed: http.StatusUnauthorized,
	domain.KindRateLimited:                 http.StatusTooManyRequests,
	domain.KindUnauthorized:                http.StatusUnauthorized,
	domain.KindAlreadyVoted:                http.StatusConflict,
	domain.KindInvalidBallot:               http.StatusUnprocessableEntity,
	domain.KindConflict:                    http.StatusConflict,
	domain.KindInvalidRequest:              http.StatusBadRequest,
	domain.KindStorageError:                http.StatusInternalServerError,
}

func statusOf(kind domain.Kind) int {
	if s, ok := kindStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	body := dto.ErrorResponse{Error: kind.String(), Message: err.Error()}

	var be *ballot.Error
	if errors.As(err, &be) {
		body.Reason = string(be.Reason)
	}

	status := statusOf(kind)
	attrs := append(middleware.LogAttrs(r.Context()), "path", r.URL.Path, "kind", body.Error, "err", err)
	if status >= http.StatusInternalServerError {
		body.Message = "internal error"
		slog.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		slog.InfoContext(r.Context(), "request rejected", attrs...)
	}
	writeJSON(w, status, body)
}

// writeOTPError keeps the fixed client message for failed code checks so a
// caller cannot tell an expired code from a wrong one.
func writeOTPError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.KindOf(err) != domain.KindChallengeExpiredOrInvalid {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "otp rejected", append(middleware.LogAttrs(r.Context()), "err", err)...)
	writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{
		Error:   domain.KindChallengeExpiredOrInvalid.String(),
		Message: otpFailureMessage,
	})
}
