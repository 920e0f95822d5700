package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/maturityd/internal/decision"
	"github.com/fyrsmithlabs/maturityd/internal/engine"
	"github.com/fyrsmithlabs/maturityd/internal/maturity"
	"github.com/fyrsmithlabs/maturityd/internal/payment"
	"github.com/fyrsmithlabs/maturityd/internal/store"
)

// httpError maps a service error to an echo HTTP error. The mapping lives
// in one place so every handler reports the same status for the same
// failure class.
func httpError(err error) error {
	switch {
	case errors.Is(err, maturity.ErrUnknownState),
		errors.Is(err, maturity.ErrNotSuccessor),
		errors.Is(err, maturity.ErrTerminalState),
		errors.Is(err, engine.ErrBackwardTransition),
		errors.Is(err, engine.ErrInvalidRequest),
		errors.Is(err, decision.ErrActorRequired),
		errors.Is(err, decision.ErrJustificationRequired),
		errors.Is(err, payment.ErrReferenceRequired),
		errors.Is(err, payment.ErrNoMilestone),
		errors.Is(err, store.ErrIDRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, decision.ErrGatePending),
		errors.Is(err, decision.ErrGateResolved),
		errors.Is(err, payment.ErrGateNotOpen),
		errors.Is(err, engine.ErrGateMismatch):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, decision.ErrGateExpired),
		errors.Is(err, payment.ErrGateExpired):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
