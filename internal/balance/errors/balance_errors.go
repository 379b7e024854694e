package balanceerrors

import (
	"fmt"
	"net/http"

	"go-leave-engine/internal/shared/apperror"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveDays = apperror.New(
		apperror.CodeInvalidInput,
		"day amount must be positive",
		http.StatusBadRequest,
	)
	ErrPendingUnderflow = apperror.New(
		apperror.CodeInvalidState,
		"pending days cannot go below zero",
		http.StatusConflict,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found",
		http.StatusNotFound,
	)
)

// InsufficientBalance carries the exact remaining amount so the caller can
// show it to the employee.
func InsufficientBalance(remaining decimal.Decimal) *apperror.AppError {
	return apperror.New(
		apperror.CodeInsufficientBalance,
		fmt.Sprintf("insufficient balance, %s days remaining", remaining.String()),
		http.StatusUnprocessableEntity,
	)
}
