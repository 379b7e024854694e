package leaveerrors

import (
	"fmt"
	"net/http"

	"go-leave-engine/internal/shared/apperror"
)

var (
	ErrLeaveRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)

	ErrEmployeeNotInCompany = apperror.New(
		apperror.CodeNotFound,
		"employee not found in this company",
		http.StatusNotFound,
	)

	ErrOverlappingRequest = apperror.New(
		apperror.CodeConflict,
		"an active leave request already covers part of this period",
		http.StatusConflict,
	)

	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"end date must not be before start date",
		http.StatusUnprocessableEntity,
	)

	ErrNonPositiveDays = apperror.New(
		apperror.CodeInvalidInput,
		"total days must be greater than zero",
		http.StatusUnprocessableEntity,
	)

	ErrUnknownLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusUnprocessableEntity,
	)

	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a rejection reason is required",
		http.StatusUnprocessableEntity,
	)

	ErrNotCurrentApprover = apperror.New(
		apperror.CodeForbidden,
		"you are not an approver for this request",
		http.StatusForbidden,
	)
)

// AlreadyProcessed marks a decision attempt on a request that already
// reached a terminal state.
func AlreadyProcessed(status string) *apperror.AppError {
	return apperror.New(
		apperror.CodeConflict,
		fmt.Sprintf("request already processed with status %s", status),
		http.StatusConflict,
	)
}

func InvalidTransition(from, to string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("cannot transition leave request from %s to %s", from, to),
		http.StatusConflict,
	)
}
