package policyerrors

import (
	"net/http"

	"go-leave-engine/internal/shared/apperror"
)

var (
	ErrLeaveTypeNotConfigured = apperror.New(
		apperror.CodePolicyNotConfigured,
		"no entitlement is configured for this leave type, contact HR to configure it",
		http.StatusUnprocessableEntity,
	)
	ErrUnknownRuleCode = apperror.New(
		apperror.CodeInvalidInput,
		"unknown rule code",
		http.StatusBadRequest,
	)
	ErrInvalidRuleParams = apperror.New(
		apperror.CodeInvalidInput,
		"rule parameters do not match the rule's expected shape",
		http.StatusBadRequest,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
)
