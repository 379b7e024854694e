package hierarchyerrors

import (
	"net/http"

	"go-leave-engine/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrNoApproverAvailable = apperror.New(
		apperror.CodeInvalidState,
		"no approver could be resolved for this employee",
		http.StatusUnprocessableEntity,
	)
)
