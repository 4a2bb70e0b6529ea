package service

import "peer_coach/internal/common"

var (
	ErrMissingFields      = common.NewError(common.KindValidation, "Missing fields")
	ErrInvalidCredentials = common.NewError(common.KindValidation, "Invalid credentials")
	ErrTitleRequired      = common.NewError(common.KindValidation, "Title required")
	ErrNotOwner           = common.NewError(common.KindForbidden, "Not owner")
	ErrDoubtNotFound      = common.NewError(common.KindNotFound, "Doubt not found")
	ErrNoSuchUser         = common.NewError(common.KindNotFound, "No such user")
)
