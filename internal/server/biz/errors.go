package biz

import (
	"errors"
)

var (
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrQuotaNotFound      = errors.New("quota not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrPlanNotFound       = errors.New("no active plan")
	ErrInternal           = errors.New("server internal error, please try again later")
)
