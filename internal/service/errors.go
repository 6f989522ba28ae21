package service

import "errors"

var (
	ErrNotOwner = errors.New("listing does not belong to this seller")
)
