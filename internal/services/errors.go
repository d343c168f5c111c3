package services

import (
	"errors"
	"time"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrOwnerExists     = errors.New("an owner already exists")
	ErrWrongSecret     = errors.New("wrong elevation password")
	ErrCommentsClosed  = errors.New("comments are closed for this post")
	ErrUnknownProvider = errors.New("unknown identity provider")
	ErrInvalidLevel    = errors.New("invalid access level")
	ErrLastOwner       = errors.New("the blog must keep an owner")
	ErrReservedName    = errors.New("reserved file name")
)

func utcNow() time.Time { return time.Now().UTC() }
