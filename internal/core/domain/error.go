package domain

import (
	"errors"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound      = errors.New("data not found")
	ErrNoUpdatedData     = errors.New("no data to update")
	ErrConflictingData   = errors.New("data conflicts with existing data in unique column")
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// * Communication errors.
	ErrBadRequest = errors.New("error parsing request")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrExpiredToken               = errors.New("access token has expired")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrInvalidCredentials         = errors.New("invalid login or password")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")
	ErrUnauthorized               = errors.New("user is unauthorized to access the resource")
	ErrGuestDisabled              = errors.New("guest sessions are disabled")

	// * Validation errors. Rejected before any mutation, local or remote.
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrEmptyDescription = errors.New("description must not be empty")
	ErrSplitPeopleCount = errors.New("split requires at least two people")
	ErrSplitMismatch    = errors.New("split shares do not sum to the split total")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrBadOrderStatus   = errors.New("unknown order status")
	ErrEmptyOrder       = errors.New("order must contain at least one item")

	// * State-conflict errors.
	ErrOrderCompleted      = errors.New("order is in a terminal status")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrOrderNotRatable     = errors.New("order is not awaiting a rating")
	ErrOrderAlreadyRated   = errors.New("order has already been rated")
	ErrStatusRegression    = errors.New("status transition moves backwards")
	ErrExpenseNotPending   = errors.New("expense is already failed or cancelled")

	// * Payment errors.
	ErrUnknownCheckout = errors.New("no pending checkout for callback")
)
