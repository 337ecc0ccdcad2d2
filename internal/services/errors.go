package services

import "errors"

// Service-level errors
var (
	// ErrAccountNotFound is returned when the property or record being changed does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrValidation wraps rejected input such as malformed amounts or addresses.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidConfig is returned when a required config entry is missing or malformed.
	ErrInvalidConfig = errors.New("invalid configuration value")

	// ErrPublishFailed is returned when a notice was stored but its dispatch
	// event could not be published. The pending record is left in place.
	ErrPublishFailed = errors.New("failed to publish dispatch event")

	// ErrInvalidEvent is returned for dispatch events that can never succeed.
	ErrInvalidEvent = errors.New("invalid dispatch event")
	// ErrRecordNotFound is returned when the record a dispatch event refers to does not exist.
	ErrRecordNotFound = errors.New("dispatch record not found")
	// ErrDeliveryFailed is returned when the email provider did not accept the message.
	// The record stays pending and the event may be retried.
	ErrDeliveryFailed = errors.New("email delivery failed")
	// ErrStatusNotRecorded is returned when the email was sent but the record
	// could not be marked sent. A retry will send the email again.
	ErrStatusNotRecorded = errors.New("email sent but status not recorded")

	// ErrPropertyStale is returned when an owner update succeeded but copying
	// the current owner's fields onto the property failed.
	ErrPropertyStale = errors.New("property not updated with owner changes")
)
