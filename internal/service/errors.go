package service

import (
	"errors"
	"fmt"
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeForbidden         = "FORBIDDEN"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodePersistence       = "PERSISTENCE_ERROR"
	CodeNotificationError = "NOTIFICATION_ERROR"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

// IsCode проверяет, что в цепочке есть BusinessError с кодом code
func IsCode(err error, code string) bool {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr.Code == code
	}
	return false
}

func NewNotFound(resource Resource, id string) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s not found", resource.Title()),
		ToDetail("resource", resource),
		ToDetail("id", id))
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidation,
		fmt.Sprintf("Invalid value of field '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason))
}

// NewForbidden: action - что пытались сделать ("update", "delete", "modify")
func NewForbidden(resource Resource, action string) *BusinessError {
	return NewBusinessError(CodeForbidden,
		fmt.Sprintf("Not authorized to %s this %s", action, resource),
		ToDetail("resource", resource),
		ToDetail("action", action))
}

func NewUnauthorized() *BusinessError {
	return NewBusinessError(CodeUnauthorized, "User not authenticated")
}

func NewPersistenceError(operation string, err error) *BusinessError {
	busErr := NewBusinessError(CodePersistence,
		fmt.Sprintf("Server error while trying to %s", operation),
		ToDetail("operation", operation))
	busErr.Err = err
	return busErr
}

func NewNotificationError(to string, err error) *BusinessError {
	busErr := NewBusinessError(CodeNotificationError,
		"Task saved, but the notification could not be sent",
		ToDetail("to", to))
	busErr.Err = err
	return busErr
}
