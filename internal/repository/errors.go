package repository

import "errors"

// ErrNotFound возвращается всеми хранилищами, если задача или пользователь отсутствуют
var ErrNotFound = errors.New("not found")
