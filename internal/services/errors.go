package services

import apperrors "anyumarket/internal/errors"

// Document service errors
var (
	ErrFileNotFound    = apperrors.NewNotFoundError("file")
	ErrInvalidFileType = apperrors.NewPermissionError("invalid file type")
	ErrForbiddenPath   = apperrors.NewPermissionError("forbidden path")
)
