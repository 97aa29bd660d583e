package editor

import (
	"errors"

	"portal-web/cv/model"
)

var (
	ErrNotFound          = errors.New("draft not found")
	ErrInvalidPath       = errors.New("invalid field path")
	ErrTemplateNotActive = errors.New("template is not active")
	ErrSubmitInFlight    = errors.New("submit already in progress")
	ErrInvalidPhoto      = errors.New("profile photo must be an image")
	ErrPhotoTooLarge     = errors.New("profile photo is too large")
	ErrInvalidColor      = model.ErrInvalidColor
)
