package utils

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// SlugMaxLength 短链 slug 最大长度
const SlugMaxLength = 50

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	ErrSlugRequired   = errors.New("error.slug_required")
	ErrSlugTooLong    = errors.New("error.slug_too_long")
	ErrSlugInvalid    = errors.New("error.slug_invalid")
	ErrLongURLMissing = errors.New("error.long_url_required")
	ErrLongURLInvalid = errors.New("error.long_url_invalid")
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateSlug 校验 slug：仅允许小写字母、数字和 '-'，长度 1~50
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrSlugRequired
	}
	if len(slug) > SlugMaxLength {
		return ErrSlugTooLong
	}
	if !slugPattern.MatchString(slug) {
		return ErrSlugInvalid
	}
	return nil
}

// ValidateLongURL 校验目标地址是否为绝对 http/https URL
func ValidateLongURL(longURL string) error {
	if strings.TrimSpace(longURL) == "" {
		return ErrLongURLMissing
	}
	if err := validatorInstance().Var(longURL, "http_url"); err != nil {
		return ErrLongURLInvalid
	}
	return nil
}
