package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"golink-redirect/internal/apperrors"
	"golink-redirect/internal/repository"
	"golink-redirect/pkg/logging"
	"golink-redirect/pkg/utils"
)

// DefaultLookupTimeout slug 查询的默认超时
const DefaultLookupTimeout = 5 * time.Second

// ReservedPrefixes 不参与 slug 解析的路径前缀
var ReservedPrefixes = []string{"/admin", "/api", "/assets", "/static"}

// Redirect 解析成功的结果
type Redirect struct {
	Slug        string
	Target      string
	EmailAlerts bool
}

type RedirectService struct {
	store         repository.LinkStore
	lookupTimeout time.Duration
}

func NewRedirectService(store repository.LinkStore, lookupTimeout time.Duration) *RedirectService {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &RedirectService{store: store, lookupTimeout: lookupTimeout}
}

// Resolve 将请求路径解析为重定向目标。
// 保留前缀、静态资源、格式非法、不存在、已禁用统一返回 404；查询超时返回 503；
// 目标地址无效返回 500。
func (s *RedirectService) Resolve(ctx context.Context, rawPath string) (*Redirect, error) {
	if isReservedPath(rawPath) {
		return nil, apperrors.NotFoundError()
	}

	slug := strings.TrimPrefix(rawPath, "/")
	if err := utils.ValidateSlug(slug); err != nil {
		return nil, apperrors.NotFoundError()
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	link, err := s.store.GetLink(lookupCtx, slug)
	switch {
	case errors.Is(err, repository.ErrLinkNotFound):
		return nil, apperrors.NotFoundError()
	case err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(lookupCtx.Err(), context.DeadlineExceeded)):
		logging.Logger.Warn("Link lookup timed out",
			zap.String("slug", slug),
			zap.Duration("timeout", s.lookupTimeout))
		return nil, apperrors.ServiceUnavailableError().WithCause(err)
	case err != nil:
		logging.Logger.Error("Link lookup failed",
			zap.String("slug", slug),
			zap.Error(err))
		return nil, apperrors.SystemErrorDefault().WithCause(err)
	}

	// 禁用与不存在对外不可区分
	if link.Disabled {
		return nil, apperrors.NotFoundError()
	}

	if err := utils.ValidateLongURL(link.LongURL); err != nil {
		logging.Logger.Error("Link has invalid destination",
			zap.String("slug", slug),
			zap.String("long_url", link.LongURL),
			zap.Error(err))
		return nil, apperrors.InvalidConfigurationError().WithCause(err)
	}

	return &Redirect{
		Slug:        slug,
		Target:      link.LongURL,
		EmailAlerts: link.EmailAlerts,
	}, nil
}

// isReservedPath 保留前缀按路径段匹配（/api、/api/... 命中，/apiary 不命中）；含 '.' 视为静态资源
func isReservedPath(path string) bool {
	if strings.Contains(path, ".") {
		return true
	}
	for _, prefix := range ReservedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
