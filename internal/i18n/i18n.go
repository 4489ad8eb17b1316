package i18n

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

type localizerKey struct{}

// Catalog 已加载的消息包及支持的语言列表
type Catalog struct {
	Bundle    *i18n.Bundle
	Languages []string
	Default   string
}

// InitI18n 加载 <lang>.toml 消息文件
func InitI18n(filePaths []string, defaultLang string) (*Catalog, error) {
	bundle := i18n.NewBundle(language.MustParse(defaultLang))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	catalog := &Catalog{Bundle: bundle, Default: defaultLang}
	for _, filePath := range filePaths {
		file, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(file, filePath); err != nil {
			return nil, err
		}
		catalog.Languages = append(catalog.Languages, extractLanguageFromPath(filePath))
	}
	return catalog, nil
}

// Match 根据 Accept-Language 选出支持的语言，匹配不到时返回默认语言
func (c *Catalog) Match(acceptLanguage string) string {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	for _, tag := range tags {
		base, _ := tag.Base()
		for _, lang := range c.Languages {
			if lang == tag.String() || lang == base.String() {
				return lang
			}
		}
	}
	return c.Default
}

// NewLocalizer 创建指定语言的 Localizer
func (c *Catalog) NewLocalizer(lang string) *i18n.Localizer {
	return i18n.NewLocalizer(c.Bundle, lang, c.Default)
}

// 从文件路径中提取语言标签（en.toml -> "en"）
func extractLanguageFromPath(filePath string) string {
	baseName := filepath.Base(filePath)
	return strings.TrimSuffix(baseName, filepath.Ext(baseName))
}

// NewContext 将 Localizer 写入 context
func NewContext(ctx context.Context, localizer *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, localizer)
}

// T 翻译消息；context 中没有 Localizer 或消息缺失时返回 fallback
func T(ctx context.Context, messageID, fallback string) string {
	if messageID == "" {
		return fallback
	}
	localizer, ok := ctx.Value(localizerKey{}).(*i18n.Localizer)
	if !ok || localizer == nil {
		return fallback
	}
	// 当前语言缺少该消息时，go-i18n 返回默认语言文本并附带 MessageNotFoundErr
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	var notFound *i18n.MessageNotFoundErr
	if err != nil && !errors.As(err, &notFound) {
		return fallback
	}
	if msg == "" {
		return fallback
	}
	return msg
}
