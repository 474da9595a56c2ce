// Package i18n は翻訳キーの解決と言語切り替えを提供する。
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localesFS embed.FS

// MissHook は翻訳キーが未解決だった場合に呼び出されるフック。
// メトリクス収集に使用する。
type MissHook func(language, key string)

// Catalog は埋め込みロケールファイルから構築される翻訳カタログ。
// プロセス全体で共有されるシングルトンとして使用し、
// 言語切り替えは購読者（マウント中のPage Shell）へ同期的に通知される。
type Catalog struct {
	mu          sync.RWMutex
	language    string
	tables      map[string]map[string]string
	subscribers map[int]func(language string)
	nextSubID   int
	missHook    MissHook
}

// NewCatalog は埋め込みロケールファイルをすべて読み込んだCatalogを生成する。
// defaultLanguageが存在しないロケールの場合はエラーを返す。
func NewCatalog(defaultLanguage string) (*Catalog, error) {
	tables := make(map[string]map[string]string)

	entries, err := fs.ReadDir(localesFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		lang := strings.TrimSuffix(name, ".json")

		data, err := localesFS.ReadFile("locales/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", lang, err)
		}

		table := make(map[string]string)
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", lang, err)
		}
		tables[lang] = table
	}

	if _, ok := tables[defaultLanguage]; !ok {
		return nil, fmt.Errorf("default language %q has no locale file", defaultLanguage)
	}

	return &Catalog{
		language:    defaultLanguage,
		tables:      tables,
		subscribers: make(map[int]func(string)),
	}, nil
}

// SetMissHook は未解決キーのフックを設定する。
func (c *Catalog) SetMissHook(hook MissHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missHook = hook
}

// Language は現在の言語コードを返す。
func (c *Catalog) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

// Languages は利用可能な言語コードの一覧を返す。
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	langs := make([]string, 0, len(c.tables))
	for lang := range c.tables {
		langs = append(langs, lang)
	}
	return langs
}

// Has は指定の言語コードに対応するロケールが存在するかを返す。
func (c *Catalog) Has(language string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[language]
	return ok
}

// SetLanguage は現在の言語を切り替え、全購読者へ同期的に通知する。
// 未対応の言語コードの場合はエラーを返し、言語は変更されない。
func (c *Catalog) SetLanguage(code string) error {
	c.mu.Lock()
	if _, ok := c.tables[code]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("unsupported language: %q", code)
	}
	c.language = code

	// 通知中の購読解除と競合しないようスナップショットを取る
	subs := make([]func(string), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	slog.Info("language changed", slog.String("language", code))

	// 同期通知: 呼び出しが返った時点で全購読者が再解決済みであることを保証する
	for _, fn := range subs {
		fn(code)
	}
	return nil
}

// Subscribe は言語切り替えの通知を購読する。
// 返される関数を呼び出すと購読を解除する。
func (c *Catalog) Subscribe(fn func(language string)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// T は現在の言語でキーを解決する。
// 未解決の場合はキーそのものを返す（決定的フォールバック。プレースホルダは使わない）。
func (c *Catalog) T(key string) string {
	return c.TIn(c.Language(), key)
}

// TIn は指定した言語でキーを解決する。
// 未解決の場合はキーそのものを返す。
func (c *Catalog) TIn(language, key string) string {
	c.mu.RLock()
	table, ok := c.tables[language]
	var value string
	var found bool
	if ok {
		value, found = table[key]
	}
	hook := c.missHook
	c.mu.RUnlock()

	if !found {
		if hook != nil {
			hook(language, key)
		}
		return key
	}
	return value
}
