package model

// 表示設定の永続化キー。値は不透明な文字列として保存される。
const (
	PrefKeyDarkMode = "darkMode" // "true" / "false"
	PrefKeyFontSize = "fontSize" // "0.8"〜"1.5" の浮動小数点数文字列
	PrefKeyContrast = "contrast" // "0.8"〜"1.2" の浮動小数点数文字列
	PrefKeyLanguage = "language" // ロケールコード（"en", "hi" 等）
)

// フォントサイズとコントラストの許容範囲。
// 保存・適用前に必ずこの範囲にクランプする。
const (
	FontSizeMin = 0.8
	FontSizeMax = 1.5
	ContrastMin = 0.8
	ContrastMax = 1.2
)

// Preferences はユーザーの表示設定を表す。
// 永続ストアから復元されるか、ストア不可時はデフォルト値にフォールバックする。
type Preferences struct {
	DarkMode bool
	FontSize float64
	Contrast float64
}

// DefaultPreferences はハードコードされたデフォルト設定を返す。
// ストレージが利用不可・値が解析不能な場合は常にこの値を使用する。
func DefaultPreferences() Preferences {
	return Preferences{
		DarkMode: false,
		FontSize: 1.0,
		Contrast: 1.0,
	}
}

// ClampFontSize はフォントサイズを許容範囲に丸める。
func ClampFontSize(v float64) float64 {
	return clamp(v, FontSizeMin, FontSizeMax)
}

// ClampContrast はコントラストを許容範囲に丸める。
func ClampContrast(v float64) float64 {
	return clamp(v, ContrastMin, ContrastMax)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
