// Package mode は各アシスタントモードの表示コンテンツを構築する。
//
// すべてのビルダーは {DarkMode, FontSize, Location} と自身のデータソース
// だけを受け取り、プロバイダーを直接読まない。テキストはすべて翻訳キー
// で表現し、解決はテンプレート側（Page Shell経由）で行う。
package mode

import (
	"math"
	"sort"

	"github.com/anandk/sahay/internal/model"
)

// Input はPage ShellからMode Contentへ渡される導出ビュー状態。
type Input struct {
	DarkMode bool
	FontSize float64
	Location *model.Coordinate
}

// Card はモード内の1機能を表すカード。テキストは翻訳キー。
type Card struct {
	TitleKey       string
	DescriptionKey string
}

// StoreView は買い物モードの店舗表示。位置が既知の場合のみ距離を持つ。
type StoreView struct {
	Store       model.Store
	DistanceKm  float64
	HasDistance bool
}

// Content は1モード分の表示コンテンツ。
type Content struct {
	TitleKey       string
	DescriptionKey string
	Cards          []Card

	// Stores は買い物モードのみ。位置が既知なら距離昇順。
	Stores []StoreView
	// Schemes は制度検索モードのみ。
	Schemes []model.Scheme
}

// Religious は信仰モードのコンテンツを構築する。
func Religious(in Input) Content {
	return Content{
		TitleKey:       "religious_mode",
		DescriptionKey: "religious_description",
		Cards: []Card{
			{TitleKey: "daily_prayers", DescriptionKey: "daily_prayers_description"},
			{TitleKey: "bhajans", DescriptionKey: "bhajans_description"},
			{TitleKey: "scriptures", DescriptionKey: "scriptures_description"},
			{TitleKey: "festival_calendar", DescriptionKey: "festival_calendar_description"},
		},
	}
}

// Wellness は健康モードのコンテンツを構築する。
func Wellness(in Input) Content {
	return Content{
		TitleKey:       "wellness_mode",
		DescriptionKey: "wellness_description",
		Cards: []Card{
			{TitleKey: "gentle_yoga", DescriptionKey: "gentle_yoga_description"},
			{TitleKey: "medicine_reminders", DescriptionKey: "medicine_reminders_description"},
			{TitleKey: "morning_walk", DescriptionKey: "morning_walk_description"},
			{TitleKey: "breathing_exercise", DescriptionKey: "breathing_exercise_description"},
		},
	}
}

// Shopping は買い物モードのコンテンツを構築する。
// 位置が既知の場合のみ店舗を距離昇順に並べ替える。位置が不在の場合は
// 与えられた順序のまま表示する（劣化であってエラーではない）。
func Shopping(in Input, stores []model.Store) Content {
	views := make([]StoreView, 0, len(stores))
	for _, store := range stores {
		view := StoreView{Store: store}
		if in.Location != nil {
			view.DistanceKm = distanceKm(*in.Location, store.Location)
			view.HasDistance = true
		}
		views = append(views, view)
	}

	if in.Location != nil {
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].DistanceKm < views[j].DistanceKm
		})
	}

	return Content{
		TitleKey:       "shopping_mode",
		DescriptionKey: "shopping_description",
		Stores:         views,
	}
}

// Schemes は制度検索モードのコンテンツを構築する。
func Schemes(in Input, schemes []model.Scheme) Content {
	return Content{
		TitleKey:       "scheme_mode",
		DescriptionKey: "scheme_description",
		Schemes:        schemes,
	}
}

const earthRadiusKm = 6371.0

// distanceKm は2座標間の大圏距離をハーバサイン公式で計算する。
func distanceKm(a, b model.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// DefaultStores は買い物モードの既定の店舗一覧を返す。
func DefaultStores() []model.Store {
	return []model.Store{
		{ID: "store-1", Name: "Sharma General Store", Category: "groceries", Location: model.Coordinate{Lat: 28.6129, Lng: 77.2295}},
		{ID: "store-2", Name: "Apollo Pharmacy", Category: "pharmacy", Location: model.Coordinate{Lat: 28.6271, Lng: 77.2166}},
		{ID: "store-3", Name: "Mother Dairy Booth", Category: "dairy", Location: model.Coordinate{Lat: 28.5921, Lng: 77.2507}},
		{ID: "store-4", Name: "Khadi Gramodyog Bhavan", Category: "clothing", Location: model.Coordinate{Lat: 28.6304, Lng: 77.2177}},
	}
}
