package model

import "time"

// Scheme は行政支援制度（年金、医療補助等）の告知を表す。
// バックグラウンドワーカーが告知フィードから取得し、制度検索モードが参照する。
type Scheme struct {
	ID          string
	Title       string
	Summary     string
	Link        string
	PublishedAt time.Time
	FetchedAt   time.Time
}

// Store は買い物モードで表示する店舗を表す。
// 位置情報が取得済みの場合のみ距離順で並べ替えられる。
type Store struct {
	ID       string
	Name     string
	Category string
	Location Coordinate
}
