package model

// Coordinate は緯度経度を表す。
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationState はユーザーごとの位置情報の状態を表す。
// Locationがnilの場合は未取得（未リクエスト、拒否、失敗のいずれか）。
// 拒否・失敗時も自動リトライは行わず、Page Shellの明示的なリクエストでのみ再取得する。
type LocationState struct {
	Location        *Coordinate
	RequestInFlight bool
}
