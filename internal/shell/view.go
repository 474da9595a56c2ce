package shell

import "github.com/anandk/sahay/internal/model"

// ViewState はテンプレート描画用のPage Shellスナップショット。
// Mode Contentへは{DarkMode, FontSize, Location}のみが渡される。
type ViewState struct {
	Page     Page
	Phase    Phase
	Language string

	Prefs        model.Preferences
	HeadingScale float64

	Location         *model.Coordinate
	LocationInFlight bool

	Overlay          Overlay
	User             *model.User
	EmergencyContact model.EmergencyContact
}

// View は現在のShell状態のスナップショットを返す。
// 位置情報はキャッシュせず、プロバイダーの最終確認位置を毎回読み直す。
func (s *Shell) View() ViewState {
	s.mu.Lock()
	user := s.user
	phase := s.phase
	prefs := s.prefs
	overlay := s.overlay
	language := s.language
	s.mu.Unlock()

	var locState model.LocationState
	if user != nil {
		locState = s.factory.location.State(user.ID)
	}

	return ViewState{
		Page:             s.page,
		Phase:            phase,
		Language:         language,
		Prefs:            prefs,
		HeadingScale:     HeadingScaleFactor * prefs.FontSize,
		Location:         locState.Location,
		LocationInFlight: locState.RequestInFlight,
		Overlay:          overlay,
		User:             user,
		EmergencyContact: s.EmergencyContact(),
	}
}
