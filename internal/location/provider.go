// Package location はユーザーの最終確認位置の取得と保持を提供する。
package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/anandk/sahay/internal/model"
)

// ErrPermissionDenied はユーザーが位置情報の提供を拒否したことを表す。
var ErrPermissionDenied = errors.New("location permission denied")

// Geocoder はユーザーの現在位置を取得するインターフェース。
type Geocoder interface {
	// Locate はユーザーの現在位置を取得する。
	// 拒否された場合はErrPermissionDeniedを返す。
	Locate(ctx context.Context, userID string) (*model.Coordinate, error)
}

// userState はユーザーごとの位置情報の状態。
type userState struct {
	coord *model.Coordinate
	// inflight は取得処理の実行中のみ非nil。完了時にcloseされる。
	inflight chan struct{}
}

// Provider はプロセス全体で共有される位置情報プロバイダー。
// 位置は「最終確認位置」として保持され、取得失敗や拒否では
// 既知の位置を消さない。同一ユーザーへの同時リクエストは1回の
// 取得に合流する。
type Provider struct {
	geocoder Geocoder

	mu     sync.Mutex
	states map[string]*userState

	// RequestHook は新しい取得が開始されるとき呼ばれる（省略可）。
	RequestHook func()
	// DedupHook は同時リクエストが実行中の取得に合流したとき呼ばれる（省略可）。
	DedupHook func()
	// DenialHook はユーザーが位置情報の提供を拒否したとき呼ばれる（省略可）。
	DenialHook func()
}

// NewProvider はProviderを生成する。
func NewProvider(geocoder Geocoder) *Provider {
	return &Provider{
		geocoder: geocoder,
		states:   make(map[string]*userState),
	}
}

// Request はユーザーの位置取得を要求する。
//
//   - 位置が既知の場合は取得を行わず既知の位置を返す。
//   - 同一ユーザーの取得が実行中の場合は新たな取得を開始せず、
//     その完了を待って結果を返す。
//   - 拒否された場合は(nil, nil)を返す。拒否はエラーではなく
//     「位置が不在」という通常状態として扱う。
//   - ctxがキャンセルされた後は状態を書き込まない。
func (p *Provider) Request(ctx context.Context, userID string) (*model.Coordinate, error) {
	p.mu.Lock()
	st, ok := p.states[userID]
	if !ok {
		st = &userState{}
		p.states[userID] = st
	}

	if st.coord != nil {
		coord := *st.coord
		p.mu.Unlock()
		return &coord, nil
	}

	if st.inflight != nil {
		done := st.inflight
		p.mu.Unlock()
		if p.DedupHook != nil {
			p.DedupHook()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
		}
		return p.Location(userID), nil
	}

	st.inflight = make(chan struct{})
	done := st.inflight
	p.mu.Unlock()

	if p.RequestHook != nil {
		p.RequestHook()
	}

	coord, err := p.geocoder.Locate(ctx, userID)

	p.mu.Lock()
	st.inflight = nil
	// 取得完了後、かつctxが生きている場合のみ状態を更新する。
	// キャンセル済みのリクエストの結果で状態を書き換えない。
	if err == nil && coord != nil && ctx.Err() == nil {
		c := *coord
		st.coord = &c
	}
	p.mu.Unlock()
	close(done)

	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			slog.Info("location permission denied",
				slog.String("user_id", userID),
			)
			if p.DenialHook != nil {
				p.DenialHook()
			}
			return nil, nil
		}
		slog.Error("location request failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return p.Location(userID), nil
}

// Location はユーザーの最終確認位置を返す。未取得の場合はnil。
func (p *Provider) Location(userID string) *model.Coordinate {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.states[userID]
	if !ok || st.coord == nil {
		return nil
	}
	coord := *st.coord
	return &coord
}

// State はユーザーの位置情報の状態スナップショットを返す。
func (p *Provider) State(userID string) model.LocationState {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.states[userID]
	if !ok {
		return model.LocationState{}
	}

	var coord *model.Coordinate
	if st.coord != nil {
		c := *st.coord
		coord = &c
	}
	return model.LocationState{
		Location:        coord,
		RequestInFlight: st.inflight != nil,
	}
}

// Clear はユーザーの位置情報を破棄する。ログアウト時に呼ばれる。
func (p *Provider) Clear(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.states, userID)
}
