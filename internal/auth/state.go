package auth

// State は認証状態の三値を表す。
// 「未解決」と「未認証」を区別することで、セッション解決前の
// 誤ったログインリダイレクト（保護コンテンツのフラッシュの逆）を防ぐ。
type State int

const (
	// StateUnknown はセッション解決がまだ完了していない状態。
	// この状態でリダイレクトしてはならない。
	StateUnknown State = iota
	// StateAuthenticated は有効なセッションが確認できた状態。
	StateAuthenticated
	// StateUnauthenticated はセッションが無効・期限切れ・不存在と確定した状態。
	// ログインページへのリダイレクトはこの状態でのみ行う。
	StateUnauthenticated
)

// String はStateの文字列表現を返す。
func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}
