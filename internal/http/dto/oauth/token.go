package oauth

// TokenForm son los campos form-urlencoded de POST /oauth2/token.
type TokenForm struct {
	GrantType string
	Username  string
	Password  string
	Code      string
	PKCE      string // campo "pcke": verifier PKCE en claro
	Scope     *string
	Device    string
}
