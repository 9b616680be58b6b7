package oauth

// IntrospectResponse es el body de POST /oauth2/introspect.
// Los campos opcionales salen como null, nunca se omiten.
type IntrospectResponse struct {
	Active    bool    `json:"active"`
	ClientID  string  `json:"client_id"`
	Username  *string `json:"username"`
	UserID    *string `json:"user_id"`
	Scope     *string `json:"scope"`
	TokenType string  `json:"token_type"`
	Issuer    string  `json:"issuer"`
	Exp       int64   `json:"exp"`
	Iat       int64   `json:"iat"`
}

// IntrospectResult es el resultado interno del IntrospectService.
type IntrospectResult struct {
	Active      bool
	ClientID    string
	DisplayName string
	Username    *string
	UserID      *int64
	Scope       *string
	TokenType   string
	Issuer      string
	Exp         int64
	Iat         int64
}
