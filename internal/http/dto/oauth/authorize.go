package oauth

// AuthorizeQuery son los parámetros de GET /oauth2/authorize que se reenvían al login.
type AuthorizeQuery struct {
	ClientID     string
	ResponseType string
	RedirectURI  string
	Scope        string
	State        string
}
