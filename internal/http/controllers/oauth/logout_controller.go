package oauth

import "net/http"

// LogoutController maneja POST /oauth2/logout. No revoca nada: responde "" y 200.
// TODO: revocar el token del par (user, client) cuando exista TokenRepository.Delete.
type LogoutController struct{}

func NewLogoutController() *LogoutController { return &LogoutController{} }

func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, "")
}
