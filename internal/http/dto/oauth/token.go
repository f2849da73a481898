package oauth

// TokenResponse es la respuesta estándar del token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// TokenError es el body de error del token endpoint.
// Nunca incluye campos de token parciales.
type TokenError struct {
	Error string `json:"error"`
}
