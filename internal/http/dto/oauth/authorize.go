// Package oauth contiene los DTOs de los endpoints OAuth2/OIDC.
package oauth

// AuthorizeRequest son los parámetros del authorization endpoint.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string
	Nonce        string
}

// AuthResultType discrimina el resultado del authorization endpoint.
type AuthResultType string

const (
	// AuthResultCode: redirect al client con code + state en el query string.
	AuthResultCode AuthResultType = "code"
	// AuthResultFragment: redirect al client con tokens en el fragment.
	AuthResultFragment AuthResultType = "fragment"
	// AuthResultNeedLogin: no hay sesión; el front debe llevar al login.
	AuthResultNeedLogin AuthResultType = "need_login"
	// AuthResultNeedConsent: client no trusted; falta el consent del usuario.
	AuthResultNeedConsent AuthResultType = "need_consent"
	// AuthResultError: request inválido. Si Location está seteado el error
	// viaja como parámetros de redirect; si no, responde 400 directo.
	AuthResultError AuthResultType = "error"
)

// AuthResult es el resultado del decision engine: una variante taggeada.
type AuthResult struct {
	Type AuthResultType

	// Location es el redirect final (code o fragment) o el redirect de error.
	Location string

	// ConsentToken identifica el consent challenge pendiente (need_consent).
	ConsentToken string

	// ErrorCode y ErrorDescription aplican cuando Type == AuthResultError.
	ErrorCode        string
	ErrorDescription string
}

// ConsentAcceptRequest es la decisión del usuario en la pantalla de consent.
type ConsentAcceptRequest struct {
	Token   string `json:"token"`
	Approve bool   `json:"approve"`
}
