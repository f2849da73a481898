package oauth

import (
	"net/url"
)

// buildRedirect agrega params al query string del redirect URI.
// url.Values.Encode ordena las keys, así que el resultado es determinístico.
func buildRedirect(base string, params map[string]string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// buildFragmentRedirect agrega params al fragment del redirect URI
// (implicit flow: los tokens nunca viajan en el query string).
func buildFragmentRedirect(base string, params map[string]string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	v := url.Values{}
	for k, val := range params {
		if val != "" {
			v.Set(k, val)
		}
	}
	u.Fragment = ""
	return u.String() + "#" + v.Encode()
}
