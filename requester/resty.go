package requester

import (
	"github.com/go-resty/resty/v2"
)

// IntoResty assembles req leniently into a request of client. The caller
// sends it with Send().
func IntoResty(client *resty.Client, req Request, baseURL string) (*resty.Request, error) {
	assembled, err := Assemble(req, baseURL)
	if err != nil {
		return nil, err
	}
	return assembled.RestyRequest(client), nil
}

// TryIntoResty assembles req strictly into a request of client.
func TryIntoResty(client *resty.Client, req Request, baseURL string) (*resty.Request, error) {
	assembled, err := TryAssemble(req, baseURL)
	if err != nil {
		return nil, err
	}
	return assembled.RestyRequest(client), nil
}

// RestyRequest copies the assembled request into a new request of client.
func (a *AssembledRequest) RestyRequest(client *resty.Client) *resty.Request {
	r := client.R()
	r.Method = a.Method
	r.URL = a.URL.String()
	for key, values := range a.Header {
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	if a.ContentType != "" && r.Header.Get("Content-Type") == "" {
		r.SetHeader("Content-Type", a.ContentType)
	}
	if len(a.Body) > 0 {
		r.SetBody(a.Body)
	}
	return r
}
