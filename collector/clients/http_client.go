package clients

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"

	Logger "github.com/viralmux/viralmux/utils/log"
)

const DefaultTimeout = 10 * time.Second

// StatusError is returned for non-2XX responses so that callers can decide
// whether the failure is worth retrying.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-200 http code: %d", e.Code)
}

// IsRetryableStatus reports whether err is a rate limit or server side
// status that a backoff retry could fix.
func IsRetryableStatus(err error) bool {
	se, ok := err.(*StatusError)
	if !ok {
		return false
	}
	return se.Code == http.StatusTooManyRequests || se.Code >= 500
}

// HttpClient is a thin wrapper upon http.Client carrying shared headers and
// cookies. Every request is bounded by the client timeout.
type HttpClient struct {
	header  http.Header
	cookies []http.Cookie

	client *http.Client
}

func NewDefaultHttpClient() *HttpClient {
	return NewHttpClient(http.Header{}, []http.Cookie{})
}

func NewHttpClient(header http.Header, cookies []http.Cookie) *HttpClient {
	return &HttpClient{
		header:  header,
		cookies: cookies,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *HttpClient) do(req *http.Request) (*http.Response, error) {
	for key, values := range c.header {
		req.Header[key] = values
	}
	for _, cookie := range c.cookies {
		req.AddCookie(&cookie)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if IsNon200HttpResponse(res) {
		MaybeLogNon200HttpError(res)
		code := res.StatusCode
		res.Body.Close()
		return nil, &StatusError{Code: code}
	}

	return res, nil
}

func (c *HttpClient) Get(ctx context.Context, uri string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *HttpClient) Post(ctx context.Context, uri string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", uri, body)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// GetWithQueryParams takes an additional map from query key to query value,
// appended to the request uri as ?${KEY}=${VALUE}.
func (c *HttpClient) GetWithQueryParams(ctx context.Context, uri string, params map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	for k, v := range params {
		query.Add(k, v)
	}
	req.URL.RawQuery = query.Encode()
	return c.do(req)
}

// Log http response if the error code is not 2XX
func MaybeLogNon200HttpError(res *http.Response) {
	if IsNon200HttpResponse(res) {
		Logger.Log.Errorf("non-200 http code: %d", res.StatusCode)
		LogHttpResponseBody(res)
	}
}

func IsNon200HttpResponse(res *http.Response) bool {
	return res.StatusCode >= 300
}

func LogHttpResponseBody(res *http.Response) {
	body, err := ioutil.ReadAll(res.Body)
	if err == nil {
		Logger.Log.Errorln("response body is: ", string(body))
	}
}
