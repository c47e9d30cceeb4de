package gateway

import (
	"encoding/json"
	"io"
	"net/http"
)

const responseBodyLimit int64 = 1 << 20

// DoJSON executes req and decodes a 2xx JSON body into out. Every failure is
// returned through Fail; the raw body is returned for audit storage.
func DoJSON(client *http.Client, gw string, req *http.Request, out any) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, Fail(gw, "request failed", 0, nil, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, Fail(gw, "read response", resp.StatusCode, nil, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, Fail(gw, "unexpected response status", resp.StatusCode, raw, nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return raw, Fail(gw, "malformed response", resp.StatusCode, raw, err)
	}
	return raw, nil
}
