package restyutil

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"hl7tools/lib/flatten"

	"github.com/go-resty/resty/v2"
)

var ErrStatus = errors.New("unexpected response status")

// GetBytes performs a GET and returns the body with any UTF-8 byte order
// mark removed. Non-2xx responses are errors.
func GetBytes(ctx context.Context, client *resty.Client, endpoint string, query url.Values) ([]byte, error) {
	req := client.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	res, err := req.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("GET %s: %w: %s", endpoint, ErrStatus, res.Status())
	}
	return flatten.StripBOM(res.Body()), nil
}

// GetJSON performs a GET and decodes the body into the generic JSON tree
// used by the flattener.
func GetJSON(ctx context.Context, client *resty.Client, endpoint string, query url.Values) (any, error) {
	body, err := GetBytes(ctx, client, endpoint, query)
	if err != nil {
		return nil, err
	}
	doc, err := flatten.DecodeBytes(body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	return doc, nil
}

func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// ReadSource reads a local file or fetches a URL.
func ReadSource(ctx context.Context, client *resty.Client, source string) ([]byte, error) {
	if IsURL(source) {
		return GetBytes(ctx, client, source, nil)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	return flatten.StripBOM(data), nil
}

// ReadJSONSource is ReadSource followed by decoding.
func ReadJSONSource(ctx context.Context, client *resty.Client, source string) (any, error) {
	data, err := ReadSource(ctx, client, source)
	if err != nil {
		return nil, err
	}
	doc, err := flatten.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return doc, nil
}
