package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/httpclient"
	"github.com/myuon/flowit-sub001/common/node"
)

// httpRequestRunner performs one guarded outbound call. The request body
// comes from the body input port when connected, the body parameter
// otherwise.
type httpRequestRunner struct {
	client *httpclient.Client
}

func (r *httpRequestRunner) Run(ctx context.Context, rc *node.RunContext) (map[string]any, error) {
	url := stringParam(rc.Params, "url")
	if url == "" {
		return nil, fmt.Errorf("url parameter is required")
	}

	req := httpclient.Request{
		Method: stringParam(rc.Params, "method"),
		URL:    url,
	}

	if headers, ok := rc.Params["headers"].(map[string]any); ok {
		req.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			req.Headers[k] = stringify(v)
		}
	}

	if body, ok := rc.Inputs["body"]; ok && body != nil {
		req.Body = body
	} else if body, ok := rc.Params["body"]; ok && body != nil {
		req.Body = body
	}

	if timeoutMs, ok := rc.Params["timeoutMs"].(float64); ok && timeoutMs > 0 {
		req.Timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	rc.Logf("HTTP %s %s", orGET(req.Method), url)

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	rc.Logf("HTTP %d from %s", resp.Status, url)

	headers := make(map[string]any, len(resp.Headers))
	for k, v := range resp.Headers {
		headers[k] = v
	}

	return map[string]any{
		"status":  float64(resp.Status),
		"body":    resp.Body,
		"headers": headers,
	}, nil
}

func orGET(method string) string {
	if method == "" {
		return "GET"
	}
	return method
}

func httpRequestDefinition(client *httpclient.Client) *node.Definition {
	return &node.Definition{
		ID:          "http-request",
		DisplayName: "HTTP Request",
		Description: "Calls an external HTTP endpoint",
		Inputs: map[string]dsl.IOSchema{
			"body": {Kind: dsl.KindAny, Description: "Request body; overrides the body parameter"},
		},
		Outputs: map[string]dsl.IOSchema{
			"status":  {Kind: dsl.KindNumber},
			"body":    {Kind: dsl.KindAny},
			"headers": {Kind: dsl.KindObject},
		},
		Params: map[string]dsl.ParamSchema{
			"url": {
				Type:     dsl.ParamTypeString,
				Label:    "URL",
				Required: true,
			},
			"method": {
				Type:    dsl.ParamTypeSelect,
				Label:   "Method",
				Options: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
				Default: "GET",
			},
			"headers": {
				Type:  dsl.ParamTypeJSON,
				Label: "Headers",
			},
			"body": {
				Type:  dsl.ParamTypeJSON,
				Label: "Body",
			},
			"timeoutMs": {
				Type:        dsl.ParamTypeNumber,
				Label:       "Timeout (ms)",
				Description: "Per-request timeout; the client default applies when unset",
			},
		},
		Display: node.Display{
			Icon:     "globe",
			Color:    "#3b82f6",
			Category: "io",
			Tags:     []string{"network", "http"},
		},
		Runner: &httpRequestRunner{client: client},
	}
}
