package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Verbose request/response dumps go to stderr. The API key header is
// redacted and inline image payloads are truncated.

func (p *Provider) logRequest(method, url string, headers http.Header, body []byte) {
	if !p.verbose {
		return
	}

	fmt.Fprintln(os.Stderr, "--- REQUEST ---")
	fmt.Fprintf(os.Stderr, "%s %s\n", method, url)
	fmt.Fprintln(os.Stderr, "Headers:")
	for key, values := range headers {
		for _, value := range values {
			if strings.ToLower(key) == "x-goog-api-key" {
				value = "[REDACTED]"
			}
			fmt.Fprintf(os.Stderr, "  %s: %s\n", key, value)
		}
	}
	if len(body) > 0 {
		fmt.Fprintln(os.Stderr, "Body:")
		writeIndented(truncateInlineData(body))
	}
	fmt.Fprintln(os.Stderr, "---------------")
}

func (p *Provider) logResponse(statusCode int, body []byte) {
	if !p.verbose {
		return
	}

	fmt.Fprintln(os.Stderr, "--- RESPONSE ---")
	fmt.Fprintf(os.Stderr, "Status: %d\n", statusCode)
	if len(body) > 0 {
		fmt.Fprintln(os.Stderr, "Body:")
		writeIndented(truncateInlineData(body))
	}
	fmt.Fprintln(os.Stderr, "----------------")
}

func writeIndented(body []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "  ", "  "); err == nil {
		fmt.Fprintf(os.Stderr, "  %s\n", pretty.String())
	} else {
		fmt.Fprintf(os.Stderr, "  %s\n", string(body))
	}
}

func truncateInlineData(body []byte) []byte {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	truncateDataFields(data)

	result, err := json.Marshal(data)
	if err != nil {
		return body
	}
	return result
}

func truncateDataFields(data map[string]interface{}) {
	for key, value := range data {
		switch v := value.(type) {
		case string:
			if key == "data" && len(v) > 100 {
				data[key] = v[:100] + "... [truncated]"
			}
		case map[string]interface{}:
			truncateDataFields(v)
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					truncateDataFields(m)
				}
			}
		}
	}
}
