package translator

import (
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// TranslateResponse converts a blocking upstream response into the body the
// caller receives. Error statuses pass through untouched, body included.
// Successful responses get their model field rewritten to the id the caller
// originally requested; upstream model ids must never leak to callers.
func TranslateResponse(statusCode int, body []byte, requestedModel string) (int, []byte) {
	if statusCode != http.StatusOK {
		return statusCode, body
	}

	if gjson.GetBytes(body, "model").Exists() {
		if rewritten, err := sjson.SetBytes(body, "model", requestedModel); err == nil {
			body = rewritten
		}
	}

	return http.StatusOK, body
}
