package relay

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Mode selects how order intent is classified.
//
// Two strategies exist: a substring match on the customer's own text, and a
// structured verdict from the model reply. Which one should decide is a
// product question, so both ship and the mode is configuration.
type Mode string

const (
	// ModeKeyword matches the order token against the customer utterance.
	// The default: it is independent of the model reply and still fires
	// when the model call fails.
	ModeKeyword Mode = "keyword"
	// ModeModel asks the model for a structured verdict and trusts it,
	// falling back to the keyword test when the call fails or the verdict
	// cannot be extracted.
	ModeModel Mode = "model"
)

// DefaultOrderKeyword is the order-indicating token in customer text.
const DefaultOrderKeyword = "주문"

// keywordIntent reports whether the utterance contains the order token.
func keywordIntent(utterance, keyword string) bool {
	return strings.Contains(utterance, keyword)
}

// modelVerdict extracts an order verdict from the model reply. The reply is
// expected to contain a JSON object with an "order" boolean and a "reply"
// string; extraction is lenient so surrounding prose does not break it.
// ok is false when no verdict could be found.
func modelVerdict(reply string) (order bool, text string, ok bool) {
	body := reply
	if start := strings.Index(body, "{"); start >= 0 {
		if end := strings.LastIndex(body, "}"); end > start {
			body = body[start : end+1]
		}
	}
	if !gjson.Valid(body) {
		return false, "", false
	}
	verdict := gjson.Get(body, "order")
	if !verdict.Exists() {
		return false, "", false
	}
	return verdict.Bool(), gjson.Get(body, "reply").String(), true
}
