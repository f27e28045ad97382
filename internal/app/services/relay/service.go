// Package relay pairs a conversational reply with an order-intent decision.
package relay

import (
	"context"
	"fmt"

	"github.com/dongnae-labs/storefront/internal/metrics"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

// StoreContext is the store-side input to a relay turn.
type StoreContext struct {
	Name     string
	MenuText string
}

// Reply is the outcome of one relay turn.
type Reply struct {
	Text           string
	IntentDetected bool
	GeneratorError string
}

// Service is stateless beyond the inputs of each turn: a pure function of
// (store context, utterance) to (reply text, intent flag).
type Service struct {
	gen     Generator
	mode    Mode
	keyword string
	metrics *metrics.Metrics
	log     *logger.Logger
}

// New creates the relay. An empty keyword falls back to the default order
// token; an unrecognized mode falls back to keyword classification.
func New(gen Generator, mode Mode, keyword string, m *metrics.Metrics, log *logger.Logger) *Service {
	if keyword == "" {
		keyword = DefaultOrderKeyword
	}
	if mode != ModeModel {
		mode = ModeKeyword
	}
	if log == nil {
		log = logger.NewDefault("relay")
	}
	return &Service{gen: gen, mode: mode, keyword: keyword, metrics: m, log: log}
}

const systemDirective = "당신은 가게 주문을 돕는 상냥한 점원입니다."

// Respond produces the assistant reply and the intent decision for one
// customer utterance.
//
// A generator failure never fails the turn: the reply is substituted with an
// apology embedding the error description, and intent detection still runs
// against the original utterance, so a downstream SMS can fire even when the
// model call failed.
func (s *Service) Respond(ctx context.Context, sc StoreContext, utterance string) Reply {
	prompt := s.buildPrompt(sc, utterance)

	text, genErr := s.gen.Generate(ctx, systemDirective, prompt)
	if s.metrics != nil {
		s.metrics.RecordExternalCall("generator", genErr == nil)
	}

	reply := Reply{}
	switch {
	case genErr != nil:
		s.log.WithError(genErr).Warn("generator failed; substituting apology")
		reply.Text = fmt.Sprintf("죄송합니다. AI 응답 오류가 발생했습니다: %v", genErr)
		reply.GeneratorError = genErr.Error()
		reply.IntentDetected = keywordIntent(utterance, s.keyword)
	case s.mode == ModeModel:
		if order, verdictText, ok := modelVerdict(text); ok {
			reply.IntentDetected = order
			if verdictText != "" {
				reply.Text = verdictText
			} else {
				reply.Text = text
			}
		} else {
			// No extractable verdict: keep the reply, classify by keyword.
			reply.Text = text
			reply.IntentDetected = keywordIntent(utterance, s.keyword)
		}
	default:
		reply.Text = text
		reply.IntentDetected = keywordIntent(utterance, s.keyword)
	}

	if reply.IntentDetected && s.metrics != nil {
		s.metrics.RecordOrderFlagged()
	}
	return reply
}

func (s *Service) buildPrompt(sc StoreContext, utterance string) string {
	base := fmt.Sprintf("가게:%s\n메뉴:%s\n손님:%s\n주문인지 판단해.", sc.Name, sc.MenuText, utterance)
	if s.mode == ModeModel {
		base += "\n반드시 JSON으로만 답해: {\"order\": true|false, \"reply\": \"손님에게 보낼 답변\"}"
	}
	return base
}
