// Package responder produces canned replies from literal string rules.
package responder

import (
	"fmt"
	"strings"

	"github.com/payram/simple-chat-api/internal/metrics"
)

// Rule names the category a message matched.
type Rule string

const (
	RuleWellbeing Rule = "wellbeing"
	RuleGreeting  Rule = "greeting"
	RuleFarewell  Rule = "farewell"
	RuleEcho      Rule = "echo"
)

const (
	WellbeingReply = "I am fine"
	GreetingReply  = "Hello! How can I help you?"
	FarewellReply  = "Goodbye! Have a great day!"
)

// Reply is the outcome of matching one message.
type Reply struct {
	Text     string
	Original string
	Rule     Rule
}

// triggers maps case-folded, trimmed input to its category.
var triggers = map[string]Rule{
	"how are you": RuleWellbeing,
	"hello":       RuleGreeting,
	"hi":          RuleGreeting,
	"bye":         RuleFarewell,
	"goodbye":     RuleFarewell,
}

// Respond matches message against the literal rules. It never fails.
func Respond(message string) Reply {
	trimmed := strings.TrimSpace(message)
	rule, ok := triggers[strings.ToLower(trimmed)]
	if !ok {
		rule = RuleEcho
	}

	reply := Reply{Original: trimmed, Rule: rule}
	switch rule {
	case RuleWellbeing:
		reply.Text = WellbeingReply
	case RuleGreeting:
		reply.Text = GreetingReply
	case RuleFarewell:
		reply.Text = FarewellReply
	default:
		reply.Text = Echo(trimmed)
	}

	metrics.RuleMatches.WithLabelValues(string(rule)).Inc()
	return reply
}

// Echo renders the fallback reply for an unmatched message.
func Echo(message string) string {
	return fmt.Sprintf("I received your message: '%s'. How can I assist you?", message)
}
