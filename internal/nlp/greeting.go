package nlp

import (
	"regexp"
	"strings"
)

var greetingWords = map[string]bool{
	"hi": true, "hii": true, "hello": true, "hey": true, "hola": true,
	"namaste": true, "namaskar": true,
	"morning": true, "afternoon": true, "evening": true,
	"thanks": true, "thank": true, "bye": true, "goodbye": true,
	"see": true, "sup": true,
}

var (
	taskWordsPattern = regexp.MustCompile(`\b(what|where|when|why|how|tell|show|explain|find|list|about|exhibit|exhibits)\b`)
	farewellPattern  = regexp.MustCompile(`\b(bye|goodbye|see you|farewell)\b`)
	thanksPattern    = regexp.MustCompile(`\b(thanks|thank you|thankyou)\b`)
	howAreYouPattern = regexp.MustCompile(`how are you|how do you do`)
)

// IsGreeting reports whether the message is a short greeting, farewell, or
// thanks rather than an exhibit question.
func IsGreeting(message string) bool {
	normalized := strings.TrimSpace(strings.ToLower(message))
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return false
	}
	if len(tokens) == 1 && greetingWords[tokens[0]] {
		return true
	}
	if len(tokens) <= 3 && greetingWords[tokens[0]] && !taskWordsPattern.MatchString(normalized) {
		return true
	}
	if farewellPattern.MatchString(normalized) {
		return true
	}
	if thanksPattern.MatchString(normalized) && len(tokens) <= 4 {
		return true
	}
	return false
}

// GreetingResponse picks the canned reply for a greeting-class message.
func GreetingResponse(message string) string {
	normalized := strings.TrimSpace(strings.ToLower(message))
	switch {
	case farewellPattern.MatchString(normalized):
		return "👋 **Goodbye!** Feel free to ask me about exhibits anytime. Have a great visit! 🌟"
	case thanksPattern.MatchString(normalized):
		return "😊 **You're welcome!** Is there anything else you'd like to know about our exhibits? 💡"
	case howAreYouPattern.MatchString(normalized):
		return "🤖 **I'm doing great, thank you!** I'm here to help you explore the Regional Science Centre. What would you like to know about our exhibits? 🔬"
	default:
		return "👋 **Hello! I'm your Science Assistant!** 🎓\n\nI can help you:\n\n✨ Find exhibits by topic or name\n📚 Learn about specific exhibits\n📍 Get location and feature information\n🏛️ Answer questions about the museum\n\n**What would you like to explore today?** 🌟"
	}
}
