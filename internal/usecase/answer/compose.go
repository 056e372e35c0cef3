package answer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ucost/exhibitqa/internal/domain"
)

// ComposeLimits carries the per-request character budgets. Brevity requests
// swap in the brief budgets before composing.
type ComposeLimits struct {
	SingleMax    int
	UnknownMax   int
	ListMax      int
	MaxListItems int
	MaxFeatures  int
}

var (
	aboutSpecificRe = regexp.MustCompile(`what is|tell me about|explain|describe|show me|what does|how does`)
	aboutMultipleRe = regexp.MustCompile(`list|show|find|where|which exhibits|what exhibits|all exhibits|some|tell me about some|exhibits related to|related to`)
	aboutLocationRe = regexp.MustCompile(`where|location|floor|find|directions`)
	aboutFeaturesRe = regexp.MustCompile(`features|interactive|what can|how can|activities`)
	aboutAgeRe      = regexp.MustCompile(`age|children|kids|adults|suitable|appropriate`)
	aboutCategoryRe = regexp.MustCompile(`category|type|kind|sort`)

	excessWhitespace = regexp.MustCompile(`\s{3,}`)
)

var numberEmojis = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

var featureEmojis = []string{"✨", "🎮", "🔬", "💡", "🎯", "⚡"}

const notFoundAnswer = "🔍 I couldn't find specific information about that topic in our knowledge base.\n\n💡 Could you please rephrase your question or ask about:\n\n✨ Specific exhibit names\n🔬 Science topics (physics, biology, space, etc.)\n📂 Exhibit categories\n🏛️ Museum information\n🎮 Interactive features"

// Compose renders the markdown answer for a candidate set. It is a pure
// function of its inputs: same candidates, same question, same answer.
func Compose(question string, cands []domain.Candidate, limits ComposeLimits) string {
	if len(cands) == 0 {
		return notFoundAnswer
	}

	lower := strings.ToLower(question)
	aboutSpecific := aboutSpecificRe.MatchString(lower)
	aboutMultiple := aboutMultipleRe.MatchString(lower)
	aboutLocation := aboutLocationRe.MatchString(lower)
	aboutFeatures := aboutFeaturesRe.MatchString(lower)
	aboutAge := aboutAgeRe.MatchString(lower)
	aboutCategory := aboutCategoryRe.MatchString(lower)

	if len(cands) == 1 || aboutSpecific {
		return composeSingle(cands[0].Record, limits, aboutLocation, aboutFeatures, aboutAge)
	}

	unknownLike := !aboutMultiple && !aboutSpecific && !aboutLocation && !aboutFeatures && !aboutAge && !aboutCategory
	if unknownLike {
		return composeUnknown(cands, limits)
	}

	return composeList(cands, limits)
}

func composeSingle(rec domain.ExhibitRecord, limits ComposeLimits, aboutLocation, aboutFeatures, aboutAge bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 **%s**\n\n", nameOrFallback(rec.Name, "Exhibit"))

	if desc := strings.TrimSpace(rec.Description); desc != "" {
		fmt.Fprintf(&b, "📝 %s\n\n", truncate(desc, limits.SingleMax))
	}

	var locParts []string
	// The centre's full postal address adds nothing to in-building directions.
	if rec.Location != "" && !strings.Contains(rec.Location, "Dehradun, Uttarakhand") {
		locParts = append(locParts, rec.Location)
	}
	if rec.Floor != "" {
		label := floorLabel(rec.Floor)
		already := false
		for _, p := range locParts {
			if strings.Contains(strings.ToLower(p), strings.ToLower(rec.Floor)) {
				already = true
			}
		}
		if !already {
			locParts = append(locParts, label)
		}
	}
	if len(locParts) > 0 {
		fmt.Fprintf(&b, "📍 **Where to find it:** %s\n\n", strings.Join(locParts, " | "))
		if rec.MapLocation != nil {
			fmt.Fprintf(&b, "🗺️ Map coordinates: (x: %g, y: %g)\n\n", rec.MapLocation.X, rec.MapLocation.Y)
		}
	} else if aboutLocation {
		b.WriteString("📍 **Where to find it:** Location details are not available right now. Please check with the information desk.\n\n")
	}

	var info []string
	if rec.Category != "" {
		info = append(info, "📂 "+rec.Category)
	}
	if aboutAge && rec.AgeRange != "" {
		info = append(info, "👥 "+rec.AgeRange)
	}
	if rec.ExhibitType != "" && rec.ExhibitType != "passive" {
		info = append(info, "🎭 "+rec.ExhibitType)
	}
	if rec.Rating > 0 {
		stars := strings.Repeat("⭐", int(rec.Rating))
		info = append(info, fmt.Sprintf("%s %g/5", stars, rec.Rating))
	}
	if rec.AvgMinutes > 0 {
		info = append(info, fmt.Sprintf("⏱️ %d mins", rec.AvgMinutes))
	}
	if rec.Difficulty != "" {
		info = append(info, "📊 "+rec.Difficulty)
	}
	if len(info) > 0 {
		fmt.Fprintf(&b, "ℹ️ %s\n\n", strings.Join(info, " • "))
	}

	if aboutFeatures || len(rec.Features) > 0 {
		if len(rec.Features) > 0 {
			shown := rec.Features
			if len(shown) > limits.MaxFeatures {
				shown = shown[:limits.MaxFeatures]
			}
			parts := make([]string, len(shown))
			for i, f := range shown {
				parts[i] = featureEmojis[i%len(featureEmojis)] + " " + f
			}
			more := ""
			if len(rec.Features) > limits.MaxFeatures {
				more = " and more"
			}
			fmt.Fprintf(&b, "🎨 **Highlights:** %s%s\n\n", strings.Join(parts, ", "), more)
		} else {
			b.WriteString("🎨 **Features:** Details are not available in our records. You can still explore the exhibit to discover interactive elements.\n\n")
		}
	}

	return strings.TrimSpace(b.String())
}

func composeUnknown(cands []domain.Candidate, limits ComposeLimits) string {
	primary := cands[0].Record
	desc := strings.TrimSpace(primary.Description)
	if desc == "" {
		desc = "A popular interactive exhibit at the centre."
	} else {
		desc = truncate(desc, limits.UnknownMax)
	}
	var also []string
	for _, c := range cands[1:] {
		if c.Record.Name == "" {
			continue
		}
		also = append(also, c.Record.Name)
		if len(also) == 3 {
			break
		}
	}
	out := fmt.Sprintf("🎯 **%s**\n\n📝 %s", primary.Name, desc)
	if len(also) > 0 {
		out += "\n\n💡 **You might also like:** " + strings.Join(also, ", ")
	}
	return out
}

func composeList(cands []domain.Candidate, limits ComposeLimits) string {
	shown := cands
	if len(shown) > limits.MaxListItems {
		shown = shown[:limits.MaxListItems]
	}

	var b strings.Builder
	if len(shown) == 1 {
		rec := shown[0].Record
		fmt.Fprintf(&b, "🎯 **%s**\n\n", nameOrFallback(rec.Name, "Exhibit"))
		if desc := strings.TrimSpace(rec.Description); desc != "" {
			fmt.Fprintf(&b, "📝 %s\n\n", truncate(desc, limits.ListMax*2))
		}
	} else {
		fmt.Fprintf(&b, "🎉 **Found %d exhibits related to your question:**\n\n", len(shown))
		for i, c := range shown {
			rec := c.Record
			num := fmt.Sprintf("%d.", i+1)
			if i < len(numberEmojis) {
				num = numberEmojis[i]
			}
			fmt.Fprintf(&b, "%s **%s**\n", num, nameOrFallback(rec.Name, "Untitled Exhibit"))
			if desc := strings.TrimSpace(rec.Description); desc != "" {
				fmt.Fprintf(&b, "   📝 %s\n", truncate(desc, limits.ListMax))
			}
			var info []string
			if rec.Category != "" {
				info = append(info, "📂 "+rec.Category)
			}
			if rec.Floor != "" {
				label := floorLabel(rec.Floor)
				if rec.Location != "" {
					info = append(info, "📍 "+rec.Location+" | "+label)
				} else {
					info = append(info, "📍 "+label)
				}
			} else if rec.Location != "" {
				info = append(info, "📍 "+rec.Location)
			}
			if rec.ExhibitType != "" && rec.ExhibitType != "passive" {
				info = append(info, "🎭 "+rec.ExhibitType)
			}
			if len(info) > 0 {
				fmt.Fprintf(&b, "   %s\n", strings.Join(info, " • "))
			}
			b.WriteString("\n")
		}
	}

	if len(cands) > len(shown) {
		fmt.Fprintf(&b, "\n📊 Showing top %d of %d results.\n\n", len(shown), len(cands))
	}
	if len(shown) > 1 {
		b.WriteString("💬 **Want more details?** Just ask about any exhibit by name!")
	} else {
		fmt.Fprintf(&b, "💬 **Want more details?** Ask about %q for more information!", shown[0].Record.Name)
	}
	return b.String()
}

func nameOrFallback(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func floorLabel(floor string) string {
	if strings.Contains(strings.ToLower(floor), "floor") {
		return floor
	}
	return floor + " floor"
}

// truncate cuts text to limit characters, preferring a sentence boundary in
// the last sixth and falling back to a word boundary in the last quarter.
func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	// back off to a rune boundary so multi-byte text never splits mid-rune
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	cut := text[:limit]
	sentenceFloor := limit * 5 / 6
	wordFloor := limit * 3 / 4
	if i := strings.LastIndex(cut, "."); i > sentenceFloor {
		return cut[:i+1]
	}
	if i := strings.LastIndex(cut, " "); i > wordFloor {
		return cut[:i] + "..."
	}
	return cut + "..."
}

// Sanitize collapses runs of whitespace that templates or exhibit data may
// have introduced, keeping the deliberate blank lines between sections.
func Sanitize(text string) string {
	return strings.TrimSpace(excessWhitespace.ReplaceAllString(text, "\n\n"))
}
