// Package categorize guesses an event category from its title.
package categorize

import (
	"strings"
	"unicode"

	"github.com/dukerupert/pocketcal/internal/model"
)

// Guess returns the category suggested by title. Matching is
// case-insensitive: whole title first, then each word, then multi-word
// phrases. Falls back to other if nothing matches.
func Guess(title string) model.Category {
	name := strings.ToLower(strings.TrimSpace(title))
	if name == "" {
		return model.CategoryOther
	}

	// Phase 1: exact match
	if c, ok := keywords[name]; ok {
		return c
	}

	// Phase 2: word match, first hit wins
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ':'
	})
	for _, w := range words {
		if c, ok := keywords[strings.Trim(w, ":")]; ok {
			return c
		}
	}

	// Phase 3: phrase match (ordered longer/more-specific first)
	for _, p := range phrases {
		if strings.Contains(name, p.phrase) {
			return p.category
		}
	}

	return model.CategoryOther
}

var keywords = map[string]model.Category{
	// Meetings
	"meeting":    model.CategoryMeeting,
	"meetings":   model.CategoryMeeting,
	"standup":    model.CategoryMeeting,
	"sync":       model.CategoryMeeting,
	"1:1":        model.CategoryMeeting,
	"call":       model.CategoryMeeting,
	"interview":  model.CategoryMeeting,
	"retro":      model.CategoryMeeting,
	"demo":       model.CategoryMeeting,
	"planning":   model.CategoryMeeting,
	"kickoff":    model.CategoryMeeting,
	"huddle":     model.CategoryMeeting,
	"webinar":    model.CategoryMeeting,
	"conference": model.CategoryMeeting,

	// Work
	"deadline":     model.CategoryWork,
	"deploy":       model.CategoryWork,
	"release":      model.CategoryWork,
	"report":       model.CategoryWork,
	"sprint":       model.CategoryWork,
	"client":       model.CategoryWork,
	"project":      model.CategoryWork,
	"presentation": model.CategoryWork,
	"invoice":      model.CategoryWork,
	"office":       model.CategoryWork,
	"shift":        model.CategoryWork,
	"review":       model.CategoryWork,
	"work":         model.CategoryWork,

	// Personal
	"gym":         model.CategoryPersonal,
	"dentist":     model.CategoryPersonal,
	"doctor":      model.CategoryPersonal,
	"birthday":    model.CategoryPersonal,
	"dinner":      model.CategoryPersonal,
	"lunch":       model.CategoryPersonal,
	"breakfast":   model.CategoryPersonal,
	"brunch":      model.CategoryPersonal,
	"yoga":        model.CategoryPersonal,
	"run":         model.CategoryPersonal,
	"haircut":     model.CategoryPersonal,
	"vet":         model.CategoryPersonal,
	"party":       model.CategoryPersonal,
	"vacation":    model.CategoryPersonal,
	"date":        model.CategoryPersonal,
	"groceries":   model.CategoryPersonal,
	"pickup":      model.CategoryPersonal,
	"recital":     model.CategoryPersonal,
	"therapy":     model.CategoryPersonal,
	"appointment": model.CategoryPersonal,
}

type phraseEntry struct {
	phrase   string
	category model.Category
}

var phrases = []phraseEntry{
	{"one on one", model.CategoryMeeting},
	{"one-on-one", model.CategoryMeeting},
	{"stand-up", model.CategoryMeeting},
	{"check-in", model.CategoryMeeting},
	{"all hands", model.CategoryMeeting},
	{"all-hands", model.CategoryMeeting},
	{"code review", model.CategoryWork},
	{"performance review", model.CategoryWork},
	{"school pickup", model.CategoryPersonal},
	{"date night", model.CategoryPersonal},
	{"work out", model.CategoryPersonal},
	{"workout", model.CategoryPersonal},
}
