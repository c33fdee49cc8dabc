package schema

import "fmt"

// ============================================================================
// LABELS — Display names and bin explanations for the student dataset
// ============================================================================
// Bin labels are indexed by bin position, so a 5-bin Medu histogram maps
// bin 0 → "None" … bin 4 → "Higher education".
// ============================================================================

var educationLevels = []string{"None", "Primary education (4th grade)", "5th to 9th grade", "Secondary education", "Higher education"}
var fivePointLow = []string{"Very low", "Low", "Neutral", "High", "Very high"}

var binLabels = map[string][]string{
	"Medu":       educationLevels,
	"Fedu":       educationLevels,
	"reason":     {"Close to home", "School reputation", "Course preference", "Other"},
	"traveltime": {"<15 min.", "15 to 30 min.", "30 min. to 1 hour", ">1 hour"},
	"studytime":  {"<2 hours", "2 to 5 hours", "5 to 10 hours", ">10 hours"},
	"failures":   {"None", "1", "2", "3 or more"},
	"famrel":     {"Very bad", "Bad", "Neutral", "Good", "Excellent"},
	"freetime":   fivePointLow,
	"goout":      fivePointLow,
	"Dalc":       fivePointLow,
	"Walc":       fivePointLow,
	"health":     {"Very bad", "Bad", "Neutral", "Good", "Very good"},
	"absences":   spanLabels(93, 5, "absences"),
	"G1":         spanLabels(20, 5, "grade"),
	"G2":         spanLabels(20, 5, "grade"),
	"G3":         spanLabels(20, 5, "grade"),
	"sex":        {"Female", "Male"},
	"higher":     {"No", "Yes"},
	"Pstatus":    {"Together", "Apart"},
}

var titles = map[string]string{
	"Medu":       "Mother Education Level",
	"Fedu":       "Father Education Level",
	"failures":   "Number of Failures",
	"studytime":  "Weekly Study Time",
	"traveltime": "Travel Time to School",
	"Walc":       "Weekend Alcohol Consumption",
	"Dalc":       "Workday Alcohol Consumption",
	"health":     "Quality of health",
	"famrel":     "Quality of Family Relationships",
	"goout":      "Going Out with Friends",
	"freetime":   "Freetime after school",
	"famsup":     "Family Support",
	"internet":   "Internet Access",
	"romantic":   "Romantic Relationship",
	"absences":   "Absences",
	"age":        "Age",
	"sex":        "Gender",
	"higher":     "Wants higher education",
	"Pstatus":    "Parents together",
	"G1":         "First Period Grade",
	"G2":         "Second Period Grade",
	"G3":         "Final Grade",
	"tsne-1":     "t-SNE 1",
	"tsne-2":     "t-SNE 2",
}

// spanLabels splits [0, max] into n integer spans: "0 - 3 grade", "4 - 7 grade", …
func spanLabels(max float64, n int, unit string) []string {
	width := max / float64(n)
	out := make([]string, n)
	for b := range out {
		out[b] = fmt.Sprintf("%d - %d %s", int(width*float64(b)), int(width*float64(b+1)-1), unit)
	}
	return out
}

// BinLabel explains what bin b of attribute means.
func BinLabel(attribute string, bin int) string {
	if levels, ok := binLabels[attribute]; ok && bin >= 0 && bin < len(levels) {
		return levels[bin]
	}
	return fmt.Sprintf("%s bin %d", attribute, bin)
}

// Title returns the display title for attribute, or the key itself.
func Title(attribute string) string {
	if t, ok := titles[attribute]; ok {
		return t
	}
	return attribute
}

// Levels returns the known bin labels of attribute (nil when none).
func Levels(attribute string) []string {
	levels := binLabels[attribute]
	if levels == nil {
		return nil
	}
	out := make([]string, len(levels))
	copy(out, levels)
	return out
}

// Labeler resolves titles and bin labels, preferring per-column overrides
// from a Config over the built-in catalog.
type Labeler struct {
	cfg *Config
}

// NewLabeler returns a Labeler backed by cfg (may be nil).
func NewLabeler(cfg *Config) Labeler {
	return Labeler{cfg: cfg}
}

func (l Labeler) Title(attribute string) string {
	if l.cfg != nil {
		if col, ok := l.cfg.Column(attribute); ok && col.DisplayName != "" && col.DisplayName != col.Key {
			return col.DisplayName
		}
	}
	return Title(attribute)
}

func (l Labeler) BinLabel(attribute string, bin int) string {
	if l.cfg != nil {
		if col, ok := l.cfg.Column(attribute); ok && bin >= 0 && bin < len(col.Levels) {
			return col.Levels[bin]
		}
	}
	return BinLabel(attribute, bin)
}
