package mechanics

import "strings"

// Hands describes hand placement and movement for one beat.
type Hands struct {
	Which        string
	Movement     string
	HoldsProduct bool
	ProductAngle string
	Description  string
}

// Expression describes the facial performance for one beat.
type Expression struct {
	State       string
	From        string
	Transition  string
	Description string
	Micro       []string
}

// Body describes posture for one beat.
type Body struct {
	Posture     string
	Description string
	Movement    string
	Tremor      bool
}

// Eyes describes gaze for one beat.
type Eyes struct {
	Direction   string
	Description string
	Glance      string
}

// Product describes how the product appears during a beat.
type Product struct {
	Interaction   string
	Position      string
	Demonstration string
}

// Template is a tested movement pattern for one section of the video.
type Template struct {
	Name        string
	Description string
	Hands       Hands
	Expression  Expression
	Body        Body
	Eyes        Eyes
	Product     *Product
}

// Category tunes product handling for a product category.
type Category struct {
	Name          string
	Actions       []string
	HoldStyle     string
	TypicalReveal string
}

const (
	defaultHook     = "casual_share"
	defaultBody     = "demonstration"
	defaultCTA      = "soft_recommendation"
	defaultCategory = "general"
)

var hookTemplates = map[string]Template{
	"product_reveal": {
		Description: "Product rises into frame with excited reveal",
		Hands: Hands{
			Which:        "right",
			Movement:     "rises smoothly from below frame",
			HoldsProduct: true,
			ProductAngle: "slight tilt toward camera",
			Description:  "Right hand rises from below frame, holding bottle at slight angle toward camera",
		},
		Expression: Expression{
			State:       "excited_smile",
			From:        "raised_eyebrows",
			Transition:  "transitions to",
			Description: "Raised eyebrows then a widening smile as product enters frame",
			Micro:       []string{"eyebrow flash", "slight lip purse before smile"},
		},
		Body: Body{
			Posture:     "leaning_forward",
			Description: "Subtle forward lean toward camera, natural arm tremor",
			Movement:    "slight forward movement",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_product",
			Description: "Quick glance at product, then back to phone screen",
			Glance:      "product, camera, product",
		},
		Product: &Product{
			Interaction: "Held up beside face, label facing camera",
			Position:    "right side, face height",
		},
	},
	"pov_storytelling": {
		Description: "POV style hook with direct camera address",
		Hands: Hands{
			Which:       "both",
			Movement:    "natural conversational gestures",
			Description: "Hands gesture conversationally, palms open toward camera",
		},
		Expression: Expression{
			State:       "raised_eyebrows",
			Description: "Eyebrows raised in 'you won't believe this' expression, slight head tilt",
			Micro:       []string{"knowing look", "subtle smirk"},
		},
		Body: Body{
			Posture:     "leaning_forward",
			Description: "Conspiratorial lean toward camera, like sharing a secret",
			Movement:    "slight forward lean",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_camera",
			Description: "Direct eye contact with camera, intimate connection",
			Glance:      "steady with occasional natural breaks",
		},
	},
	"curiosity_hook": {
		Description: "Creates curiosity with skeptical-to-surprised transition",
		Hands: Hands{
			Which:       "right",
			Movement:    "drops from face as expression changes",
			Description: "One hand near chin in thinking pose, then drops as realization hits",
		},
		Expression: Expression{
			State:       "surprised",
			From:        "thinking",
			Transition:  "transforms into",
			Description: "Thinking expression, then eyes widen with realization",
			Micro:       []string{"slight frown", "eye widening"},
		},
		Body: Body{
			Posture:     "upright",
			Description: "Slight backward movement in surprise, then forward with interest",
			Movement:    "micro-recoil then lean",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_camera",
			Description: "Eyes widen, brief glance away then back to emphasize discovery",
			Glance:      "away and back with wider eyes",
		},
	},
	"casual_share": {
		Description: "Casual, friend-sharing-discovery style hook",
		Hands: Hands{
			Which:       "right",
			Movement:    "casual explanatory gesture",
			Description: "Relaxed hand gesture, palm up like offering information",
		},
		Expression: Expression{
			State:       "soft_smile",
			Description: "Relaxed, genuine smile, slightly asymmetrical",
			Micro:       []string{"natural blink", "slight head nod"},
		},
		Body: Body{
			Posture:     "upright",
			Description: "Relaxed posture, slight natural sway",
			Movement:    "minimal, natural micro-movements",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_camera",
			Description: "Friendly eye contact, like talking to a friend",
			Glance:      "steady with conversational breaks",
		},
	},
}

var bodyTemplates = map[string]Template{
	"demonstration": {
		Description: "Active product demonstration",
		Hands: Hands{
			Which:        "both",
			Movement:     "deliberate demonstration movements",
			HoldsProduct: true,
			ProductAngle: "varies to show different angles",
			Description:  "Rotates product to show label, unscrews cap, demonstrates use",
		},
		Expression: Expression{
			State:       "genuine_warmth",
			From:        "excited_smile",
			Transition:  "softens to",
			Description: "Excited smile softens to genuine warmth, slight nod of approval",
			Micro:       []string{"approval nod", "satisfied lip press"},
		},
		Body: Body{
			Posture:     "upright",
			Description: "Stable posture for demonstration, slight movements for emphasis",
			Movement:    "subtle shifts to show product angles",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_product",
			Description: "Glances between phone and product conversationally",
			Glance:      "camera, product, camera rhythm",
		},
		Product: &Product{
			Interaction:   "Active demonstration: showing, opening, using",
			Position:      "center, well-lit",
			Demonstration: "opening, applying, or showing key feature",
		},
	},
	"testimonial": {
		Description: "Personal experience sharing",
		Hands: Hands{
			Which:       "both",
			Movement:    "emotional, personal gestures",
			Description: "Emphatic hand gestures, touches chest for personal emphasis",
		},
		Expression: Expression{
			State:       "emphatic",
			Description: "Expressive face showing genuine emotion, eyebrows move with emphasis",
			Micro:       []string{"eyebrow raises on key words", "genuine smile breaks through"},
		},
		Body: Body{
			Posture:     "leaning_forward",
			Description: "Engaged forward lean, body language shows conviction",
			Movement:    "emphatic movements matching speech",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_camera",
			Description: "Direct sincere eye contact, occasional look up when remembering",
			Glance:      "camera with occasional upward glances when recalling",
		},
	},
	"education": {
		Description: "Teaching or explaining content",
		Hands: Hands{
			Which:       "both",
			Movement:    "counting, pointing, explaining gestures",
			Description: "Counts on fingers for points, uses hand as visual guide",
		},
		Expression: Expression{
			State:       "curious",
			Description: "Engaged, teacher-like expression, eyebrows raise for emphasis",
			Micro:       []string{"knowing nods", "emphasis expressions"},
		},
		Body: Body{
			Posture:     "upright",
			Description: "Authoritative but friendly posture",
			Movement:    "slight movements for emphasis",
		},
		Eyes: Eyes{
			Direction:   "at_camera",
			Description: "Direct teaching eye contact, occasional thoughtful glances",
			Glance:      "steady with emphasis breaks",
		},
	},
	"comparison": {
		Description: "Before/after or product comparison",
		Hands: Hands{
			Which:        "both",
			Movement:     "shifting between positions",
			HoldsProduct: true,
			ProductAngle: "varied for comparison",
			Description:  "Holds product(s) at different positions for comparison",
		},
		Expression: Expression{
			State:       "raised_eyebrows",
			From:        "thinking",
			Transition:  "transforms to impressed",
			Description: "Skeptical look turning into an impressed expression",
			Micro:       []string{"skeptical squint", "impressed eye widening"},
		},
		Body: Body{
			Posture:     "upright",
			Description: "Steady for clear comparison shots",
			Movement:    "minimal for clarity",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_product",
			Description: "Eyes move between comparison points",
			Glance:      "product A, product B, camera",
		},
	},
}

var ctaTemplates = map[string]Template{
	"soft_recommendation": {
		Description: "Gentle, friendly recommendation",
		Hands: Hands{
			Which:        "right",
			Movement:     "gentle presentation gesture",
			HoldsProduct: true,
			ProductAngle: "label toward camera",
			Description:  "Holds product gently, slight lift toward camera",
		},
		Expression: Expression{
			State:       "genuine_warmth",
			Description: "Warm, genuine smile, slight head tilt",
			Micro:       []string{"genuine smile", "friendly nod"},
		},
		Body: Body{
			Posture:     "leaning_forward",
			Description: "Slight lean in for intimacy",
			Movement:    "gentle forward movement",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_camera",
			Description: "Warm direct eye contact, like talking to a friend",
			Glance:      "steady friendly gaze",
		},
		Product: &Product{
			Interaction: "Gentle hold, final display",
			Position:    "prominent but not pushy",
		},
	},
	"urgent_action": {
		Description: "Energetic call to action",
		Hands: Hands{
			Which:       "right",
			Movement:    "decisive pointing motion",
			Description: "Points toward camera and link area, emphatic gesture",
		},
		Expression: Expression{
			State:       "excited_smile",
			Description: "Excited, urgent expression, eyes wide with enthusiasm",
			Micro:       []string{"eyebrow flash", "urgent nod"},
		},
		Body: Body{
			Posture:     "leaning_forward",
			Description: "Forward lean with energy, sense of urgency",
			Movement:    "emphatic forward movement",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_camera",
			Description: "Intense, direct eye contact emphasizing urgency",
			Glance:      "locked on camera",
		},
	},
	"curious_tease": {
		Description: "Leaves viewer curious, soft close",
		Hands: Hands{
			Which:       "both",
			Movement:    "open, inviting gesture",
			Description: "Slight shrug gesture, palms up, 'try it yourself' motion",
		},
		Expression: Expression{
			State:       "curious",
			Description: "Knowing smile, raised eyebrow, 'you'll see' expression",
			Micro:       []string{"knowing look", "slight smirk"},
		},
		Body: Body{
			Posture:     "shrugging",
			Description: "Casual shrug, relaxed confidence",
			Movement:    "light shrug motion",
			Tremor:      true,
		},
		Eyes: Eyes{
			Direction:   "at_camera",
			Description: "Playful eye contact, slight squint of knowing",
			Glance:      "playful, inviting gaze",
		},
	},
}

var categories = map[string]Category{
	"skincare": {
		Actions:       []string{"shows texture on back of hand", "gentle application motion to face", "shows before/after skin"},
		HoldStyle:     "delicate, product-forward",
		TypicalReveal: "held at face level, label visible",
	},
	"supplement": {
		Actions:       []string{"shakes bottle gently", "opens cap, pours into hand", "shows pill/gummy size"},
		HoldStyle:     "casual, medicine-cabinet familiar",
		TypicalReveal: "rises from below frame or pulled from pocket",
	},
	"tech": {
		Actions:       []string{"shows product from multiple angles", "demonstrates key feature", "shows size comparison with hand"},
		HoldStyle:     "careful, showcasing build quality",
		TypicalReveal: "unboxing motion or deliberate reveal",
	},
	"food": {
		Actions:       []string{"shows packaging", "opens and shows contents", "taste reaction"},
		HoldStyle:     "appetizing angles, good lighting on product",
		TypicalReveal: "held up or placed on surface",
	},
	"fashion": {
		Actions:       []string{"shows fabric/material", "demonstrates fit or features", "styling showcase"},
		HoldStyle:     "displayed against body or held out",
		TypicalReveal: "worn or held up for display",
	},
	"general": {
		Actions:       []string{"shows product clearly", "demonstrates main feature", "shows size/scale"},
		HoldStyle:     "clear, well-lit presentation",
		TypicalReveal: "standard reveal from below or side",
	},
}

var hookStyles = map[string]string{
	"pov_trend":         "pov_storytelling",
	"revelation":        "curiosity_hook",
	"question":          "curiosity_hook",
	"controversial":     "curiosity_hook",
	"story_start":       "pov_storytelling",
	"curiosity_gap":     "curiosity_hook",
	"pattern_interrupt": "product_reveal",
	"relatable":         "casual_share",
	"shock":             "product_reveal",
	"other":             "casual_share",
}

var bodyFrameworks = map[string]string{
	"testimonial":       "testimonial",
	"education":         "education",
	"problem_agitation": "demonstration",
	"demonstration":     "demonstration",
	"social_proof":      "testimonial",
	"storytelling":      "testimonial",
	"comparison":        "comparison",
	"tutorial":          "education",
	"behind_the_scenes": "demonstration",
	"other":             "demonstration",
}

var ctaUrgencies = map[string]string{
	"soft":      "soft_recommendation",
	"medium":    "soft_recommendation",
	"urgent":    "urgent_action",
	"fomo":      "urgent_action",
	"discount":  "urgent_action",
	"curiosity": "curious_tease",
	"direct":    "urgent_action",
}

// HookTemplate maps a detected hook style onto its template. Template names
// are accepted as-is; anything unknown falls back to casual_share.
func HookTemplate(style string) Template {
	return lookup(hookTemplates, hookStyles, style, defaultHook)
}

// BodyTemplate maps a detected body framework onto its template.
func BodyTemplate(framework string) Template {
	return lookup(bodyTemplates, bodyFrameworks, framework, defaultBody)
}

// CTATemplate maps a detected call-to-action urgency onto its template.
func CTATemplate(urgency string) Template {
	return lookup(ctaTemplates, ctaUrgencies, urgency, defaultCTA)
}

// CategoryFor returns the modifiers for a product category, defaulting to general.
func CategoryFor(name string) Category {
	key := strings.ToLower(strings.TrimSpace(name))
	c, ok := categories[key]
	if !ok {
		key = defaultCategory
		c = categories[key]
	}
	c.Name = key
	return c
}

func lookup(templates map[string]Template, aliases map[string]string, style, fallback string) Template {
	key := strings.ToLower(strings.TrimSpace(style))
	if _, ok := templates[key]; !ok {
		key = aliases[key]
	}
	t, ok := templates[key]
	if !ok {
		key = fallback
		t = templates[key]
	}
	t.Name = key
	return t
}
