package utils

// EmailStep is one timed email within a sequence. DelayHours counts from the
// subscription's start time; a step becomes eligible once that many hours
// have elapsed and it has not been sent yet.
type EmailStep struct {
	ID         string
	DelayHours float64
	Template   string
	Subject    string
	Active     bool
}

// SequenceDefinition is a fixed, ordered list of email steps. Definitions are
// build-time configuration, not user data; subscriptions reference them by ID.
type SequenceDefinition struct {
	ID    string
	Name  string
	Steps []EmailStep
}

// sequenceRegistry holds every sequence the autoresponder knows about.
// Step delays should be non-decreasing within a sequence so the emails read
// in order, though eligibility is evaluated per step regardless.
var sequenceRegistry = map[string]SequenceDefinition{
	"buyer-nurture": {
		ID:   "buyer-nurture",
		Name: "Property Buyer Nurture",
		Steps: []EmailStep{
			{
				ID:         "welcome",
				DelayHours: 0,
				Template:   "nurture_welcome",
				Subject:    "Welcome — your Singapore property journey starts here",
				Active:     true,
			},
			{
				ID:         "day-1-guide",
				DelayHours: 24,
				Template:   "nurture_buying_guide",
				Subject:    "Your step-by-step guide to buying property in Singapore",
				Active:     true,
			},
			{
				ID:         "day-3-financing",
				DelayHours: 72,
				Template:   "nurture_financing",
				Subject:    "How much can you really borrow? TDSR and loan limits explained",
				Active:     true,
			},
			{
				ID:         "day-7-new-launches",
				DelayHours: 168,
				Template:   "nurture_new_launches",
				Subject:    "This month's new launches worth a look",
				Active:     true,
			},
			{
				ID:         "day-14-consult",
				DelayHours: 336,
				Template:   "nurture_consult",
				Subject:    "Ready to view? Book a free consultation",
				Active:     true,
			},
		},
	},
	"seller-nurture": {
		ID:   "seller-nurture",
		Name: "Property Seller Nurture",
		Steps: []EmailStep{
			{
				ID:         "welcome",
				DelayHours: 0,
				Template:   "nurture_welcome",
				Subject:    "Thinking of selling? Here's what your home could fetch",
				Active:     true,
			},
			{
				ID:         "day-2-valuation",
				DelayHours: 48,
				Template:   "nurture_valuation",
				Subject:    "Get an accurate valuation before you list",
				Active:     true,
			},
			{
				ID:         "day-7-consult",
				DelayHours: 168,
				Template:   "nurture_consult",
				Subject:    "Let's plan your sale — free consultation",
				Active:     true,
			},
		},
	},
}

// GetSequence looks up a sequence definition by ID. The second return value
// is false for unknown IDs; callers are expected to skip rather than fail.
func GetSequence(id string) (SequenceDefinition, bool) {
	seq, ok := sequenceRegistry[id]
	return seq, ok
}

// SequenceIDs returns the IDs of all registered sequences.
func SequenceIDs() []string {
	ids := make([]string, 0, len(sequenceRegistry))
	for id := range sequenceRegistry {
		ids = append(ids, id)
	}
	return ids
}
