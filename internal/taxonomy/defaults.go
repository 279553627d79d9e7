package taxonomy

// defaultTopic is one entry of the seeded vocabulary
type defaultTopic struct {
	Name     string
	Keywords []string
}

// defaultTopics is the starter taxonomy installed on an empty database.
// Topics added later through the API participate the same way.
var defaultTopics = []defaultTopic{
	{"Cryptocurrency", []string{"bitcoin", "btc", "ethereum", "eth", "crypto", "blockchain", "defi", "nft"}},
	{"Stocks & Investing", []string{"stock", "invest", "dividend", "portfolio", "etf", "nasdaq", "trading"}},
	{"Real Estate", []string{"real estate", "property", "mortgage", "rental", "landlord", "housing", "reit"}},
	{"Side Hustles", []string{"side hustle", "passive income", "freelance", "gig", "dropshipping", "affiliate"}},
	{"Artificial Intelligence", []string{"ai", "artificial intelligence", "machine learning", "chatgpt", "llm", "openai"}},
	{"Gaming", []string{"gaming", "gamer", "esports", "twitch", "steam", "playstation", "xbox"}},
	{"Fitness & Health", []string{"fitness", "gym", "workout", "health", "nutrition", "diet", "protein"}},
	{"Personal Finance", []string{"budget", "savings", "debt", "fire", "retire", "financial", "credit"}},
	{"Entrepreneurship", []string{"startup", "entrepreneur", "business", "founder", "saas", "bootstrap"}},
	{"Content Creation", []string{"youtube", "content creator", "influencer", "subscriber", "viral", "monetization"}},
}

// Motivation labels: abstract psychological drivers topics can share.
const (
	MotivationWealth      = "wealth_accumulation"
	MotivationStatus      = "status_signaling"
	MotivationMastery     = "mastery"
	MotivationBelonging   = "community_belonging"
	MotivationSelfImprove = "self_improvement"
	MotivationEscapism    = "escapism"
)

// motivationKeywords maps each motivation label to vocabulary that betrays
// it. A topic's score per label grows with keyword overlap.
var motivationKeywords = map[string][]string{
	MotivationWealth: {
		"invest", "dividend", "passive income", "crypto", "bitcoin", "btc", "ethereum",
		"stock", "portfolio", "etf", "trading", "rental", "mortgage", "reit", "savings",
		"monetization", "affiliate", "dropshipping", "side hustle", "financial", "fire",
	},
	MotivationStatus: {
		"nft", "influencer", "viral", "subscriber", "founder", "startup", "landlord",
		"property", "esports", "real estate",
	},
	MotivationMastery: {
		"machine learning", "llm", "artificial intelligence", "ai", "trading", "saas",
		"bootstrap", "workout", "nutrition", "esports",
	},
	MotivationBelonging: {
		"gaming", "gamer", "twitch", "steam", "playstation", "xbox", "content creator",
		"youtube", "community",
	},
	MotivationSelfImprove: {
		"fitness", "gym", "workout", "health", "nutrition", "diet", "protein", "budget",
		"debt", "credit", "retire", "freelance",
	},
	MotivationEscapism: {
		"gaming", "twitch", "steam", "playstation", "xbox", "viral",
	},
}
