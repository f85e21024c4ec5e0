package entity

// UnknownTitle is the sentinel stored when a listing card carries no
// extractable title. A competing record with a real title always wins
// during in-batch deduplication.
const UnknownTitle = "Unknown Title"

// RawNavItem is one menu entry extracted from the navigation header.
type RawNavItem struct {
	Title string
	Link  string
}

// RawProductSummary is one candidate product card extracted from a category
// listing page. Fields the extractor could not resolve hold sentinel values
// rather than failing the record.
type RawProductSummary struct {
	Title     string
	Author    string
	PriceText string
	ImageURL  string
	Link      string
}

// RawReview is one review block extracted from a product page.
type RawReview struct {
	Author string
	Rating float64
	Text   string
}

// RawProductDetail is the single detail record extracted from a product page.
type RawProductDetail struct {
	Title           string
	Author          string
	PriceText       string
	DescriptionHTML string
	Specs           map[string]string
	Reviews         []RawReview
}

// RawRecords is the kind-tagged result of one page fetch. Exactly one of the
// payload fields is populated, matching Kind.
type RawRecords struct {
	Kind             TargetKind
	NavItems         []RawNavItem
	ProductSummaries []RawProductSummary
	ProductDetail    *RawProductDetail
}
