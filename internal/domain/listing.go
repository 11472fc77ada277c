package domain

// Listing holds the fields scraped out of one instant update email.
// All values are display strings exactly as they appear in the email;
// the price is not parsed to a number and the address is free text.
// A Listing is never mutated after the extractor builds it.
type Listing struct {
	URL      string // listing detail page
	ImageURL string // hero photo, may be empty
	Price    string // e.g. "$450,000"
	Facts    string // e.g. "3 bds, 2 ba"
	Address  string
}

// Notifiable reports whether the listing carries enough to post:
// without a URL there is nothing to link and without an address there
// is nothing to title the message with. Price, facts and image are
// rendered around when missing.
func (l Listing) Notifiable() bool {
	return l.URL != "" && l.Address != ""
}
