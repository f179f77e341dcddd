package models

// FAQEntry is one curated question/answer record as stored in the FAQ
// file. Aliases are alternative phrasings of the same question.
type FAQEntry struct {
	Question string   `json:"q"`
	Answer   string   `json:"a"`
	Aliases  []string `json:"aliases"`
}

// FAQVariant is a flattened (query variant, answer) pair. Each entry
// produces one variant for the canonical question plus one per alias,
// in table order. Entries with an empty answer are dropped at load time.
type FAQVariant struct {
	Query  string
	Answer string
}
