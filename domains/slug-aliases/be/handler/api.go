package handler

import "time"

// SlugLookup is the resolve endpoint payload.
type SlugLookup struct {
	Input  string  `json:"input"`
	Target *string `json:"target"`
	Action string  `json:"action"`
}

type SlugAliasSet struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}

type SlugSource struct {
	Target string `json:"target"`
	Source string `json:"source"`
}

type SlugAliasProposal struct {
	FromSlug string `json:"fromSlug"`
	ToSlug   string `json:"toSlug"`
}

type SlugAliasResult struct {
	FromSlug  string     `json:"fromSlug"`
	ToSlug    string     `json:"toSlug"`
	Updated   bool       `json:"updated"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type SlugAlias struct {
	FromSlug  string    `json:"fromSlug"`
	ToSlug    string    `json:"toSlug"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

type SlugAliasList struct {
	Items []SlugAlias `json:"items"`
}

// ProblemDetails is an RFC 7807 problem document.
type ProblemDetails struct {
	Type   *string              `json:"type,omitempty"`
	Title  string               `json:"title"`
	Status int                  `json:"status"`
	Detail *string              `json:"detail,omitempty"`
	Errors *map[string][]string `json:"errors,omitempty"`
}
