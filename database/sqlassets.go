package sqlassets

import _ "embed"

//go:embed schema/platform/slug_aliases.sql
var SlugAliasesSQL string

//go:embed schema/platform/profile_canonical_records.sql
var ProfileCanonicalRecordsSQL string
