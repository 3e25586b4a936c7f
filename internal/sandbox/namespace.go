package sandbox

import (
	"fmt"
	"hash/fnv"
	"regexp"
)

const (
	schemaPrefix = "workspace"

	// Postgres truncates identifiers at 63 bytes. Each sanitized part
	// is capped so prefix + parts + hash suffix always fit.
	maxPartLen = 20
)

var nonIdentifier = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SchemaName is the sandbox isolation unit: a per-(tenant, assignment)
// Postgres schema identifier. It can only be built through
// DeriveSchemaName, which keeps the injection-safety invariant
// structural — anywhere a SchemaName is spliced into DDL, the value is
// already a legal identifier.
type SchemaName struct {
	name string
}

func (s SchemaName) String() string { return s.name }

// Quoted returns the identifier double-quoted for interpolation into
// statements that cannot take it as a bind parameter.
func (s SchemaName) Quoted() string { return `"` + s.name + `"` }

// DeriveSchemaName maps a (tenantKey, assignmentID) pair to its schema.
// The same pair always derives the same name. Each part is stripped to
// the identifier alphabet and length-capped; because that mapping alone
// is not injective, an FNV-1a digest of the raw pair is appended so
// distinct pairs can never collide after sanitization.
func DeriveSchemaName(tenantKey, assignmentID string) SchemaName {
	h := fnv.New32a()
	h.Write([]byte(tenantKey))
	h.Write([]byte{0})
	h.Write([]byte(assignmentID))

	name := fmt.Sprintf("%s_%s_%s_%08x",
		schemaPrefix, sanitizePart(tenantKey), sanitizePart(assignmentID), h.Sum32())
	return SchemaName{name: name}
}

func sanitizePart(raw string) string {
	part := nonIdentifier.ReplaceAllString(raw, "")
	if len(part) > maxPartLen {
		part = part[:maxPartLen]
	}
	return part
}
