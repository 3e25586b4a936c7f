// Package sqlcheck gates raw student SQL before it reaches the
// database. It is a denylist/allow-prefix filter, not a parser: known
// dangerous keywords and system schemas are rejected anywhere in the
// text, and only statements that start with SELECT or WITH pass.
package sqlcheck

import (
	"fmt"
	"regexp"
	"strings"
)

// Result is the outcome of validating one query string.
type Result struct {
	Accepted bool
	Reason   string
}

var (
	// DDL and DML verbs that must never appear, even inside CTEs or
	// subqueries. Matched on whole-word boundaries, case-insensitive.
	forbiddenKeyword = regexp.MustCompile(`(?i)\b(create|alter|drop|truncate|delete|insert|update|grant|revoke|comment|vacuum|copy|execute)\b`)

	// Postgres metadata schemas the sandbox must not expose.
	systemSchema = regexp.MustCompile(`(?i)\b(pg_catalog|information_schema|pg_toast|pg_temp)\b`)

	leadingToken = regexp.MustCompile(`^[A-Za-z]+`)

	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespace   = regexp.MustCompile(`\s+`)
)

func reject(reason string) Result {
	return Result{Accepted: false, Reason: reason}
}

// Validate applies the sandbox gate rules in order and returns the
// first rule that fails. It is a pure function and safe for concurrent
// use.
func Validate(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return reject("query cannot be empty")
	}

	if kw := forbiddenKeyword.FindString(raw); kw != "" {
		return reject(fmt.Sprintf("query contains forbidden keyword %s; only SELECT queries are allowed", strings.ToUpper(kw)))
	}

	if schema := systemSchema.FindString(raw); schema != "" {
		return reject(fmt.Sprintf("access to system schema %q is not allowed", strings.ToLower(schema)))
	}

	token := strings.ToUpper(leadingToken.FindString(trimmed))
	if token != "SELECT" && token != "WITH" {
		return reject("only SELECT and WITH queries are allowed")
	}

	if countStatements(raw) > 1 {
		return reject("multiple statements are not allowed; execute one query at a time")
	}

	return Result{Accepted: true}
}

// countStatements counts non-empty semicolon-delimited segments, so a
// trailing semicolon does not read as a second statement.
func countStatements(raw string) int {
	count := 0
	for _, segment := range strings.Split(raw, ";") {
		if strings.TrimSpace(segment) != "" {
			count++
		}
	}
	return count
}

// Sanitize strips SQL comments and collapses whitespace. It runs only
// after Validate has accepted the original text, and the sanitized
// form is what actually executes, so a payload hidden in a comment
// cannot smuggle a second statement past the gate. Idempotent.
func Sanitize(raw string) string {
	out := lineComment.ReplaceAllString(raw, "")
	out = blockComment.ReplaceAllString(out, "")
	out = whitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
