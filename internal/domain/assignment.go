package domain

import "time"

// Difficulty buckets assignments for the catalog listing.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Valid reports whether the difficulty is one of the known buckets.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// FixtureRow is one seed data row, keyed by column name. Rows for the
// same table are expected to share a uniform column set.
type FixtureRow map[string]any

// TableDefinition describes one sandbox table authored by content
// editors: a raw CREATE TABLE statement plus optional fixture rows
// loaded when the sandbox schema is provisioned.
type TableDefinition struct {
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	CreateTableSQL string       `json:"createTableSQL"`
	SampleData     []FixtureRow `json:"sampleData,omitempty"`
}

// Assignment is a catalog entry: the exercise prompt plus the table
// definitions the sandbox seeds for it.
type Assignment struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Difficulty       Difficulty        `json:"difficulty"`
	Question         string            `json:"question"`
	TableDefinitions []TableDefinition `json:"tableDefinitions"`
	Hints            []string          `json:"hints,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// PublicTable is the client-facing view of a table definition. The raw
// CREATE TABLE statement stays server-side.
type PublicTable struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	SampleData  []FixtureRow `json:"sampleData,omitempty"`
}

// PublicView strips the fields that should never reach the client.
func (a Assignment) PublicView() PublicAssignment {
	tables := make([]PublicTable, len(a.TableDefinitions))
	for i, t := range a.TableDefinitions {
		tables[i] = PublicTable{
			Name:        t.Name,
			Description: t.Description,
			SampleData:  t.SampleData,
		}
	}

	return PublicAssignment{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Difficulty:  a.Difficulty,
		Question:    a.Question,
		Tables:      tables,
	}
}

// PublicAssignment is what GET /api/assignments/{id} returns.
type PublicAssignment struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Difficulty  Difficulty    `json:"difficulty"`
	Question    string        `json:"question"`
	Tables      []PublicTable `json:"tableDefinitions"`
}

// AssignmentSummary is the catalog listing row.
type AssignmentSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
}

// SchemaText renders the table definitions as plain text for the hint
// generator prompt.
func (a Assignment) SchemaText() string {
	text := ""
	for _, t := range a.TableDefinitions {
		if text != "" {
			text += "\n\n"
		}
		text += "Table: " + t.Name
		if t.Description != "" {
			text += "\nDescription: " + t.Description
		}
	}
	return text
}
