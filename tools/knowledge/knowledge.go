// Package knowledge is a taskflow.Tool that answers keyword queries
// against a small SQLite-backed reference table, using a substring search
// in place of the vector/embedding retrieval the original conversational
// framework used — this scheduler has no embedding model to call.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	taskflow "github.com/flowforge/taskflow"
)

// Entry is one row of the knowledge table.
type Entry struct {
	Topic   string
	Content string
}

// defaultEntries seeds the knowledge table whenever New finds it empty,
// whether the database is on disk or in memory. Content mirrors the reference compliance topics
// this tool was modeled on.
var defaultEntries = []Entry{
	{"contract law", "Contract law governs legally binding agreements between parties. Key principles include offer, acceptance, consideration, capacity, and legality."},
	{"contract formation", "Valid contract formation requires offer, acceptance, consideration, intention to create legal relations, capacity, and legality of purpose."},
	{"breach of contract", "Breach occurs when a party fails to perform contractual obligations. Remedies include damages, specific performance, injunctions, or rescission."},
	{"regulatory compliance", "Regulatory compliance ensures adherence to laws, regulations, and industry standards through risk assessment, policy development, monitoring, and auditing."},
	{"data privacy", "Data privacy protects personal information from unauthorized access, use, disclosure, modification, or destruction."},
	{"gdpr", "The General Data Protection Regulation is an EU regulation protecting personal data, built on lawfulness, fairness, transparency, and data minimization."},
	{"anti-money laundering", "AML regulations prevent money laundering and terrorist financing through customer due diligence, transaction monitoring, and suspicious activity reporting."},
	{"employment law", "Employment law governs employer-employee relationships: hiring, wages, working conditions, discrimination, harassment, termination, and workplace safety."},
	{"intellectual property", "Intellectual property law protects creations of the mind: patents, copyrights, trademarks, and trade secrets."},
	{"environmental compliance", "Environmental regulations protect air, water, land, and wildlife through permitting, monitoring, reporting, and hazardous waste management."},
}

// Tool queries a SQLite-backed knowledge table for rows whose topic or
// content contains the query substring (case-insensitive).
type Tool struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Tool.
type Option func(*Tool)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tool) { t.logger = l }
}

// New opens (or creates) a SQLite database at path and seeds it with
// defaultEntries if the knowledge table is empty. Pass ":memory:" for an
// ephemeral database.
func New(path string, opts ...Option) (*Tool, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open database: %w", err)
	}

	t := &Tool{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.init(); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

func (t *Tool) init() error {
	const schema = `CREATE TABLE IF NOT EXISTS knowledge (
		topic TEXT NOT NULL,
		content TEXT NOT NULL
	)`
	if _, err := t.db.Exec(schema); err != nil {
		return fmt.Errorf("knowledge: create schema: %w", err)
	}

	var count int
	if err := t.db.QueryRow("SELECT COUNT(*) FROM knowledge").Scan(&count); err != nil {
		return fmt.Errorf("knowledge: count rows: %w", err)
	}
	if count > 0 {
		return nil
	}

	return t.Seed(defaultEntries)
}

// Seed inserts entries into the knowledge table.
func (t *Tool) Seed(entries []Entry) error {
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("knowledge: begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO knowledge (topic, content) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("knowledge: prepare seed statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Topic, e.Content); err != nil {
			return fmt.Errorf("knowledge: seed row %q: %w", e.Topic, err)
		}
	}
	return tx.Commit()
}

// Close releases the underlying database handle.
func (t *Tool) Close() error {
	return t.db.Close()
}

// Name implements taskflow.Tool.
func (t *Tool) Name() string { return "knowledge_retrieval" }

// Description implements taskflow.Tool.
func (t *Tool) Description() string {
	return "Retrieve reference information matching a keyword query."
}

// Run implements taskflow.Tool. input["query"] is required.
func (t *Tool) Run(ctx context.Context, input map[string]any, _ map[string]any) (any, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("knowledge_retrieval: \"query\" is required")
	}

	rows, err := t.db.QueryContext(ctx,
		`SELECT topic, content FROM knowledge WHERE topic LIKE ? OR content LIKE ?`,
		"%"+query+"%", "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("knowledge_retrieval: query: %w", err)
	}
	defer rows.Close()

	var results []map[string]any
	for rows.Next() {
		var topic, content string
		if err := rows.Scan(&topic, &content); err != nil {
			return nil, fmt.Errorf("knowledge_retrieval: scan row: %w", err)
		}
		results = append(results, map[string]any{
			"topic":            topic,
			"content":          content,
			"relevance_score":  1.0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knowledge_retrieval: iterate rows: %w", err)
	}

	if len(results) == 0 {
		t.logger.Warn("no results found", "query", query)
	}

	return map[string]any{
		"results": results,
		"query":   query,
		"found":   len(results) > 0,
		"count":   len(results),
	}, nil
}

var _ taskflow.Tool = (*Tool)(nil)
