// Package identity derives stable article identifiers from
// heterogeneous feed fields.
//
// Feeds are inconsistent about which fields uniquely identify an
// entry: some publish a guid, some only a title or a publication
// date. The resolver scans one whole batch and picks the most
// discriminating candidate that is non-empty and unique across every
// article, preferring merged (two-field) candidates because they are
// harder to collide.
package identity

import (
	"crypto/sha1"
	"encoding/hex"

	"feedrelay/internal/domain"
)

// Base candidate fields, in declaration order. Declaration order is
// the deterministic tie-break between equally valid candidates.
var baseTypes = []string{domain.FieldGUID, domain.FieldPubDate, domain.FieldTitle}

type idType struct {
	name   string
	fields []string
}

func candidateTypes() []idType {
	types := make([]idType, 0, len(baseTypes)*2)
	for _, name := range baseTypes {
		types = append(types, idType{name: name, fields: []string{name}})
	}
	for i, first := range baseTypes {
		for _, second := range baseTypes[i+1:] {
			types = append(types, idType{
				name:   first + "," + second,
				fields: []string{first, second},
			})
		}
	}
	return types
}

// Resolver tracks candidate id types over one batch of articles. Zero
// value is not usable; use NewResolver. Not safe for concurrent use;
// a resolver is scoped to a single feed cycle.
type Resolver struct {
	types   []idType
	seen    map[string]map[string]struct{}
	invalid map[string]bool
	// Candidates in the order they were invalidated. The most recent
	// failure doubles as the best-effort fallback for degenerate
	// batches where every candidate failed.
	failedOrder []string
}

func NewResolver() *Resolver {
	r := &Resolver{
		types:   candidateTypes(),
		seen:    make(map[string]map[string]struct{}),
		invalid: make(map[string]bool),
	}
	for _, t := range r.types {
		r.seen[t.name] = make(map[string]struct{})
	}
	return r
}

// Record scans one article, invalidating any candidate id type whose
// value is empty or duplicates a value already seen in this batch.
// Invalidation is permanent for the batch.
func (r *Resolver) Record(article domain.Article) {
	for _, t := range r.types {
		if r.invalid[t.name] {
			continue
		}
		value := typeValue(article, t)
		if value == "" {
			r.fail(t.name)
			continue
		}
		if _, dup := r.seen[t.name][value]; dup {
			r.fail(t.name)
			continue
		}
		r.seen[t.name][value] = struct{}{}
	}
}

func (r *Resolver) fail(name string) {
	r.invalid[name] = true
	r.failedOrder = append(r.failedOrder, name)
}

// IDType returns the chosen candidate after the whole batch has been
// recorded: the first still-valid merged type, else the first
// still-valid base type, else the last type to have failed. It always
// returns a usable type name, though the fallback is not guaranteed
// unique.
func (r *Resolver) IDType() string {
	for _, t := range r.types {
		if len(t.fields) > 1 && !r.invalid[t.name] {
			return t.name
		}
	}
	for _, t := range r.types {
		if len(t.fields) == 1 && !r.invalid[t.name] {
			return t.name
		}
	}
	return r.failedOrder[len(r.failedOrder)-1]
}

func (r *Resolver) typeByName(name string) idType {
	for _, t := range r.types {
		if t.name == name {
			return t
		}
	}
	return idType{name: name, fields: []string{name}}
}

// Resolve stamps every article in the batch with its id and idHash
// under the chosen id type. It never fails; worst case the id is not
// unique and downstream comparison logic tolerates it.
func (r *Resolver) Resolve(articles []domain.Article) {
	if len(articles) == 0 {
		return
	}
	chosen := r.typeByName(r.IDType())
	for _, article := range articles {
		id := typeValue(article, chosen)
		article[domain.FieldID] = id
		article[domain.FieldIDHash] = HashValue(id)
	}
}

// typeValue computes a candidate's value for one article. Merged
// types concatenate their component field values with no separator.
func typeValue(article domain.Article, t idType) string {
	var value string
	for _, field := range t.fields {
		value += article.Field(field)
	}
	return value
}

// HashValue is the stable hash used for idHash and for comparison
// field values: hex-encoded SHA-1. Raw ids may be long or contain
// characters unsafe for storage keys; the hash is the dedup and
// rate-limit key instead.
func HashValue(value string) string {
	sum := sha1.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}
