// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search ranks schemaless entities against a query by embedding
// similarity. The calendar tool uses it to pick the event a vague request
// ("my dentist thing") most plausibly refers to.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/AleutianAI/AleutianAssist/services/assistant/datatypes"
)

// Ranker scores entities against a query with an embedding model.
//
// Thread Safety: safe for concurrent use when the embedder is.
type Ranker struct {
	embedder embeddings.Embedder
}

// NewRanker wraps an embedder.
func NewRanker(embedder embeddings.Embedder) (*Ranker, error) {
	if embedder == nil {
		return nil, fmt.Errorf("search: nil embedder")
	}
	return &Ranker{embedder: embedder}, nil
}

// Rank returns up to limit entities ordered by descending similarity between
// query and the best-matching of the given string fields. Entities with none
// of the fields set score below every entity with at least one.
//
// One embedding call covers the query plus every candidate field, so cost is
// one request per Rank rather than one per field.
func (r *Ranker) Rank(ctx context.Context, query string, entities []datatypes.Body, fields []string, limit int) ([]datatypes.Body, error) {
	if limit <= 0 || len(entities) == 0 {
		return nil, nil
	}

	// Collect the texts to embed: query first, then each present field.
	texts := []string{query}
	// fieldOwner[i] is the entity index that contributed texts[i+1].
	var fieldOwner []int
	for i, e := range entities {
		for _, f := range fields {
			if s := e.GetString(f); s != "" {
				texts = append(texts, s)
				fieldOwner = append(fieldOwner, i)
			}
		}
	}

	vectors, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("search: embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("search: embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	queryVec := vectors[0]
	scores := make([]float64, len(entities))
	for i := range scores {
		scores[i] = math.Inf(-1)
	}
	for vi, owner := range fieldOwner {
		sim := CosineSimilarity(queryVec, vectors[vi+1])
		if sim > scores[owner] {
			scores[owner] = sim
		}
	}

	order := make([]int, len(entities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if limit > len(order) {
		limit = len(order)
	}
	out := make([]datatypes.Body, 0, limit)
	for _, idx := range order[:limit] {
		out = append(out, entities[idx])
	}
	return out, nil
}

// CosineSimilarity returns the cosine of the angle between a and b. Zero
// vectors and mismatched lengths score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
