package insightserver

// FusedRecord is one record of a FusedContext together with the source
// that won it during deduplication.
type FusedRecord struct {
	Source Source
	Record Record
}

// FusedContext is the deduplicated merge of the three retrieval results,
// ordered by source priority and, within a source, by retrieval order.
type FusedContext []FusedRecord

// Sources returns the distinct sources present, in priority order.
func (fc FusedContext) Sources() []Source {
	present := make(map[Source]struct{}, 3)
	for _, fr := range fc {
		present[fr.Source] = struct{}{}
	}
	sources := make([]Source, 0, len(present))
	for _, source := range fusionOrder {
		if _, ok := present[source]; ok {
			sources = append(sources, source)
		}
	}
	return sources
}

// fusionOrder is the source priority used for deduplication: when the same
// record identifier shows up in more than one result, the occurrence from
// the earliest source in this list survives.
var fusionOrder = []Source{SourceGenerated, SourceStructured, SourceSemantic}

// Fuse merges the three retrieval results into a single deduplicated
// context. Records carrying an identifier appear at most once, won by the
// highest-priority source that returned them. Identifier-less aggregates
// are always retained. Relative order within each source is preserved, and
// only semantic records keep a similarity score. Fuse is a pure function;
// empty inputs produce an empty, valid context.
func Fuse(structured, semantic, generated RetrievalResult) FusedContext {
	ordered := []struct {
		source Source
		result RetrievalResult
	}{
		{SourceGenerated, generated},
		{SourceStructured, structured},
		{SourceSemantic, semantic},
	}

	var (
		seen  = make(map[string]struct{})
		fused FusedContext
	)
	for _, pair := range ordered {
		for _, record := range pair.result.Records {
			if !record.Aggregate() {
				if _, ok := seen[record.ID]; ok {
					continue
				}
				seen[record.ID] = struct{}{}
			}
			if pair.source != SourceSemantic {
				record.Score = 0
			}
			fused = append(fused, FusedRecord{Source: pair.source, Record: record})
		}
	}

	return fused
}
