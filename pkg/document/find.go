package document

import (
	"github.com/rs/zerolog/log"

	"github.com/mockpress/mockpress/pkg/match"
)

// FindPlaceholders walks a document's structural tree depth-first, visiting
// the direct regions of each group before descending into nested groups, and
// returns every substitutable region whose name the matcher accepts. Order
// is stable within one call but otherwise not significant.
//
// Nodes that fail to enumerate are logged and skipped; a broken subtree
// never aborts the scan. An empty result is a valid outcome, not an error.
func FindPlaceholders(doc Document, m match.Matcher) []Region {
	var found []Region
	findInGroup(doc, doc.RootID(), m, &found)
	return found
}

func findInGroup(doc Document, groupID string, m match.Matcher, found *[]Region) {
	children, err := doc.Children(groupID)
	if err != nil {
		log.Warn().Str("document", doc.Name()).Str("node", groupID).Err(err).Msg("skipping unreadable node")
		return
	}
	for _, n := range children {
		if n.Kind != KindRegion {
			continue
		}
		if n.Substitutable && m.Matches(n.Name) {
			*found = append(*found, Region{ID: n.ID, Name: n.Name, Bounds: n.Bounds})
		}
	}
	for _, n := range children {
		if n.Kind == KindGroup {
			findInGroup(doc, n.ID, m, found)
		}
	}
}
